// Package policy evaluates the Rego rules that turn a classification into
// a recommendation.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// Input is what the recommendation rules see.
type Input struct {
	Sentiment  string
	Confidence float64
	// Text should already be lower-cased.
	Text string
}

// Recommendation is the message and tips selected by the policy.
type Recommendation struct {
	Message string
	Tips    []string
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.recommendation.result"),
		rego.Module("recommendation.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Recommend evaluates the policy for one classified text.
func (e *Engine) Recommend(ctx context.Context, in Input) (*Recommendation, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"sentiment":  in.Sentiment,
		"confidence": in.Confidence,
		"text":       in.Text,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil, fmt.Errorf("policy produced no recommendation")
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}

	rec := &Recommendation{}
	rec.Message, _ = obj["message"].(string)
	if tips, ok := obj["tips"].([]interface{}); ok {
		for _, t := range tips {
			if s, ok := t.(string); ok {
				rec.Tips = append(rec.Tips, s)
			}
		}
	}
	if rec.Message == "" {
		return nil, fmt.Errorf("policy returned an empty message")
	}
	return rec, nil
}

// DefaultPolicy is the default recommendation policy.
const DefaultPolicy = `
package recommendation

import rego.v1

anxiety_words := ["anxious", "anxiety", "worried", "stress"]

sadness_words := ["sad", "depressed", "down", "upset"]

anger_words := ["angry", "mad", "frustrated", "irritated"]

mentions(words) if {
	some w in words
	contains(input.text, w)
}

default result := {
	"message": "Your feelings seem mixed right now, which is completely normal.",
	"tips": [
		"Try journaling to explore your thoughts",
		"Take a mindful walk to clear your head",
		"Listen to music that resonates with your mood",
		"Try a brief meditation or breathing exercise",
	],
}

result := {
	"message": "You're radiating positive energy! This is wonderful to see.",
	"tips": [
		"Listen to your favorite uplifting music",
		"Share this positive energy with a friend",
		"Write down what made you feel good today",
		"Use this momentum for a creative project",
	],
} if {
	input.sentiment == "POSITIVE"
	input.confidence > 0.9
}

result := {
	"message": "You seem to be feeling good! Let's build on these positive vibes.",
	"tips": [
		"Take a pleasant walk outside",
		"Read something inspiring",
		"Practice gratitude meditation",
		"Try a fun physical activity",
	],
} if {
	input.sentiment == "POSITIVE"
	input.confidence <= 0.9
}

result := {
	"message": "I understand you're feeling anxious. Remember, this feeling will pass.",
	"tips": [
		"Try deep breathing exercises (4-7-8 technique)",
		"Practice a 5-minute mindfulness meditation",
		"Use a calming app",
		"Consider talking to a trusted friend or counselor",
	],
} if {
	input.sentiment == "NEGATIVE"
	mentions(anxiety_words)
}

result := {
	"message": "I hear that you're going through a tough time. Your feelings are valid.",
	"tips": [
		"Try to get some natural sunlight",
		"Express yourself through art, writing, or music",
		"Light exercise can help boost mood",
		"Reach out to someone who cares about you",
	],
} if {
	input.sentiment == "NEGATIVE"
	not mentions(anxiety_words)
	mentions(sadness_words)
}

result := {
	"message": "It sounds like you're feeling frustrated. Let's work on channeling this energy.",
	"tips": [
		"Take 10 deep breaths before reacting",
		"Try physical exercise to release tension",
		"Write down your feelings in a journal",
		"Focus on what you can control in the situation",
	],
} if {
	input.sentiment == "NEGATIVE"
	not mentions(anxiety_words)
	not mentions(sadness_words)
	mentions(anger_words)
}

result := {
	"message": "I sense you might be going through something difficult. Remember, it's okay to not be okay.",
	"tips": [
		"Take a warm bath or shower",
		"Read a comforting book or watch a feel-good movie",
		"Make yourself a warm drink",
		"Consider talking to a mental health professional",
	],
} if {
	input.sentiment == "NEGATIVE"
	not mentions(anxiety_words)
	not mentions(sadness_words)
	not mentions(anger_words)
}
`
