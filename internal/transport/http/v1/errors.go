package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
	"github.com/xiaot623/gogo/moodlog/internal/observability"
)

// StatusClientClosedRequest is used when the caller went away mid-request.
const StatusClientClosedRequest = 499

// writeError maps err to its HTTP status and writes the error envelope.
func writeError(c echo.Context, err error) error {
	code := domain.ErrorCode(err)
	resp := domain.ErrorResponse{Status: "error", Code: code}
	status := http.StatusInternalServerError

	switch code {
	case domain.CodeValidation:
		status = http.StatusBadRequest
		resp.Error = "Invalid request"
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			resp.Error = ve.Message
		}
	case domain.CodeClassifierUnavailable:
		status = http.StatusServiceUnavailable
		resp.Error = "Sentiment analysis service is unavailable. Please try again later."
		resp.Retryable = true
	case domain.CodeClassifierTimeout:
		status = http.StatusGatewayTimeout
		resp.Error = "Sentiment analysis timed out. Please try again."
		resp.Retryable = true
	case domain.CodeClassifierRejected:
		status = http.StatusBadRequest
		resp.Error = "Sentiment analysis service rejected the request"
		var ce *domain.ClassifierError
		if errors.As(err, &ce) {
			if ce.StatusCode >= 400 && ce.StatusCode < 500 {
				status = ce.StatusCode
			}
			if ce.Message != "" {
				resp.Error = ce.Message
			}
		}
	case domain.CodeClassifierUpstream:
		status = http.StatusBadGateway
		resp.Error = "Sentiment analysis service error"
		resp.Retryable = true
		var ce *domain.ClassifierError
		if errors.As(err, &ce) && ce.StatusCode >= 500 {
			status = ce.StatusCode
		}
	case domain.CodeNotFound:
		status = http.StatusNotFound
		resp.Error = "Conversation not found"
	case domain.CodeRequestCancelled:
		status = StatusClientClosedRequest
		resp.Error = "Request cancelled"
		resp.Retryable = true
	default:
		resp.Code = domain.CodeInternal
		resp.Error = "Internal server error"
		observability.LoggerFromContext(c.Request().Context()).Error("request failed", "error", err)
	}

	return c.JSON(status, resp)
}

// ErrorHandler is the echo error handler. Errors raised by echo itself
// (unknown route, bad method, panics caught by Recover) get the same envelope
// as handler errors.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		_ = writeError(c, err)
		return
	}

	resp := domain.ErrorResponse{Status: "error", Error: fmt.Sprint(he.Message)}
	switch {
	case he.Code == http.StatusNotFound:
		resp.Code = domain.CodeNotFound
	case he.Code >= 500:
		resp.Code = domain.CodeInternal
		resp.Error = "Internal server error"
		observability.LoggerFromContext(c.Request().Context()).Error("request failed", "error", err)
	default:
		resp.Code = domain.CodeValidation
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, resp)
}
