package v1

import (
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/moodlog/internal/domain"
	"github.com/xiaot623/gogo/moodlog/internal/observability"
	"github.com/xiaot623/gogo/moodlog/internal/session"
)

const (
	ctxKeySessionToken   = "session_token"
	ctxKeySessionCreated = "session_created"

	maxUserAgentLength = 256
)

// SessionMiddleware resolves the caller's session token before the handler
// runs. A newly minted token is returned in the response header.
func (h *Handler) SessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, minted := h.resolver.Resolve(c.Request().Header.Get(session.HeaderName))
		c.Set(ctxKeySessionToken, token)
		c.Set(ctxKeySessionCreated, minted)
		if minted {
			c.Response().Header().Set(session.HeaderName, token)
		}

		req := c.Request()
		c.SetRequest(req.WithContext(observability.WithSessionToken(req.Context(), token)))
		return next(c)
	}
}

func sessionFromContext(c echo.Context) (token string, created bool) {
	token, _ = c.Get(ctxKeySessionToken).(string)
	created, _ = c.Get(ctxKeySessionCreated).(bool)
	return token, created
}

func clientMetadata(c echo.Context) domain.ClientMetadata {
	return domain.ClientMetadata{
		UserAgent:  truncateUTF8(c.Request().UserAgent(), maxUserAgentLength),
		OriginHash: session.HashOrigin(c.RealIP()),
	}
}

// truncateUTF8 drops invalid bytes and cuts s to at most n bytes without
// splitting a rune.
func truncateUTF8(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
