// Package handlers implements the public HTTP API: character extraction,
// document crawling, graph generation, and model-call stats.
//
// Every failure, from any endpoint, is written as an ErrorResponse with a
// stable machine-readable code (see errors.go), so clients can branch on
// `code` without parsing messages. Success bodies are endpoint-specific
// structs serialized as-is, e.g.
//
//	HTTP/1.1 200 OK
//	{ "keyword": "원피스", "characters": ["루피", "조로"], ... }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nmkim/go-castgraph-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope shared by all endpoints. RequestID is
// echoed from the X-Request-ID response header when present, so a client can
// quote it back when reporting a failure.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// fail aborts the request with a structured error. Server-side failures
// (status >= 500) are also logged through the request-scoped logger so the
// envelope and the log line share a request id.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail exposes the error envelope to the router for NoRoute/NoMethod
// fallbacks without exporting the rest of the helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
