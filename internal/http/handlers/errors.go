// Error codes carried in the `code` field of every ErrorResponse. Codes are
// lowercase snake_case and stable across releases; clients branch on them
// rather than on messages. Generic codes mirror HTTP status semantics, the
// domain-specific ones name the pipeline stage that failed.

package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeExtractFailed    = "extract_failed"
	ErrCodeCrawlFailed      = "crawl_failed"
	ErrCodeGraphFailed      = "graph_failed"
	ErrCodeLLMFailed        = "llm_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
