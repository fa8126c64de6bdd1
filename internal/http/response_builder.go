// Package http serves the ledger as a JSON API.
//
// This file holds the fluent builder every handler uses to write responses,
// and the mapping from domain error kinds to status codes.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
	err        error
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON encodes v as the response body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.body, b.err = json.Marshal(v)
	return b
}

// Body sets an already encoded JSON body.
func (b *JSONResponseBuilder) Body(content []byte) *JSONResponseBuilder {
	b.body = content
	return b
}

// Write sends the built response. An encoding failure becomes a 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	if b.err != nil {
		slog.Error("Failed encoding response", log.FieldComponent, log.ComponentHTTP, log.FieldError, b.err)
		b = errorBody(http.StatusInternalServerError, "internal", "internal server error")
	}
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(b.body) > 0 {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
		_, _ = w.Write([]byte("\n"))
	}
}

type errorPayload struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

func errorBody(status int, kind, detail string) *JSONResponseBuilder {
	return NewJSONResponse().Status(status).JSON(errorPayload{Error: errorDetail{Kind: kind, Detail: detail}})
}

// ErrorResponse maps err to its status code and error body. Errors without a
// domain kind are reported as a generic 500.
func ErrorResponse(err error) *JSONResponseBuilder {
	switch core.KindOf(err) {
	case core.KindValidation:
		return errorBody(http.StatusBadRequest, string(core.KindValidation), core.DetailOf(err))
	case core.KindNotFound:
		return errorBody(http.StatusNotFound, string(core.KindNotFound), core.DetailOf(err))
	case core.KindConflict:
		return errorBody(http.StatusConflict, string(core.KindConflict), core.DetailOf(err))
	}
	return errorBody(http.StatusInternalServerError, "internal", "internal server error")
}

// BadRequestError creates a 400 validation response.
func BadRequestError(detail string) *JSONResponseBuilder {
	return errorBody(http.StatusBadRequest, string(core.KindValidation), detail)
}

// NotFoundError creates a 404 response.
func NotFoundError(detail string) *JSONResponseBuilder {
	return errorBody(http.StatusNotFound, string(core.KindNotFound), detail)
}

func UnauthorizedError() *JSONResponseBuilder {
	return errorBody(http.StatusUnauthorized, "unauthorized", "missing or invalid API key")
}

func TooManyRequestsError() *JSONResponseBuilder {
	return errorBody(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later")
}

// writeError logs err at a level matching its kind and writes the error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.FromContext(r.Context())
	var de *core.Error
	if errors.As(err, &de) {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldPath, r.URL.Path, "kind", de.Kind, log.FieldError, de.Detail)
	} else {
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, log.ComponentHTTP, r.Method,
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent(), r.Referer()))
	}
	ErrorResponse(err).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).JSON(v).Write(w)
}

func writeNoContent(w http.ResponseWriter) {
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
