package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		JSON(map[string]int{"id": 7}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("X-Test"); got != "1" {
		t.Errorf("X-Test = %q", got)
	}
	if w.Body.String() != "{\"id\":7}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoContent(t *testing.T) {
	w := httptest.NewRecorder()
	writeNoContent(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "" {
		t.Errorf("Content-Type = %q, want none", got)
	}
}

func TestJSONResponseBuilder_EncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().JSON(make(chan int)).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantDetail string
	}{
		{"validation", core.ErrInvalidAmount, http.StatusBadRequest, "validation", "amount must be greater than 0"},
		{"wrapped not found", fmt.Errorf("lookup: %w", core.NotFoundf("goal %d not found", 3)), http.StatusNotFound, "not_found", "goal 3 not found"},
		{"conflict", core.Conflictf("category name already exists"), http.StatusConflict, "conflict", "category name already exists"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "internal", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorResponse(tt.err).Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			var body errorPayload
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error.Kind != tt.wantKind || body.Error.Detail != tt.wantDetail {
				t.Errorf("error = %+v, want %s/%s", body.Error, tt.wantKind, tt.wantDetail)
			}
		})
	}
}
