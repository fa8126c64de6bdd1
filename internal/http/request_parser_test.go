package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	today := core.Today()
	tests := []struct {
		name      string
		query     string
		wantYear  int
		wantMonth int
		wantErr   bool
	}{
		{"defaults", "", today.Year(), today.Month(), false},
		{"explicit", "year=2024&month=2", 2024, 2, false},
		{"month only", "month=11", today.Year(), 11, false},
		{"bad month", "month=13", 0, 0, true},
		{"not a number", "year=abc", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseMonthParams(q)
			if tt.wantErr {
				if !core.IsValidation(err) {
					t.Fatalf("err = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("got %d-%d, want %d-%d", got.Year, got.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParseTransactionFilter(t *testing.T) {
	q, _ := url.ParseQuery("type=expense&category_id=5&account_id=1&start_date=2024-01-01&end_date=2024-01-31&limit=5000&offset=10")
	f, err := ParseTransactionFilter(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Type != core.Expense || f.CategoryID != 5 || f.AccountID != 1 {
		t.Errorf("filter = %+v", f)
	}
	if f.Start.String() != "2024-01-01" || f.End.String() != "2024-01-31" {
		t.Errorf("range = %v..%v", f.Start, f.End)
	}
	if f.Limit != core.MaxListLimit || f.Offset != 10 {
		t.Errorf("limit/offset = %d/%d", f.Limit, f.Offset)
	}

	empty, err := ParseTransactionFilter(url.Values{})
	if err != nil || empty.Limit != core.DefaultListLimit {
		t.Errorf("empty filter = %+v, %v", empty, err)
	}

	bad := []string{"type=refund", "category_id=-1", "start_date=01/02/2024", "start_date=2024-02-01&end_date=2024-01-01", "limit=x"}
	for _, raw := range bad {
		q, _ := url.ParseQuery(raw)
		if _, err := ParseTransactionFilter(q); !core.IsValidation(err) {
			t.Errorf("%s: err = %v, want validation error", raw, err)
		}
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/goals/"+tt.value, nil)
		r.SetPathValue("id", tt.value)
		got, err := pathID(r)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("pathID(%q) = %d, %v", tt.value, got, err)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"x"}`, ""},
		{"empty", ``, "request body is empty"},
		{"malformed", `{"name":`, "malformed JSON"},
		{"unknown field", `{"nope":1}`, "malformed JSON"},
		{"trailing", `{"name":"x"}{"name":"y"}`, "single JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(httptest.NewRecorder(), r, &p)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !core.IsValidation(err) || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want validation containing %q", err, tt.wantErr)
			}
		})
	}
}
