package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// maxBodyBytes bounds JSON bodies; statement uploads use maxImportBytes.
const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 10 << 20
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams reads month and year, defaulting each to today's.
func ParseMonthParams(query url.Values) (MonthParams, error) {
	today := core.Today()
	params := MonthParams{Year: today.Year(), Month: today.Month()}

	var err error
	if params.Year, err = queryInt(query, "year", params.Year); err != nil {
		return params, err
	}
	if params.Month, err = queryInt(query, "month", params.Month); err != nil {
		return params, err
	}
	if params.Month < 1 || params.Month > 12 {
		return params, core.ErrInvalidMonth
	}
	return params, nil
}

// pathID parses the {id} path segment as a positive integer.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Validationf("invalid id %q", raw)
	}
	return id, nil
}

func queryInt(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Validationf("%s must be an integer", key)
	}
	return n, nil
}

func queryID(q url.Values, key string) (int64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, core.Validationf("%s must be a positive integer", key)
	}
	return n, nil
}

func queryDate(q url.Values, key string) (*core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, core.Validationf("%s: expected YYYY-MM-DD", key)
	}
	return &d, nil
}

func queryAmount(q url.Values, key string) (decimal.Decimal, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return decimal.Zero, core.Validationf("%s is required", key)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, core.Validationf("%s must be a number", key)
	}
	return d, nil
}

func queryType(q url.Values, def core.TransactionType) (core.TransactionType, error) {
	v := strings.TrimSpace(q.Get("type"))
	if v == "" {
		return def, nil
	}
	t := core.TransactionType(strings.ToLower(v))
	return t, t.Validate()
}

// ParseTransactionFilter reads type, category_id, account_id, start_date,
// end_date, limit and offset from the query string.
func ParseTransactionFilter(q url.Values) (core.TransactionFilter, error) {
	var (
		f   core.TransactionFilter
		err error
	)
	if f.Type, err = queryType(q, ""); err != nil {
		return f, err
	}
	if f.CategoryID, err = queryID(q, "category_id"); err != nil {
		return f, err
	}
	if f.AccountID, err = queryID(q, "account_id"); err != nil {
		return f, err
	}
	if f.Start, err = queryDate(q, "start_date"); err != nil {
		return f, err
	}
	if f.End, err = queryDate(q, "end_date"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(q, "limit", 0); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(q, "offset", 0); err != nil {
		return f, err
	}
	return f.Normalize()
}

// decodeJSON reads one JSON object into dst. Unknown fields and trailing data
// are rejected. Every failure is a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var de *core.Error
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &de):
			return err
		case errors.Is(err, io.EOF):
			return core.Validationf("request body is empty")
		case errors.As(err, &maxErr):
			return core.Validationf("request body exceeds %d bytes", maxErr.Limit)
		default:
			return &core.Error{Kind: core.KindValidation, Detail: fmt.Sprintf("malformed JSON: %v", err)}
		}
	}
	if dec.More() {
		return core.Validationf("request body must contain a single JSON object")
	}
	return nil
}
