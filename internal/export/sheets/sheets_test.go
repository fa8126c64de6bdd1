package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
)

func TestAppendRows(t *testing.T) {
	var (
		gotPath   string
		gotQuery  string
		gotValues [][]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		var body struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotValues = body.Values
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","updates":{"updatedRows":1}}`))
	}))
	defer srv.Close()

	a, err := New(context.Background(), Config{SpreadsheetID: "sheet-1"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	err = a.AppendRows(context.Background(), [][]any{{"2024-03-01T10:00:00Z", "transaction.created", 7, 1, "-12.50", "2024-03-01"}})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPath, "/v4/spreadsheets/sheet-1/values/"), gotPath)
	assert.True(t, strings.HasSuffix(gotPath, ":append"), gotPath)
	assert.Contains(t, gotPath, "Ledger!A:F")
	assert.Contains(t, gotQuery, "valueInputOption=RAW")
	assert.Contains(t, gotQuery, "insertDataOption=INSERT_ROWS")
	require.Len(t, gotValues, 1)
	assert.Equal(t, "transaction.created", gotValues[0][1])
	assert.Equal(t, "-12.50", gotValues[0][4])
}

func TestAppendRowsReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":400,"message":"bad range"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	a, err := New(context.Background(), Config{SpreadsheetID: "sheet-1", SheetName: "Events"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	err = a.AppendRows(context.Background(), [][]any{{"x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Events!A:F")

	assert.NoError(t, a.AppendRows(context.Background(), nil))
}

func TestCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorContains(t, err, "spreadsheet id")

	_, err = credentials(Config{})
	assert.ErrorContains(t, err, "missing service account credentials")

	b, err := credentials(Config{CredentialsJSON: `{"type":"service_account"}`, CredentialsFile: "/nope"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"service_account"}`, string(b))

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"file"}`), 0o600))
	b, err = credentials(Config{CredentialsFile: path})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"file"}`, string(b))

	_, err = credentials(Config{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")})
	assert.ErrorContains(t, err, "read service account file")
}
