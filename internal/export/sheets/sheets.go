// Package sheets appends ledger rows to a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/log"
)

// Config names the target sheet and the service account credentials.
// CredentialsJSON wins over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

// Appender writes rows below the last filled row of one sheet.
type Appender struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates an Appender. Extra client options are passed to the Sheets
// service after the credentials, so tests can point it at a fake endpoint.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Appender, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Ledger"
	}

	if len(opts) == 0 {
		creds, err := credentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets appender ready",
		log.FieldComponent, log.ComponentExport,
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", cfg.SheetName)

	return &Appender{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: cfg.SheetName}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
}

// AppendRows appends rows as raw values, inserting new rows in the sheet.
func (a *Appender) AppendRows(ctx context.Context, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	rng := fmt.Sprintf("%s!A:F", a.sheetName)
	resp, err := a.svc.Spreadsheets.Values.Append(a.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", rng, err)
	}

	updated := int64(0)
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRows
	}
	slog.DebugContext(ctx, "Rows appended",
		log.FieldComponent, log.ComponentExport,
		"range", rng,
		"rows", updated)
	return nil
}
