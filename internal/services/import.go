package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// ImportRequest names the account statement lines land in and the
// categories credits and debits are filed under.
type ImportRequest struct {
	AccountID         int64
	IncomeCategoryID  int64
	ExpenseCategoryID int64
	// OnLine, when set, is called after each statement line is handled.
	OnLine func(done, total int)
}

type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// StatementLine is one transaction read from a statement.
type StatementLine struct {
	FITID       string
	Date        core.Date
	Amount      decimal.Decimal // signed, negative for debits
	Description string
}

// ImportService loads bank and card statements into the ledger.
type ImportService struct {
	repo   *storage.SQLiteRepository
	events Publisher
	logger *slog.Logger
}

func NewImportService(repo *storage.SQLiteRepository, events Publisher) *ImportService {
	return &ImportService{
		repo:   repo,
		events: events,
		logger: slog.Default().With(log.FieldComponent, log.ComponentImport),
	}
}

var severityRe = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)`)

// ParseOFX reads every bank and credit card transaction from an OFX document.
func ParseOFX(r io.Reader) ([]StatementLine, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read statement: %w", err)
	}
	content := strings.TrimLeft(string(raw), " \t\r\n")
	content = severityRe.ReplaceAllStringFunc(content, strings.ToUpper)

	resp, err := ofxgo.ParseResponse(strings.NewReader(content))
	if err != nil {
		return nil, core.Validationf("invalid OFX statement: %v", err)
	}

	var lines []StatementLine
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			for _, tx := range stmt.BankTranList.Transactions {
				l, err := statementLine(tx)
				if err != nil {
					return nil, err
				}
				lines = append(lines, l)
			}
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			for _, tx := range stmt.BankTranList.Transactions {
				l, err := statementLine(tx)
				if err != nil {
					return nil, err
				}
				lines = append(lines, l)
			}
		}
	}
	return lines, nil
}

func statementLine(tx ofxgo.Transaction) (StatementLine, error) {
	amount, err := decimal.NewFromString(tx.TrnAmt.FloatString(2))
	if err != nil {
		return StatementLine{}, core.Validationf("invalid amount for FITID %s", tx.FiTID)
	}
	desc := strings.TrimSpace(string(tx.Name))
	if memo := strings.TrimSpace(string(tx.Memo)); memo != "" {
		if desc == "" {
			desc = memo
		} else {
			desc += " - " + memo
		}
	}
	return StatementLine{
		FITID:       strings.TrimSpace(string(tx.FiTID)),
		Date:        core.DateOf(tx.DtPosted.Time),
		Amount:      amount,
		Description: core.Truncate(desc, core.MaxTextLength),
	}, nil
}

// ImportOFX adds every statement line not yet imported into the account.
// Lines whose FITID was seen before, or whose amount is zero, are skipped.
// The whole statement is applied in one database transaction.
func (s *ImportService) ImportOFX(ctx context.Context, req ImportRequest, r io.Reader) (ImportResult, error) {
	lines, err := ParseOFX(r)
	if err != nil {
		return ImportResult{}, err
	}

	var (
		res     ImportResult
		created []core.Transaction
	)
	err = s.repo.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetAccount(ctx, req.AccountID); err != nil {
			return lookupErr(err, core.NotFoundf("account %d not found", req.AccountID))
		}
		if err := checkCategory(ctx, q, req.IncomeCategoryID, core.Income); err != nil {
			return err
		}
		if err := checkCategory(ctx, q, req.ExpenseCategoryID, core.Expense); err != nil {
			return err
		}

		for i, l := range lines {
			tx, ok, err := importLine(ctx, q, req, l)
			if err != nil {
				return fmt.Errorf("statement line %d: %w", i+1, err)
			}
			if ok {
				created = append(created, tx)
				res.Imported++
			} else {
				res.Skipped++
			}
			if req.OnLine != nil {
				req.OnLine(i+1, len(lines))
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	s.logger.InfoContext(ctx, "Statement imported",
		log.FieldOperation, log.OpImport,
		log.FieldAccountID, req.AccountID,
		"imported", res.Imported,
		"skipped", res.Skipped)
	for _, t := range created {
		publish(ctx, s.events, transactionEvent(amqp.EventTransactionCreated, t))
	}
	return res, nil
}

// importLine records l unless it is empty or already imported.
func importLine(ctx context.Context, q *storage.Queries, req ImportRequest, l StatementLine) (core.Transaction, bool, error) {
	if l.Amount.IsZero() {
		return core.Transaction{}, false, nil
	}
	if l.FITID != "" {
		seen, err := q.ExternalRefExists(ctx, req.AccountID, l.FITID)
		if err != nil || seen {
			return core.Transaction{}, false, err
		}
	}

	t := core.Transaction{
		Amount:      l.Amount.Abs(),
		Type:        core.Expense,
		CategoryID:  req.ExpenseCategoryID,
		AccountID:   &req.AccountID,
		Date:        l.Date,
		Description: l.Description,
		ExternalRef: l.FITID,
	}
	if l.Amount.IsPositive() {
		t.Type, t.CategoryID = core.Income, req.IncomeCategoryID
	}
	created, err := createTransactionTx(ctx, q, t)
	if err != nil {
		return core.Transaction{}, false, err
	}
	return created, true, nil
}
