package services

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

const checkingStatement = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>Info
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240105120000[0:GMT]
<TRNAMT>2500.00
<FITID>2024010501
<NAME>ACME PAYROLL
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>COFFEE SHOP
<MEMO>card 1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>GROCERY MARKET
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>2349.50
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParseOFX(t *testing.T) {
	lines, err := ParseOFX(strings.NewReader("\n\n" + checkingStatement))
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, "2024010501", lines[0].FITID)
	assert.Equal(t, "2024-01-05", lines[0].Date.String())
	assert.True(t, dec("2500").Equal(lines[0].Amount))
	assert.Equal(t, "COFFEE SHOP - card 1234", lines[1].Description)
	assert.True(t, dec("-25.50").Equal(lines[1].Amount))

	_, err = ParseOFX(strings.NewReader("not a statement"))
	assert.True(t, core.IsValidation(err))
}

func TestStatementLineTruncatesOnCharacters(t *testing.T) {
	var tx ofxgo.Transaction
	tx.FiTID = "X1"
	tx.Name = ofxgo.String("a" + strings.Repeat("é", 250))
	tx.Memo = "ref"
	tx.TrnAmt.SetInt64(-12)
	tx.DtPosted = ofxgo.Date{Time: time.Date(2024, 2, 3, 12, 0, 0, 0, time.UTC)}

	l, err := statementLine(tx)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(l.Description))
	assert.Equal(t, core.MaxTextLength, utf8.RuneCountInString(l.Description))
	assert.True(t, strings.HasPrefix(l.Description, "aé"))
	assert.Equal(t, "2024-02-03", l.Date.String())
	assert.True(t, dec("-12").Equal(l.Amount))
}

func TestImportOFXSkipsSeenLines(t *testing.T) {
	repo := newTestRepo(t)
	events := &fakePublisher{}
	importer := NewImportService(repo, events)
	ledger := NewLedgerService(repo, nil)
	ctx := context.Background()

	var progress []int
	req := ImportRequest{
		AccountID:         mainAccountID,
		IncomeCategoryID:  salaryCategoryID,
		ExpenseCategoryID: foodCategoryID,
		OnLine:            func(done, _ int) { progress = append(progress, done) },
	}

	res, err := importer.ImportOFX(ctx, req, strings.NewReader(checkingStatement))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 3}, res)
	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.True(t, dec("2349.50").Equal(balanceOf(t, ledger, mainAccountID)))
	assert.Len(t, events.types(), 3)

	res, err = importer.ImportOFX(ctx, req, strings.NewReader(checkingStatement))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Skipped: 3}, res)
	assert.True(t, dec("2349.50").Equal(balanceOf(t, ledger, mainAccountID)))

	income, err := ledger.ListTransactions(ctx, core.TransactionFilter{Type: core.Income})
	require.NoError(t, err)
	require.Len(t, income, 1)
	assert.Equal(t, "2024010501", income[0].ExternalRef)
	assert.Equal(t, salaryCategoryID, income[0].CategoryID)
}

func TestImportOFXValidatesTargets(t *testing.T) {
	importer := NewImportService(newTestRepo(t), nil)
	ctx := context.Background()

	_, err := importer.ImportOFX(ctx, ImportRequest{AccountID: 999, IncomeCategoryID: salaryCategoryID, ExpenseCategoryID: foodCategoryID},
		strings.NewReader(checkingStatement))
	assert.True(t, core.IsNotFound(err))

	_, err = importer.ImportOFX(ctx, ImportRequest{AccountID: mainAccountID, IncomeCategoryID: foodCategoryID, ExpenseCategoryID: foodCategoryID},
		strings.NewReader(checkingStatement))
	assert.True(t, core.IsValidation(err))
}
