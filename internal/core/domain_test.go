package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2024-02-29"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !v.D.Equal(NewDate(2024, 2, 29)) {
		t.Fatalf("got %s, want 2024-02-29", v.D)
	}
	if err := json.Unmarshal([]byte(`{"d":"29/02/2024"}`), &v); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	out, _ := json.Marshal(v)
	if string(out) != `{"d":"2024-02-29"}` {
		t.Fatalf("marshal = %s", out)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Amount:     decimal.RequireFromString("12.50"),
		Type:       Expense,
		CategoryID: 1,
		Date:       NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	bads := []Transaction{
		{Amount: decimal.Zero, Type: Expense, CategoryID: 1, Date: NewDate(2025, 1, 1)},
		{Amount: decimal.NewFromInt(-3), Type: Expense, CategoryID: 1, Date: NewDate(2025, 1, 1)},
		{Amount: decimal.NewFromInt(3), Type: "transfer", CategoryID: 1, Date: NewDate(2025, 1, 1)},
		{Amount: decimal.NewFromInt(3), Type: Income, CategoryID: 0, Date: NewDate(2025, 1, 1)},
		{Amount: decimal.NewFromInt(3), Type: Income, CategoryID: 1},
		{Amount: decimal.NewFromInt(3), Type: Income, CategoryID: 1, Date: NewDate(2025, 1, 1), Description: string(long)},
	}
	for i, tx := range bads {
		if err := tx.Validate(); !IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestTextLimitsCountCharacters(t *testing.T) {
	tx := Transaction{
		Amount:      decimal.NewFromInt(3),
		Type:        Expense,
		CategoryID:  1,
		Date:        NewDate(2025, 1, 1),
		Description: strings.Repeat("é", 200),
	}
	if err := tx.Validate(); err != nil {
		t.Fatalf("200 accented characters should fit, got %v", err)
	}
	tx.Description += "é"
	if err := tx.Validate(); !IsValidation(err) {
		t.Fatalf("201 characters should be rejected, got %v", err)
	}

	if err := (Category{Name: strings.Repeat("日", 100), Type: Income}).Validate(); err != nil {
		t.Fatalf("100 character name should fit, got %v", err)
	}

	cut := Truncate("a"+strings.Repeat("é", 250), MaxTextLength)
	if !utf8.ValidString(cut) || utf8.RuneCountInString(cut) != MaxTextLength {
		t.Fatalf("Truncate gave %d runes, valid utf8 %v", utf8.RuneCountInString(cut), utf8.ValidString(cut))
	}
	if Truncate("short", MaxTextLength) != "short" {
		t.Fatal("short text must be kept")
	}
}

func TestSignedAmount(t *testing.T) {
	amt := decimal.RequireFromString("10.25")
	if got := (Transaction{Amount: amt, Type: Income}).SignedAmount(); !got.Equal(amt) {
		t.Errorf("income SignedAmount() = %s, want %s", got, amt)
	}
	if got := (Transaction{Amount: amt, Type: Expense}).SignedAmount(); !got.Equal(amt.Neg()) {
		t.Errorf("expense SignedAmount() = %s, want %s", got, amt.Neg())
	}
}

func TestAllocationRuleValidate(t *testing.T) {
	tests := []struct {
		name string
		rule AllocationRule
		ok   bool
	}{
		{"valid", AllocationRule{Name: "Save", Percentage: 20, TargetType: TargetGoal, TargetID: 1}, true},
		{"percentage zero", AllocationRule{Name: "Save", Percentage: 0, TargetType: TargetGoal, TargetID: 1}, false},
		{"percentage above 100", AllocationRule{Name: "Save", Percentage: 101, TargetType: TargetGoal, TargetID: 1}, false},
		{"bad target type", AllocationRule{Name: "Save", Percentage: 10, TargetType: "account", TargetID: 1}, false},
		{"missing name", AllocationRule{Percentage: 10, TargetType: TargetCategory, TargetID: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestOptionalID(t *testing.T) {
	var v struct {
		AccountID OptionalID `json:"account_id"`
	}
	if err := json.Unmarshal([]byte(`{}`), &v); err != nil || v.AccountID.Set {
		t.Fatalf("absent field: set=%v err=%v", v.AccountID.Set, err)
	}
	if err := json.Unmarshal([]byte(`{"account_id":null}`), &v); err != nil || !v.AccountID.Set || v.AccountID.Value != nil {
		t.Fatalf("null field: %+v err=%v", v.AccountID, err)
	}
	if err := json.Unmarshal([]byte(`{"account_id":7}`), &v); err != nil || v.AccountID.Value == nil || *v.AccountID.Value != 7 {
		t.Fatalf("value field: %+v err=%v", v.AccountID, err)
	}
}
