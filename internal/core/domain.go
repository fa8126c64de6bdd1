package core

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Daily   Interval = "daily"
	Weekly  Interval = "weekly"
	Monthly Interval = "monthly"
	Yearly  Interval = "yearly"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Checking AccountType = "checking"
	Savings  AccountType = "savings"
	Cash     AccountType = "cash"
)

const (
	TargetGoal     TargetType = "goal"
	TargetCategory TargetType = "category"
)

const dateLayout = "2006-01-02"

type (
	Interval        string
	TransactionType string
	AccountType     string
	TargetType      string

	// Date is a calendar date without time of day, always in UTC.
	Date struct {
		time.Time
	}

	Account struct {
		ID        int64           `json:"id"`
		Name      string          `json:"name"`
		Type      AccountType     `json:"type"`
		Balance   decimal.Decimal `json:"balance"`
		IsDefault bool            `json:"is_default"`
		CreatedAt time.Time       `json:"created_at"`
	}

	Category struct {
		ID        int64           `json:"id"`
		Name      string          `json:"name"`
		Type      TransactionType `json:"type"`
		Icon      string          `json:"icon,omitempty"`
		CreatedAt time.Time       `json:"created_at"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Type        TransactionType `json:"type"`
		CategoryID  int64           `json:"category_id"`
		AccountID   *int64          `json:"account_id"`
		Date        Date            `json:"date"`
		Description string          `json:"description,omitempty"`
		ExternalRef string          `json:"external_ref,omitempty"` // statement id for imported rows
		CreatedAt   time.Time       `json:"created_at"`
	}

	Transfer struct {
		ID            int64           `json:"id"`
		FromAccountID int64           `json:"from_account_id"`
		ToAccountID   int64           `json:"to_account_id"`
		Amount        decimal.Decimal `json:"amount"`
		Date          Date            `json:"date"`
		Note          string          `json:"note,omitempty"`
		CreatedAt     time.Time       `json:"created_at"`
	}

	Budget struct {
		ID         int64           `json:"id"`
		CategoryID int64           `json:"category_id"`
		Month      int             `json:"month"`
		Year       int             `json:"year"`
		Amount     decimal.Decimal `json:"amount"`
		CreatedAt  time.Time       `json:"created_at"`
	}

	Goal struct {
		ID              int64           `json:"id"`
		Name            string          `json:"name"`
		TargetAmount    decimal.Decimal `json:"target_amount"`
		CurrentAmount   decimal.Decimal `json:"current_amount"`
		Deadline        *Date           `json:"deadline"`
		Completed       bool            `json:"completed"`
		ProgressPercent float64         `json:"progress_percent"`
		CreatedAt       time.Time       `json:"created_at"`
	}

	GoalContribution struct {
		ID        int64           `json:"id"`
		GoalID    int64           `json:"goal_id"`
		Amount    decimal.Decimal `json:"amount"`
		Date      Date            `json:"date"`
		Note      string          `json:"note,omitempty"`
		CreatedAt time.Time       `json:"created_at"`
	}

	RecurringTemplate struct {
		ID          int64           `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Type        TransactionType `json:"type"`
		CategoryID  int64           `json:"category_id"`
		AccountID   *int64          `json:"account_id"`
		Interval    Interval        `json:"interval"`
		NextDate    Date            `json:"next_date"`
		AnchorDay   int             `json:"anchor_day"` // day of month monthly/yearly steps aim for
		Description string          `json:"description,omitempty"`
		IsActive    bool            `json:"is_active"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	AllocationRule struct {
		ID         int64      `json:"id"`
		Name       string     `json:"name"`
		Percentage int        `json:"percentage"`
		TargetType TargetType `json:"target_type"`
		TargetID   int64      `json:"target_id"`
		TargetName string     `json:"target_name"`
		IsActive   bool       `json:"is_active"`
		SortOrder  int        `json:"sort_order"`
		CreatedAt  time.Time  `json:"created_at"`
	}

	Setting struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
)

var (
	ErrInvalidDay         = Validationf("invalid day")
	ErrInvalidMonth       = Validationf("invalid month")
	ErrInvalidAmount      = Validationf("amount must be greater than 0")
	ErrAmountTooLarge     = Validationf("amount exceeds 9999999999.99")
	ErrInvalidType        = Validationf("type must be 'income' or 'expense'")
	ErrInvalidAccountType = Validationf("account type must be 'checking', 'savings' or 'cash'")
	ErrInvalidInterval    = Validationf("interval must be 'daily', 'weekly', 'monthly' or 'yearly'")
	ErrInvalidTargetType  = Validationf("target_type must be 'goal' or 'category'")
	ErrEmptyName          = Validationf("name cannot be empty")
	ErrDescriptionTooLong = Validationf("description too long (max 200 characters)")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current calendar date in local time.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, Validationf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return Validationf("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return Validationf("date must be a YYYY-MM-DD string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (t AccountType) Validate() error {
	switch t {
	case Checking, Savings, Cash:
		return nil
	}
	return ErrInvalidAccountType
}

func (i Interval) Validate() error {
	switch i {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	}
	return ErrInvalidInterval
}

func (t TargetType) Validate() error {
	switch t {
	case TargetGoal, TargetCategory:
		return nil
	}
	return ErrInvalidTargetType
}

func validateName(name string, max int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > max {
		return Validationf("name too long (max %d characters)", max)
	}
	return nil
}

// MaxTextLength bounds descriptions and notes, in characters.
const MaxTextLength = 200

// TooLong reports whether s has more than max characters.
func TooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

// Truncate cuts s to at most max characters without splitting one.
func Truncate(s string, max int) string {
	if !TooLong(s, max) {
		return s
	}
	return string([]rune(s)[:max])
}

func validateDescription(desc string) error {
	if TooLong(desc, MaxTextLength) {
		return ErrDescriptionTooLong
	}
	return nil
}

func (a Account) Validate() error {
	if err := validateName(a.Name, 100); err != nil {
		return err
	}
	return a.Type.Validate()
}

func (c Category) Validate() error {
	if err := validateName(c.Name, 100); err != nil {
		return err
	}
	return c.Type.Validate()
}

func (t Transaction) Validate() error {
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if t.CategoryID <= 0 {
		return Validationf("category_id is required")
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return validateDescription(t.Description)
}

// SignedAmount is the delta the transaction applies to its account.
func (t Transaction) SignedAmount() decimal.Decimal {
	return Signed(t.Amount, t.Type)
}

func (b Budget) Validate() error {
	if err := ValidateAmount(b.Amount); err != nil {
		return Validationf("budget amount must be greater than 0")
	}
	if b.CategoryID <= 0 {
		return Validationf("category_id is required")
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1900 || b.Year > 9999 {
		return Validationf("invalid year %d", b.Year)
	}
	return nil
}

func (g Goal) Validate() error {
	if err := validateName(g.Name, 100); err != nil {
		return err
	}
	if err := ValidateAmount(g.TargetAmount); err != nil {
		return Validationf("target_amount must be greater than 0")
	}
	if g.CurrentAmount.IsNegative() {
		return Validationf("current_amount cannot be negative")
	}
	if g.CurrentAmount.GreaterThan(maxAmount) {
		return Validationf("current_amount exceeds 9999999999.99")
	}
	return nil
}

func (rt RecurringTemplate) Validate() error {
	if err := ValidateAmount(rt.Amount); err != nil {
		return err
	}
	if err := rt.Type.Validate(); err != nil {
		return err
	}
	if rt.CategoryID <= 0 {
		return Validationf("category_id is required")
	}
	if err := rt.Interval.Validate(); err != nil {
		return err
	}
	if err := rt.NextDate.Validate(); err != nil {
		return Validationf("invalid next_date: %v", err)
	}
	return validateDescription(rt.Description)
}

func (r AllocationRule) Validate() error {
	if err := validateName(r.Name, 100); err != nil {
		return err
	}
	if r.Percentage < 1 || r.Percentage > 100 {
		return Validationf("percentage must be between 1 and 100")
	}
	if err := r.TargetType.Validate(); err != nil {
		return err
	}
	if r.TargetID <= 0 {
		return Validationf("target_id is required")
	}
	return nil
}
