package fee

import (
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
)

// Fee types
const (
	TypeMonthly   = "monthly"
	TypeAdmission = "admission"
	TypeOther     = "other"
)

// Payment statuses
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
	StatusPartial = "partial"
)

// Payment modes
const (
	ModeCash         = "cash"
	ModeOnline       = "online"
	ModeCheque       = "cheque"
	ModeBankTransfer = "bank_transfer"
)

var (
	FeeTypes = []Choice{
		{Name: "Monthly Fee", Value: TypeMonthly},
		{Name: "Admission Fee", Value: TypeAdmission},
		{Name: "Other", Value: TypeOther},
	}
	PaymentStatuses = []Choice{
		{Name: "Paid", Value: StatusPaid},
		{Name: "Pending", Value: StatusPending},
		{Name: "Partial", Value: StatusPartial},
	}
	PaymentModes = []Choice{
		{Name: "Cash", Value: ModeCash},
		{Name: "Online", Value: ModeOnline},
		{Name: "Cheque", Value: ModeCheque},
		{Name: "Bank Transfer", Value: ModeBankTransfer},
	}
)

type Choice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func validChoice(choices []Choice, val string) bool {
	for _, c := range choices {
		if c.Value == val {
			return true
		}
	}
	return false
}

// Payment is one fee ledger row.
// (StudentID, FeeType, MonthName, Year) is unique: one row per student per billing period.
type Payment struct {
	ID            string              `json:"id" db:"id"`
	StudentID     string              `json:"student_id" db:"student_id"`
	FeeType       string              `json:"fee_type" db:"fee_type"`
	MonthName     string              `json:"month_name" db:"month_name"`
	Year          int                 `json:"year" db:"year"`
	Amount        decimal.Decimal     `json:"amount" db:"amount"` // billed amount
	PaymentStatus string              `json:"payment_status" db:"payment_status"`
	PartialAmount decimal.NullDecimal `json:"partial_amount" db:"partial_amount"` // only set when partial
	PaymentDate   null.Time           `json:"payment_date" db:"payment_date"`
	PaymentMode   string              `json:"payment_mode" db:"payment_mode"`
	Remarks       null.String         `json:"remarks" db:"remarks"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" db:"updated_at"`
}

// Key identifies the billing period of a Payment.
type Key struct {
	StudentID string
	FeeType   string
	MonthName string
	Year      int
}

func (p Payment) Key() Key {
	month, _ := core.NormalizeMonth(p.MonthName)
	return Key{StudentID: p.StudentID, FeeType: p.FeeType, MonthName: month, Year: p.Year}
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s %d", k.StudentID, k.FeeType, k.MonthName, k.Year)
}

// partial returns the partially paid amount, zero when unset.
func (p Payment) partial() decimal.Decimal {
	if p.PartialAmount.Valid {
		return p.PartialAmount.Decimal
	}
	return decimal.Zero
}

// AmountPaid is what was actually collected for this row.
func (p Payment) AmountPaid() decimal.Decimal {
	switch p.PaymentStatus {
	case StatusPaid:
		return p.Amount
	case StatusPartial:
		return p.partial()
	}
	return decimal.Zero
}

// check maps a stored row to the invariants the ledger relies on.
// Rows are checked at the boundary and rejected, never clamped.
func (p Payment) check() []core.IntegrityIssue {
	var issues []core.IntegrityIssue
	report := func(format string, args ...interface{}) {
		issues = append(issues, core.IntegrityIssue{
			Kind:       core.KindDataIntegrity,
			StudentID:  p.StudentID,
			PaymentIDs: []string{p.ID},
			Message:    fmt.Sprintf(format, args...),
		})
	}

	if !validChoice(PaymentStatuses, p.PaymentStatus) {
		report("payment %s has unknown status %q", p.ID, p.PaymentStatus)
	}
	if !validChoice(FeeTypes, p.FeeType) {
		report("payment %s has unknown fee type %q", p.ID, p.FeeType)
	}
	if core.MonthIndex(p.MonthName) == 0 {
		report("payment %s has unknown month %q", p.ID, p.MonthName)
	}
	if p.Amount.IsNegative() {
		report("payment %s has a negative amount (%s)", p.ID, p.Amount)
	}
	if p.PaymentStatus == StatusPartial {
		partial := p.partial()
		if partial.IsNegative() || partial.GreaterThanOrEqual(p.Amount) {
			report("payment %s has partial amount %s outside [0, %s)", p.ID, partial, p.Amount)
		}
	}
	return issues
}

// NewPayment contains information needed to record a payment.
// Amount defaults to the student's monthly fee.
type NewPayment struct {
	StudentID     string           `json:"student_id" validate:"required"`
	FeeType       string           `json:"fee_type" validate:"omitempty,oneof=monthly admission other"`
	MonthName     string           `json:"month_name" validate:"required,month"`
	Year          int              `json:"year" validate:"required,gte=2000,lte=2100"`
	Amount        *decimal.Decimal `json:"amount" validate:"omitempty,gte=0"`
	PaymentStatus string           `json:"payment_status" validate:"omitempty,oneof=paid pending partial"`
	PartialAmount *decimal.Decimal `json:"partial_amount" validate:"omitempty,gte=0"`
	PaymentDate   *time.Time       `json:"payment_date"`
	PaymentMode   string           `json:"payment_mode" validate:"omitempty,oneof=cash online cheque bank_transfer"`
	Remarks       string           `json:"remarks" validate:"max=500"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.StudentID = core.CleanString(np.StudentID)
	np.FeeType = core.CleanString(np.FeeType, true /* lower */)
	np.PaymentStatus = core.CleanString(np.PaymentStatus, true /* lower */)
	np.PaymentMode = core.CleanString(np.PaymentMode, true /* lower */)
	np.Remarks = core.CleanString(np.Remarks)
	if m, ok := core.NormalizeMonth(np.MonthName); ok {
		np.MonthName = m
	}
	return validate.Struct(np)
}

// UpdatePayment defines what may change on a recorded payment. The billing period cannot change.
type UpdatePayment struct {
	Amount        *decimal.Decimal `json:"amount" validate:"omitempty,gte=0"`
	PaymentStatus string           `json:"payment_status" validate:"omitempty,oneof=paid pending partial"`
	PartialAmount *decimal.Decimal `json:"partial_amount" validate:"omitempty,gte=0"`
	PaymentDate   *time.Time       `json:"payment_date"`
	PaymentMode   string           `json:"payment_mode" validate:"omitempty,oneof=cash online cheque bank_transfer"`
	Remarks       *string          `json:"remarks" validate:"omitempty,max=500"`
}

func (up *UpdatePayment) Validate(validate *validator.Validate) error {
	up.PaymentStatus = core.CleanString(up.PaymentStatus, true /* lower */)
	up.PaymentMode = core.CleanString(up.PaymentMode, true /* lower */)
	return validate.Struct(up)
}

// checkPartial enforces 0 <= partial_amount < amount on partial payments.
func checkPartial(p Payment) error {
	if p.PaymentStatus != StatusPartial {
		return nil
	}
	if !p.PartialAmount.Valid {
		return core.NewValidationError(nil, core.FieldError{Field: "partial_amount", Error: "this field is required"})
	}
	if p.PartialAmount.Decimal.IsNegative() || p.PartialAmount.Decimal.GreaterThanOrEqual(p.Amount) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "partial_amount",
			Error: fmt.Sprintf("partial amount must be at least 0 and less than the amount (%s)", p.Amount),
		})
	}
	return nil
}

// PaymentFilter narrows QueryPayments. Zero values are ignored.
type PaymentFilter struct {
	StudentIDs []string
	FeeType    string
	MonthName  string
	Year       int
	Statuses   []string
	Ordering   []core.DBOrdering
	Limit      int
}

// Match reports whether p passes the filter.
func (pf PaymentFilter) Match(p Payment) bool {
	if len(pf.StudentIDs) > 0 && !contains(pf.StudentIDs, p.StudentID) {
		return false
	}
	if pf.FeeType != "" && p.FeeType != pf.FeeType {
		return false
	}
	if pf.MonthName != "" && core.MonthIndex(p.MonthName) != core.MonthIndex(pf.MonthName) {
		return false
	}
	if pf.Year != 0 && p.Year != pf.Year {
		return false
	}
	if len(pf.Statuses) > 0 && !contains(pf.Statuses, p.PaymentStatus) {
		return false
	}
	return true
}

func contains(vals []string, val string) bool {
	for _, v := range vals {
		if v == val {
			return true
		}
	}
	return false
}

// InitValidators registers the fee validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(monthTag, monthValidation)
	core.RegisterCustomTranslation(validate, translator, monthTag, monthText)
}

var (
	monthTag  = "month"
	monthText = "invalid month name"
)

func monthValidation(fl validator.FieldLevel) bool {
	return core.MonthIndex(fl.Field().String()) > 0
}
