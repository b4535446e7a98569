package fee

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/student"
)

var (
	// errors
	ErrNotFound = errors.New("payment not found")

	// OrderingFields maps ordering query fields to their columns.
	OrderingFields = map[string]string{
		"year":         "year",
		"month_name":   "month_name",
		"amount":       "amount",
		"payment_date": "payment_date",
		"created_at":   "created_at",
	}
)

const dashboardListSize = 5

type (
	Repository interface {
		// UpsertPayment inserts p or, when a row with the same Key exists, overwrites it in place.
		UpsertPayment(ctx context.Context, p Payment) (Payment, error)
		GetPayment(ctx context.Context, id string) (Payment, error)
		UpdatePayment(ctx context.Context, p Payment) (Payment, error)
		DeletePayment(ctx context.Context, id string) error
		// QueryPayments applies AND operation on the set PaymentFilter fields (see PaymentFilter.Match).
		QueryPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error)
		StudentHasPayments(ctx context.Context, studentID string) (bool, error)
	}

	// Students is the part of student.Service the fee ledger reads from.
	Students interface {
		Get(id string) (student.Student, error)
		Roster(ctx context.Context) ([]student.Student, error)
	}

	// RecentPayment is a payment with the name of its student.
	RecentPayment struct {
		Payment
		StudentName string `json:"student_name"`
		RollNumber  string `json:"roll_number"`
	}

	Dashboard struct {
		TotalStudents  int    `json:"total_students"`
		ActiveStudents int    `json:"active_students"`
		Month          Scope  `json:"month"`
		ThisMonth      Totals `json:"this_month"`
		// TotalPending is the current month outstanding (recorded pending + not recorded).
		TotalPending      decimal.Decimal `json:"total_pending"`
		CollectedThisYear decimal.Decimal `json:"total_collected_this_year"`
		// DuesPending only counts recorded pending/partial rows of the year.
		DuesPending      decimal.Decimal `json:"dues_pending"`
		PendingReminders int             `json:"pending_reminders"`
		RecentPayments   []RecentPayment `json:"recent_payments"`
		TopDues          []StudentDues   `json:"top_dues"`
	}

	Service interface {
		Record(np NewPayment) (Payment, error)
		Get(id string) (Payment, error)
		Update(orig Payment, up UpdatePayment) (Payment, error)
		Delete(id string) error
		// History lists the payments of a student for the year, newest first.
		History(studentID string, year int) ([]Payment, error)

		Ledger(ctx context.Context, sc Scope) (*Ledger, error)
		Register(ctx context.Context, sc Scope, filter RegisterFilter) (*Register, error)
		StudentYear(ctx context.Context, studentID string, year int) (*StudentYear, error)
		PendingDues(ctx context.Context, year int, classLevel string) (*DuesReport, error)
		Recent(ctx context.Context, limit int) ([]RecentPayment, error)
		Dashboard(ctx context.Context, now time.Time) (*Dashboard, error)
	}

	service struct {
		repo     Repository
		students Students
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, students Students) Service {
	return &service{repo: repo, students: students}
}

func (svc *service) Record(np NewPayment) (Payment, error) {
	s, err := svc.students.Get(np.StudentID)
	if err != nil {
		if errors.Is(err, student.ErrNotFound) {
			return Payment{}, core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return Payment{}, err
	}

	now := time.Now().UTC()
	p := Payment{
		ID:            uuid.New().String(),
		StudentID:     s.ID,
		FeeType:       np.FeeType,
		MonthName:     np.MonthName,
		Year:          np.Year,
		Amount:        s.MonthlyFeeAmount,
		PaymentStatus: np.PaymentStatus,
		PaymentMode:   np.PaymentMode,
		Remarks:       null.NewString(np.Remarks, np.Remarks != ""),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if p.FeeType == "" {
		p.FeeType = TypeMonthly
	}
	if p.PaymentStatus == "" {
		p.PaymentStatus = StatusPaid
	}
	if p.PaymentMode == "" {
		p.PaymentMode = ModeCash
	}
	if np.Amount != nil {
		p.Amount = *np.Amount
	}
	if p.PaymentStatus == StatusPartial && np.PartialAmount != nil {
		p.PartialAmount = decimal.NewNullDecimal(*np.PartialAmount)
	}
	switch {
	case np.PaymentDate != nil:
		p.PaymentDate = null.TimeFrom(np.PaymentDate.UTC())
	case p.PaymentStatus != StatusPending:
		p.PaymentDate = null.TimeFrom(now.Truncate(24 * time.Hour))
	}

	if err := checkPartial(p); err != nil {
		return Payment{}, err
	}
	return svc.repo.UpsertPayment(context.Background(), p)
}

func (svc *service) Get(id string) (Payment, error) {
	return svc.repo.GetPayment(context.Background(), id)
}

func (svc *service) Update(orig Payment, up UpdatePayment) (Payment, error) {
	p := orig
	if up.Amount != nil {
		p.Amount = *up.Amount
	}
	if up.PaymentStatus != "" {
		p.PaymentStatus = up.PaymentStatus
	}
	if up.PartialAmount != nil {
		p.PartialAmount = decimal.NewNullDecimal(*up.PartialAmount)
	}
	if p.PaymentStatus != StatusPartial {
		p.PartialAmount = decimal.NullDecimal{}
	}
	if up.PaymentDate != nil {
		p.PaymentDate = null.TimeFrom(up.PaymentDate.UTC())
	}
	if up.PaymentMode != "" {
		p.PaymentMode = up.PaymentMode
	}
	if up.Remarks != nil {
		remarks := strings.TrimSpace(*up.Remarks)
		p.Remarks = null.NewString(remarks, remarks != "")
	}

	if err := checkPartial(p); err != nil {
		return Payment{}, err
	}
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePayment(context.Background(), p)
}

func (svc *service) Delete(id string) error {
	return svc.repo.DeletePayment(context.Background(), id)
}

func (svc *service) History(studentID string, year int) ([]Payment, error) {
	return svc.repo.QueryPayments(context.Background(), PaymentFilter{
		StudentIDs: []string{studentID},
		Year:       year,
		Ordering:   []core.DBOrdering{{Field: "created_at"}},
	})
}

func (svc *service) Ledger(ctx context.Context, sc Scope) (*Ledger, error) {
	roster, err := svc.students.Roster(ctx)
	if err != nil {
		return nil, err
	}
	// the month is scoped by Reconcile, which tolerates rows spelled "march" or "March "
	payments, err := svc.repo.QueryPayments(ctx, PaymentFilter{FeeType: TypeMonthly, Year: sc.Year})
	if err != nil {
		return nil, err
	}
	return Reconcile(roster, payments, sc)
}

func (svc *service) Register(ctx context.Context, sc Scope, filter RegisterFilter) (*Register, error) {
	ledger, err := svc.Ledger(ctx, sc)
	if err != nil {
		return nil, err
	}
	return NewRegister(ledger, filter), nil
}

func (svc *service) StudentYear(ctx context.Context, studentID string, year int) (*StudentYear, error) {
	s, err := svc.students.Get(studentID)
	if err != nil {
		return nil, err
	}
	payments, err := svc.repo.QueryPayments(ctx, PaymentFilter{
		StudentIDs: []string{s.ID},
		Year:       year,
		Ordering:   []core.DBOrdering{{Field: "created_at"}},
	})
	if err != nil {
		return nil, err
	}
	return BuildStudentYear(s, payments, year)
}

func (svc *service) PendingDues(ctx context.Context, year int, classLevel string) (*DuesReport, error) {
	roster, err := svc.students.Roster(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := svc.repo.QueryPayments(ctx, PaymentFilter{Year: year})
	if err != nil {
		return nil, err
	}
	report, err := PendingDues(roster, payments, year)
	if err != nil {
		return nil, err
	}

	if classLevel = core.CleanString(classLevel); classLevel != "" && classLevel != "all" {
		filtered := report.Students[:0]
		report.Total = decimal.Zero
		for _, d := range report.Students {
			if d.Student.ClassLevel == classLevel {
				filtered = append(filtered, d)
				report.Total = report.Total.Add(d.TotalPending)
			}
		}
		report.Students = filtered
	}
	return report, nil
}

func (svc *service) Recent(ctx context.Context, limit int) ([]RecentPayment, error) {
	roster, err := svc.students.Roster(ctx)
	if err != nil {
		return nil, err
	}
	return svc.recent(ctx, roster, limit)
}

func (svc *service) recent(ctx context.Context, roster []student.Student, limit int) ([]RecentPayment, error) {
	payments, err := svc.repo.QueryPayments(ctx, PaymentFilter{
		Statuses: []string{StatusPaid},
		Ordering: []core.DBOrdering{{Field: "payment_date"}, {Field: "created_at"}},
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	names := make(map[string]student.Student, len(roster))
	for _, s := range roster {
		names[s.ID] = s
	}
	recent := make([]RecentPayment, 0, len(payments))
	for _, p := range payments {
		s := names[p.StudentID]
		recent = append(recent, RecentPayment{Payment: p, StudentName: s.FullName, RollNumber: s.RollNumber})
	}
	return recent, nil
}

// Dashboard reports the institute at a glance for the month and year of now.
func (svc *service) Dashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	roster, err := svc.students.Roster(ctx)
	if err != nil {
		return nil, err
	}
	sc := Scope{Month: core.MonthName(now.Month()), Year: now.Year()}
	payments, err := svc.repo.QueryPayments(ctx, PaymentFilter{Year: sc.Year})
	if err != nil {
		return nil, err
	}

	ledger, err := Reconcile(roster, payments, sc)
	if err != nil {
		return nil, err
	}
	dues, err := PendingDues(roster, payments, sc.Year)
	if err != nil {
		return nil, err
	}
	recent, err := svc.recent(ctx, roster, dashboardListSize)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		TotalStudents:    len(roster),
		Month:            sc,
		ThisMonth:        ledger.Totals,
		TotalPending:     ledger.Totals.Outstanding,
		DuesPending:      dues.Total,
		PendingReminders: len(dues.Students),
		RecentPayments:   recent,
		TopDues:          dues.Students,
	}
	if len(d.TopDues) > dashboardListSize {
		d.TopDues = d.TopDues[:dashboardListSize]
	}

	known := make(map[string]bool, len(roster))
	for _, s := range roster {
		known[s.ID] = true
		if s.IsActive() {
			d.ActiveStudents++
		}
	}
	for _, p := range payments {
		if known[p.StudentID] {
			d.CollectedThisYear = d.CollectedThisYear.Add(p.AmountPaid())
		}
	}
	return d, nil
}
