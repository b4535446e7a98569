package fee

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/student"
)

// Ledger entry statuses. not_recorded is derived: the student has no row for the period.
const (
	EntryPaid        = StatusPaid
	EntryPartial     = StatusPartial
	EntryPending     = StatusPending
	EntryNotRecorded = "not_recorded"
)

// Scope is the billing period a monthly ledger is computed for.
type Scope struct {
	Month string `json:"month"`
	Year  int    `json:"year"`
}

func (sc Scope) String() string {
	return fmt.Sprintf("%s %d", sc.Month, sc.Year)
}

// LedgerEntry is the reconciled state of one active student for a Scope.
// Owed + Collected == Billed always holds.
type LedgerEntry struct {
	Student   student.Student `json:"student"`
	Status    string          `json:"status"`
	Billed    decimal.Decimal `json:"billed"`
	Collected decimal.Decimal `json:"collected"`
	Owed      decimal.Decimal `json:"owed"`
	Payment   *Payment        `json:"payment"`
}

// Counts holds the number of entries per status label.
type Counts struct {
	Paid        int `json:"paid"`
	Partial     int `json:"partial"`
	Pending     int `json:"pending"`
	NotRecorded int `json:"not_recorded"`
}

// OrphanTotals summarises payment rows whose student does not exist.
type OrphanTotals struct {
	Count     int             `json:"count"`
	Collected decimal.Decimal `json:"collected"`
	Pending   decimal.Decimal `json:"pending"`
}

// Totals is the single summary shape reported by every fee view.
//   - Pending only counts recorded pending/partial rows.
//   - NotRecorded is the fee owed by active students without a row.
//   - Outstanding = Pending + NotRecorded; it is the "total pending" headline.
type Totals struct {
	Students    int             `json:"total_students"`
	Collected   decimal.Decimal `json:"collected"`
	Pending     decimal.Decimal `json:"pending"`
	NotRecorded decimal.Decimal `json:"not_recorded"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Counts      Counts          `json:"counts"`
	Orphaned    OrphanTotals    `json:"orphaned"`
}

// Ledger is the outcome of reconciling a roster against the payment rows of a Scope.
type Ledger struct {
	Scope   Scope                 `json:"scope"`
	Entries []LedgerEntry         `json:"entries"`
	Totals  Totals                `json:"totals"`
	Orphans []Payment             `json:"orphans"`
	Issues  []core.IntegrityIssue `json:"issues"` // non fatal issues (orphans)
}

// classify derives the status and amounts of a billing period.
// fee is billed when no row exists.
func classify(p *Payment, fee decimal.Decimal) (status string, billed, collected, owed decimal.Decimal) {
	if p == nil {
		return EntryNotRecorded, fee, decimal.Zero, fee
	}
	billed = p.Amount
	switch p.PaymentStatus {
	case StatusPaid:
		return EntryPaid, billed, billed, decimal.Zero
	case StatusPartial:
		collected = p.partial()
		return EntryPartial, billed, collected, billed.Sub(collected)
	}
	return EntryPending, billed, decimal.Zero, billed
}

func newEntry(s student.Student, p *Payment) LedgerEntry {
	status, billed, collected, owed := classify(p, s.MonthlyFeeAmount)
	return LedgerEntry{
		Student:   s,
		Status:    status,
		Billed:    billed,
		Collected: collected,
		Owed:      owed,
		Payment:   p,
	}
}

// add accumulates one entry into t.
func (t *Totals) add(e LedgerEntry) {
	t.Students++
	t.Collected = t.Collected.Add(e.Collected)
	switch e.Status {
	case EntryPaid:
		t.Counts.Paid++
	case EntryPartial:
		t.Counts.Partial++
		t.Pending = t.Pending.Add(e.Owed)
	case EntryPending:
		t.Counts.Pending++
		t.Pending = t.Pending.Add(e.Owed)
	case EntryNotRecorded:
		t.Counts.NotRecorded++
		t.NotRecorded = t.NotRecorded.Add(e.Owed)
	}
	t.Outstanding = t.Pending.Add(t.NotRecorded)
}

func (t *Totals) addOrphan(p Payment) {
	_, _, collected, owed := classify(&p, decimal.Zero)
	t.Orphaned.Count++
	t.Orphaned.Collected = t.Orphaned.Collected.Add(collected)
	t.Orphaned.Pending = t.Orphaned.Pending.Add(owed)
}

// Summarize computes the Totals of entries. Orphans are carried over unchanged.
func Summarize(entries []LedgerEntry, orphaned OrphanTotals) Totals {
	t := Totals{Orphaned: orphaned}
	for _, e := range entries {
		t.add(e)
	}
	return t
}

// rowSet indexes validated payment rows by their key.
type rowSet struct {
	byKey  map[Key]*Payment
	fatal  []core.IntegrityIssue
	orphan []core.IntegrityIssue
}

// indexRows validates rows and indexes them by Key.
// Rows sharing a Key are reported as integrity violations, invalid rows as data integrity issues.
func indexRows(rows []Payment) rowSet {
	set := rowSet{byKey: make(map[Key]*Payment, len(rows))}
	dups := make(map[Key][]string)
	var dupOrder []Key

	for i := range rows {
		p := &rows[i]
		set.fatal = append(set.fatal, p.check()...)

		key := p.Key()
		if prev, ok := set.byKey[key]; ok {
			if _, seen := dups[key]; !seen {
				dups[key] = []string{prev.ID}
				dupOrder = append(dupOrder, key)
			}
			dups[key] = append(dups[key], p.ID)
			continue
		}
		set.byKey[key] = p
	}

	for _, key := range dupOrder {
		set.fatal = append(set.fatal, core.IntegrityIssue{
			Kind:       core.KindIntegrityViolation,
			StudentID:  key.StudentID,
			PaymentIDs: dups[key],
			Message:    fmt.Sprintf("%d payment rows recorded for %s", len(dups[key]), key),
		})
	}
	return set
}

func orphanIssue(p Payment) core.IntegrityIssue {
	return core.IntegrityIssue{
		Kind:       core.KindOrphaned,
		StudentID:  p.StudentID,
		PaymentIDs: []string{p.ID},
		Message:    fmt.Sprintf("payment %s references unknown student %s", p.ID, p.StudentID),
	}
}

func inScope(p Payment, sc Scope) bool {
	return p.FeeType == TypeMonthly && p.Year == sc.Year && core.MonthIndex(p.MonthName) == core.MonthIndex(sc.Month)
}

// Reconcile joins the active students of the roster with the monthly payment rows of the scope.
//
// Every active student gets exactly one entry, in roster order. Payments outside the scope are ignored.
// Payments whose student is not in the roster are orphans: they are reported on the Ledger,
// never attributed to an entry. Duplicate keys and invalid rows fail the whole reconciliation
// with a *core.IntegrityError listing every issue found.
func Reconcile(students []student.Student, payments []Payment, sc Scope) (*Ledger, error) {
	month, ok := core.NormalizeMonth(sc.Month)
	if !ok {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "month", Error: "invalid month name"})
	}
	sc.Month = month

	var scoped []Payment
	for _, p := range payments {
		if inScope(p, sc) {
			scoped = append(scoped, p)
		}
	}
	rows := indexRows(scoped)

	known := make(map[string]bool, len(students))
	for _, s := range students {
		known[s.ID] = true
	}

	ledger := &Ledger{Scope: sc, Entries: make([]LedgerEntry, 0, len(students))}
	for _, p := range scoped {
		if !known[p.StudentID] {
			ledger.Orphans = append(ledger.Orphans, p)
			ledger.Issues = append(ledger.Issues, orphanIssue(p))
			ledger.Totals.addOrphan(p)
		}
	}

	if len(rows.fatal) > 0 {
		return nil, core.NewIntegrityError(append(rows.fatal, ledger.Issues...)...)
	}

	for _, s := range students {
		if !s.IsActive() {
			continue
		}
		p := rows.byKey[Key{StudentID: s.ID, FeeType: TypeMonthly, MonthName: sc.Month, Year: sc.Year}]
		e := newEntry(s, p)
		ledger.Entries = append(ledger.Entries, e)
		ledger.Totals.add(e)
	}
	return ledger, nil
}

// StudentDues is the outstanding recorded dues of one student.
type StudentDues struct {
	Student       student.Student `json:"student"`
	Payments      []Payment       `json:"payments"`
	PendingMonths int             `json:"pending_months"`
	TotalPending  decimal.Decimal `json:"total_pending"`
}

// DuesReport ranks students by their recorded outstanding dues.
type DuesReport struct {
	Year     int                   `json:"year"`
	Students []StudentDues         `json:"students"`
	Total    decimal.Decimal       `json:"total_pending"`
	Orphans  []Payment             `json:"orphans"`
	Issues   []core.IntegrityIssue `json:"issues"`
}

// PendingDues collects the pending and partial rows of every active student for the year
// (all years when year is 0). Only recorded rows count: missing months are not dues.
// Students owing nothing are left out. The rest are sorted by total pending (highest first),
// then roll number and id.
func PendingDues(students []student.Student, payments []Payment, year int) (*DuesReport, error) {
	var scoped []Payment
	for _, p := range payments {
		if year == 0 || p.Year == year {
			scoped = append(scoped, p)
		}
	}
	rows := indexRows(scoped)

	roster := make(map[string]student.Student, len(students))
	for _, s := range students {
		roster[s.ID] = s
	}

	report := &DuesReport{Year: year, Students: make([]StudentDues, 0)}
	perStudent := make(map[string][]Payment)
	for _, p := range scoped {
		s, ok := roster[p.StudentID]
		if !ok {
			report.Orphans = append(report.Orphans, p)
			report.Issues = append(report.Issues, orphanIssue(p))
			continue
		}
		if !s.IsActive() || (p.PaymentStatus != StatusPending && p.PaymentStatus != StatusPartial) {
			continue
		}
		perStudent[p.StudentID] = append(perStudent[p.StudentID], p)
	}

	if len(rows.fatal) > 0 {
		return nil, core.NewIntegrityError(append(rows.fatal, report.Issues...)...)
	}

	for _, s := range students {
		due := StudentDues{Student: s, Payments: perStudent[s.ID]}
		for i := range due.Payments {
			_, _, _, owed := classify(&due.Payments[i], decimal.Zero)
			due.TotalPending = due.TotalPending.Add(owed)
		}
		if !due.TotalPending.IsPositive() {
			continue
		}
		due.PendingMonths = len(due.Payments)
		sortByPeriod(due.Payments)
		report.Students = append(report.Students, due)
		report.Total = report.Total.Add(due.TotalPending)
	}

	sort.SliceStable(report.Students, func(i, j int) bool {
		a, b := report.Students[i], report.Students[j]
		if c := a.TotalPending.Cmp(b.TotalPending); c != 0 {
			return c > 0
		}
		if c := student.CompareRollNumbers(a.Student.RollNumber, b.Student.RollNumber); c != 0 {
			return c < 0
		}
		return a.Student.ID < b.Student.ID
	})
	return report, nil
}

// sortByPeriod orders payments chronologically.
func sortByPeriod(payments []Payment) {
	sort.SliceStable(payments, func(i, j int) bool {
		a, b := payments[i], payments[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return core.MonthIndex(a.MonthName) < core.MonthIndex(b.MonthName)
	})
}

// MonthEntry is the reconciled state of one month of a student's year.
type MonthEntry struct {
	Month     string          `json:"month"`
	Status    string          `json:"status"`
	Billed    decimal.Decimal `json:"billed"`
	Collected decimal.Decimal `json:"collected"`
	Owed      decimal.Decimal `json:"owed"`
	Payment   *Payment        `json:"payment"`
}

// YearTotals summarises a student's year. Due is the sum billed over the 12 months.
type YearTotals struct {
	Due         decimal.Decimal `json:"total_due"`
	Paid        decimal.Decimal `json:"total_paid"`
	Pending     decimal.Decimal `json:"total_pending"`
	NotRecorded decimal.Decimal `json:"not_recorded"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Counts      Counts          `json:"counts"`
}

// StudentYear is the 12-month fee picture of one student.
type StudentYear struct {
	Student student.Student `json:"student"`
	Year    int             `json:"year"`
	Months  []MonthEntry    `json:"months"`
	Totals  YearTotals      `json:"totals"`
	History []Payment       `json:"history"` // every row of the year, all fee types
}

// BuildStudentYear reconciles one student's monthly rows for the year, January to December.
// Months without a row are billed the student's current monthly fee.
func BuildStudentYear(s student.Student, payments []Payment, year int) (*StudentYear, error) {
	var history []Payment
	for _, p := range payments {
		if p.StudentID == s.ID && p.Year == year {
			history = append(history, p)
		}
	}
	rows := indexRows(history)
	if len(rows.fatal) > 0 {
		return nil, core.NewIntegrityError(rows.fatal...)
	}

	sy := &StudentYear{Student: s, Year: year, Months: make([]MonthEntry, 0, len(core.Months)), History: history}
	if sy.History == nil {
		sy.History = make([]Payment, 0)
	}
	for _, month := range core.Months {
		p := rows.byKey[Key{StudentID: s.ID, FeeType: TypeMonthly, MonthName: month, Year: year}]
		status, billed, collected, owed := classify(p, s.MonthlyFeeAmount)
		sy.Months = append(sy.Months, MonthEntry{
			Month:     month,
			Status:    status,
			Billed:    billed,
			Collected: collected,
			Owed:      owed,
			Payment:   p,
		})

		t := &sy.Totals
		t.Due = t.Due.Add(billed)
		t.Paid = t.Paid.Add(collected)
		switch status {
		case EntryPaid:
			t.Counts.Paid++
		case EntryPartial:
			t.Counts.Partial++
			t.Pending = t.Pending.Add(owed)
		case EntryPending:
			t.Counts.Pending++
			t.Pending = t.Pending.Add(owed)
		case EntryNotRecorded:
			t.Counts.NotRecorded++
			t.NotRecorded = t.NotRecorded.Add(owed)
		}
		t.Outstanding = t.Pending.Add(t.NotRecorded)
	}
	return sy, nil
}
