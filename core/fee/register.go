package fee

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/madrasa/core"
)

const dateLayout = "2006-01-02"

// RegisterFilter narrows a monthly register. Zero values (and "all") match everything.
type RegisterFilter struct {
	ClassLevel string `query:"class"`
	Status     string `query:"status"` // all|paid|partial|pending; pending also matches not_recorded
	Search     string `query:"search"` // full name, father name or phone
}

func (rf *RegisterFilter) Clean() {
	rf.ClassLevel = core.CleanString(rf.ClassLevel)
	rf.Status = core.CleanString(rf.Status, true /* lower */)
	rf.Search = core.CleanString(rf.Search)
	if rf.ClassLevel == "all" {
		rf.ClassLevel = ""
	}
	if rf.Status == "all" {
		rf.Status = ""
	}
}

// Match reports whether e passes the filter.
func (rf RegisterFilter) Match(e LedgerEntry) bool {
	if rf.ClassLevel != "" && e.Student.ClassLevel != rf.ClassLevel {
		return false
	}
	switch rf.Status {
	case "":
	case EntryPending:
		if e.Status != EntryPending && e.Status != EntryNotRecorded {
			return false
		}
	default:
		if e.Status != rf.Status {
			return false
		}
	}
	if rf.Search != "" {
		s := e.Student
		return core.ContainsFold(s.FullName, rf.Search) ||
			core.ContainsFold(s.FatherName, rf.Search) ||
			core.ContainsFold(s.Phone, rf.Search)
	}
	return true
}

// Register is the monthly fee register: a filtered Ledger.
type Register struct {
	*Ledger
	Filter RegisterFilter `json:"filter"`
}

// NewRegister filters the ledger entries (keeping roster order) and recomputes the totals on them.
func NewRegister(l *Ledger, filter RegisterFilter) *Register {
	filter.Clean()
	filtered := &Ledger{
		Scope:   l.Scope,
		Entries: make([]LedgerEntry, 0, len(l.Entries)),
		Orphans: l.Orphans,
		Issues:  l.Issues,
	}
	for _, e := range l.Entries {
		if filter.Match(e) {
			filtered.Entries = append(filtered.Entries, e)
		}
	}
	filtered.Totals = Summarize(filtered.Entries, l.Totals.Orphaned)
	return &Register{Ledger: filtered, Filter: filter}
}

// Title is the heading of the exported register.
func (r *Register) Title() string {
	return fmt.Sprintf("Monthly Fee Register - %s %d", r.Scope.Month, r.Scope.Year)
}

// Filename is the suggested download name, for the given extension.
func (r *Register) Filename(ext string) string {
	return fmt.Sprintf("fee-register-%s-%d.%s", r.Scope.Month, r.Scope.Year, ext)
}

var registerHeader = []string{
	"Roll #", "Student Name", "Father Name", "Phone", "Class", "Fee Amount", "Status", "Amount Paid", "Payment Date",
}

// statusLabel is the human readable status of an entry.
func statusLabel(e LedgerEntry) string {
	if e.Payment == nil {
		return "Not Recorded"
	}
	return e.Payment.PaymentStatus
}

func paymentDate(e LedgerEntry) string {
	if e.Payment == nil || !e.Payment.PaymentDate.Valid {
		return ""
	}
	return e.Payment.PaymentDate.Time.Format(dateLayout)
}

func amountPaid(e LedgerEntry) decimal.Decimal {
	if e.Payment == nil {
		return decimal.Zero
	}
	return e.Payment.AmountPaid()
}

func (r *Register) rows() [][]string {
	rows := make([][]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		s := e.Student
		rows = append(rows, []string{
			s.RollNumber,
			s.FullName,
			s.FatherName,
			s.Phone,
			s.ClassLevel,
			s.MonthlyFeeAmount.String(),
			statusLabel(e),
			amountPaid(e).String(),
			paymentDate(e),
		})
	}
	return rows
}

// WriteCSV writes the register as CSV: a title line, a blank line, the header and one row per entry.
func (r *Register) WriteCSV(w io.Writer) error {
	records := [][]string{{r.Title()}, {""}, registerHeader}
	return csv.NewWriter(w).WriteAll(append(records, r.rows()...))
}

// WriteXLSX writes the register as a spreadsheet, on a sheet named after the month, followed by a totals row.
func (r *Register) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	//goland:noinspection GoUnhandledErrorResult
	defer f.Close()

	sheet := r.Scope.Month
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	setRow := func(rowNo int, values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNo)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	if err := setRow(1, []interface{}{r.Title()}); err != nil {
		return err
	}
	header := make([]interface{}, 0, len(registerHeader))
	for _, h := range registerHeader {
		header = append(header, h)
	}
	if err := setRow(3, header); err != nil {
		return err
	}

	rowNo := 4
	for _, e := range r.Entries {
		s := e.Student
		fee, _ := s.MonthlyFeeAmount.Float64()
		paid, _ := amountPaid(e).Float64()
		values := []interface{}{
			s.RollNumber, s.FullName, s.FatherName, s.Phone, s.ClassLevel, fee, statusLabel(e), paid, paymentDate(e),
		}
		if err := setRow(rowNo, values); err != nil {
			return err
		}
		rowNo++
	}

	collected, _ := r.Totals.Collected.Float64()
	outstanding, _ := r.Totals.Outstanding.Float64()
	totals := [][]interface{}{
		{"Total Collected", fmt.Sprintf("%d students", r.Totals.Students), "", "", "", "", "", collected},
		{"Total Outstanding", "", "", "", "", "", "", outstanding},
	}
	for i, values := range totals {
		if err := setRow(rowNo+1+i, values); err != nil {
			return err
		}
	}
	return f.Write(w)
}
