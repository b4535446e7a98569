package fee

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/student"
)

var march2025 = Scope{Month: "March", Year: 2025}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newStudent(id, roll, fee string) student.Student {
	return student.Student{
		ID:               id,
		FullName:         "Student " + id,
		FatherName:       "Father " + id,
		Phone:            "98765432" + fmt.Sprintf("%02d", len(id)),
		ClassLevel:       "Class 1",
		Status:           student.StatusActive,
		MonthlyFeeAmount: dec(fee),
		AcademicYear:     "2024-2025",
		RollNumber:       roll,
	}
}

func newPayment(id, studentID, status, amount string) Payment {
	p := Payment{
		ID:            id,
		StudentID:     studentID,
		FeeType:       TypeMonthly,
		MonthName:     march2025.Month,
		Year:          march2025.Year,
		Amount:        dec(amount),
		PaymentStatus: status,
		PaymentMode:   ModeCash,
	}
	if status == StatusPaid || status == StatusPartial {
		p.PaymentDate = null.TimeFrom(time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC))
	}
	return p
}

func withPartial(p Payment, partial string) Payment {
	p.PartialAmount = decimal.NewNullDecimal(dec(partial))
	return p
}

func withPeriod(p Payment, month string, year int) Payment {
	p.MonthName = month
	p.Year = year
	return p
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestReconcile_examples(t *testing.T) {
	s := newStudent("s", "1", "1000")
	tt := newStudent("t", "2", "1200")
	payments := []Payment{withPartial(newPayment("p1", "s", StatusPartial, "1000"), "400")}

	ledger, err := Reconcile([]student.Student{s, tt}, payments, march2025)
	require.NoError(t, err)
	require.Len(t, ledger.Entries, 2)

	t.Run("partial", func(t *testing.T) {
		e := ledger.Entries[0]
		assert.Equal(t, "s", e.Student.ID)
		assert.Equal(t, EntryPartial, e.Status)
		assertDecimal(t, "600", e.Owed)
		assertDecimal(t, "400", e.Collected)
		assertDecimal(t, "1000", e.Billed)
		require.NotNil(t, e.Payment)
		assert.Equal(t, "p1", e.Payment.ID)
	})

	t.Run("not recorded", func(t *testing.T) {
		e := ledger.Entries[1]
		assert.Equal(t, "t", e.Student.ID)
		assert.Equal(t, EntryNotRecorded, e.Status)
		assertDecimal(t, "1200", e.Owed)
		assertDecimal(t, "0", e.Collected)
		assert.Nil(t, e.Payment)
	})

	t.Run("totals", func(t *testing.T) {
		tot := ledger.Totals
		assert.Equal(t, 2, tot.Students)
		assertDecimal(t, "400", tot.Collected)
		assertDecimal(t, "600", tot.Pending)
		assertDecimal(t, "1200", tot.NotRecorded)
		assertDecimal(t, "1800", tot.Outstanding)
		assert.Equal(t, Counts{Partial: 1, NotRecorded: 1}, tot.Counts)
		assert.Zero(t, tot.Orphaned.Count)
	})
}

func TestReconcile_invalidPartial(t *testing.T) {
	students := []student.Student{newStudent("s", "1", "1000")}

	tests := []struct {
		name    string
		partial string
	}{
		{name: "greater than amount", partial: "1500"},
		{name: "equal to amount", partial: "1000"},
		{name: "negative", partial: "-1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payments := []Payment{withPartial(newPayment("p1", "s", StatusPartial, "1000"), tc.partial)}
			ledger, err := Reconcile(students, payments, march2025)
			assert.Nil(t, ledger)

			ierr, ok := core.AsIntegrityError(err)
			require.True(t, ok, "want *core.IntegrityError, got %v", err)
			require.Len(t, ierr.Issues, 1)
			assert.Equal(t, core.KindDataIntegrity, ierr.Issues[0].Kind)
			assert.Equal(t, []string{"p1"}, ierr.Issues[0].PaymentIDs)
		})
	}

	t.Run("zero partial is valid", func(t *testing.T) {
		payments := []Payment{withPartial(newPayment("p1", "s", StatusPartial, "1000"), "0")}
		ledger, err := Reconcile(students, payments, march2025)
		require.NoError(t, err)
		assertDecimal(t, "1000", ledger.Entries[0].Owed)
	})
}

func TestReconcile_duplicates(t *testing.T) {
	students := []student.Student{newStudent("s", "1", "1000"), newStudent("u", "2", "1000")}
	payments := []Payment{
		newPayment("p1", "s", StatusPaid, "1000"),
		newPayment("p2", "s", StatusPending, "1000"),
		newPayment("p3", "u", StatusPaid, "1000"),
		withPartial(newPayment("p4", "u", StatusPartial, "1000"), "2000"),
	}

	ledger, err := Reconcile(students, payments, march2025)
	assert.Nil(t, ledger)
	ierr, ok := core.AsIntegrityError(err)
	require.True(t, ok)

	assert.True(t, ierr.HasKind(core.KindIntegrityViolation))
	assert.True(t, ierr.HasKind(core.KindDataIntegrity))

	var dupIDs [][]string
	for _, iss := range ierr.Issues {
		if iss.Kind == core.KindIntegrityViolation {
			dupIDs = append(dupIDs, iss.PaymentIDs)
		}
	}
	assert.ElementsMatch(t, [][]string{{"p1", "p2"}, {"p3", "p4"}}, dupIDs)
}

func TestReconcile_orphans(t *testing.T) {
	students := []student.Student{newStudent("s", "1", "1000")}
	payments := []Payment{
		newPayment("p1", "s", StatusPaid, "1000"),
		newPayment("p2", "ghost", StatusPaid, "800"),
		withPartial(newPayment("p3", "ghost2", StatusPartial, "1000"), "300"),
	}

	ledger, err := Reconcile(students, payments, march2025)
	require.NoError(t, err)
	require.Len(t, ledger.Entries, 1)
	assert.Equal(t, "s", ledger.Entries[0].Student.ID)

	require.Len(t, ledger.Orphans, 2)
	require.Len(t, ledger.Issues, 2)
	for _, iss := range ledger.Issues {
		assert.Equal(t, core.KindOrphaned, iss.Kind)
	}

	// orphans are flagged apart, never folded into the roster totals
	assertDecimal(t, "1000", ledger.Totals.Collected)
	assert.Equal(t, 2, ledger.Totals.Orphaned.Count)
	assertDecimal(t, "1100", ledger.Totals.Orphaned.Collected)
	assertDecimal(t, "700", ledger.Totals.Orphaned.Pending)
}

func TestReconcile_scope(t *testing.T) {
	left := newStudent("l", "3", "1000")
	left.Status = student.StatusLeft
	students := []student.Student{newStudent("s", "1", "1000"), left}

	admission := newPayment("p2", "s", StatusPaid, "5000")
	admission.FeeType = TypeAdmission
	payments := []Payment{
		withPeriod(newPayment("p1", "s", StatusPaid, "1000"), "April", 2025),
		admission,
		withPeriod(newPayment("p3", "s", StatusPaid, "1000"), "March", 2024),
		newPayment("p4", "l", StatusPaid, "1000"), // inactive student: known, not an orphan
	}

	ledger, err := Reconcile(students, payments, march2025)
	require.NoError(t, err)
	require.Len(t, ledger.Entries, 1)
	assert.Equal(t, EntryNotRecorded, ledger.Entries[0].Status)
	assert.Empty(t, ledger.Orphans)
}

func TestReconcile_unknownMonth(t *testing.T) {
	_, err := Reconcile(nil, nil, Scope{Month: "Smarch", Year: 2025})
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestReconcile_properties(t *testing.T) {
	students := []student.Student{
		newStudent("a", "1", "1000"),
		newStudent("b", "2", "1200"),
		newStudent("c", "3", "900"),
		newStudent("d", "4", "1500"),
		newStudent("e", "5", "700"),
	}
	payments := []Payment{
		newPayment("p1", "a", StatusPaid, "1000"),
		withPartial(newPayment("p2", "b", StatusPartial, "1100"), "250.50"),
		newPayment("p3", "c", StatusPending, "950"), // row amount differs from the student's fee
		newPayment("p4", "d", StatusPaid, "1500"),
	}

	t.Run("owed plus collected equals billed", func(t *testing.T) {
		ledger, err := Reconcile(students, payments, march2025)
		require.NoError(t, err)
		for _, e := range ledger.Entries {
			want := e.Student.MonthlyFeeAmount
			if e.Payment != nil {
				want = e.Payment.Amount
			}
			assert.True(t, e.Owed.Add(e.Collected).Equal(want), "entry %s", e.Student.ID)
			assert.True(t, e.Billed.Equal(want), "entry %s", e.Student.ID)
			assert.False(t, e.Owed.IsNegative(), "entry %s", e.Student.ID)
		}
	})

	t.Run("pending rows use their own amount", func(t *testing.T) {
		ledger, err := Reconcile(students, payments, march2025)
		require.NoError(t, err)
		assertDecimal(t, "950", ledger.Entries[2].Owed)
	})

	t.Run("collected plus rows pending equals rows billed", func(t *testing.T) {
		ledger, err := Reconcile(students, payments, march2025)
		require.NoError(t, err)
		rowsTotal := decimal.Zero
		for _, p := range payments {
			rowsTotal = rowsTotal.Add(p.Amount)
		}
		assert.True(t, ledger.Totals.Collected.Add(ledger.Totals.Pending).Equal(rowsTotal))
		assert.True(t, ledger.Totals.Outstanding.Equal(ledger.Totals.Pending.Add(ledger.Totals.NotRecorded)))
	})

	t.Run("no payments", func(t *testing.T) {
		ledger, err := Reconcile(students, nil, march2025)
		require.NoError(t, err)
		require.Len(t, ledger.Entries, len(students))
		for i, e := range ledger.Entries {
			assert.Equal(t, students[i].ID, e.Student.ID, "roster order")
			assert.Equal(t, EntryNotRecorded, e.Status)
			assert.True(t, e.Owed.Equal(students[i].MonthlyFeeAmount))
		}
		assert.Equal(t, len(students), ledger.Totals.Counts.NotRecorded)
	})

	t.Run("strict partition", func(t *testing.T) {
		ledger, err := Reconcile(students, payments, march2025)
		require.NoError(t, err)
		c := ledger.Totals.Counts
		assert.Equal(t, len(students), c.Paid+c.Partial+c.Pending+c.NotRecorded)
		assert.Equal(t, Counts{Paid: 2, Partial: 1, Pending: 1, NotRecorded: 1}, c)
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := Reconcile(students, payments, march2025)
		require.NoError(t, err)
		second, err := Reconcile(students, payments, march2025)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestPendingDues(t *testing.T) {
	left := newStudent("l", "9", "1000")
	left.Status = student.StatusLeft
	students := []student.Student{
		newStudent("a", "10", "1000"),
		newStudent("b", "2", "1000"),
		newStudent("c", "1", "1000"),
		newStudent("d", "3", "1000"),
		left,
	}
	payments := []Payment{
		// a: 1000 + 600 = 1600
		withPeriod(newPayment("p1", "a", StatusPending, "1000"), "April", 2025),
		withPartial(withPeriod(newPayment("p2", "a", StatusPartial, "1000"), "January", 2025), "400"),
		// b: 500, tie with c
		withPeriod(newPayment("p3", "b", StatusPending, "500"), "May", 2025),
		// c: 500
		withPartial(withPeriod(newPayment("p4", "c", StatusPartial, "1000"), "June", 2025), "500"),
		// d: paid only
		withPeriod(newPayment("p5", "d", StatusPaid, "1000"), "April", 2025),
		// other year
		withPeriod(newPayment("p6", "d", StatusPending, "1000"), "April", 2024),
		// inactive
		withPeriod(newPayment("p7", "l", StatusPending, "1000"), "April", 2025),
		// orphan
		withPeriod(newPayment("p8", "ghost", StatusPending, "1000"), "April", 2025),
	}

	report, err := PendingDues(students, payments, 2025)
	require.NoError(t, err)

	ids := make([]string, 0, len(report.Students))
	for _, d := range report.Students {
		ids = append(ids, d.Student.ID)
	}
	// highest first; ties by roll number (numeric aware): "1" before "2"
	assert.Equal(t, []string{"a", "c", "b"}, ids)

	a := report.Students[0]
	assertDecimal(t, "1600", a.TotalPending)
	assert.Equal(t, 2, a.PendingMonths)
	assert.Equal(t, "January", a.Payments[0].MonthName, "payments in period order")
	assertDecimal(t, "2600", report.Total)

	require.Len(t, report.Orphans, 1)
	assert.Equal(t, "p8", report.Orphans[0].ID)

	t.Run("all years", func(t *testing.T) {
		report, err := PendingDues(students, payments, 0)
		require.NoError(t, err)
		var dIncluded bool
		for _, d := range report.Students {
			if d.Student.ID == "d" {
				dIncluded = true
				assertDecimal(t, "1000", d.TotalPending)
			}
		}
		assert.True(t, dIncluded)
	})

	t.Run("integrity", func(t *testing.T) {
		dup := append([]Payment{}, payments...)
		dup = append(dup, withPeriod(newPayment("p9", "a", StatusPaid, "1000"), "April", 2025))
		_, err := PendingDues(students, dup, 2025)
		ierr, ok := core.AsIntegrityError(err)
		require.True(t, ok)
		assert.True(t, ierr.HasKind(core.KindIntegrityViolation))
	})
}

func TestBuildStudentYear(t *testing.T) {
	s := newStudent("s", "1", "1000")
	admission := withPeriod(newPayment("adm", "s", StatusPaid, "5000"), "April", 2025)
	admission.FeeType = TypeAdmission
	payments := []Payment{
		withPeriod(newPayment("p1", "s", StatusPaid, "1000"), "January", 2025),
		withPartial(withPeriod(newPayment("p2", "s", StatusPartial, "1000"), "February", 2025), "250"),
		withPeriod(newPayment("p3", "s", StatusPending, "1000"), "March", 2025),
		withPeriod(newPayment("p4", "s", StatusPaid, "1000"), "January", 2024),
		withPeriod(newPayment("p5", "other", StatusPaid, "1000"), "January", 2025),
		admission,
	}

	sy, err := BuildStudentYear(s, payments, 2025)
	require.NoError(t, err)
	require.Len(t, sy.Months, 12)
	assert.Equal(t, "January", sy.Months[0].Month)
	assert.Equal(t, "December", sy.Months[11].Month)

	assert.Equal(t, EntryPaid, sy.Months[0].Status)
	assert.Equal(t, EntryPartial, sy.Months[1].Status)
	assert.Equal(t, EntryPending, sy.Months[2].Status)
	assert.Equal(t, EntryNotRecorded, sy.Months[3].Status)

	assertDecimal(t, "12000", sy.Totals.Due)
	assertDecimal(t, "1250", sy.Totals.Paid)
	assertDecimal(t, "1750", sy.Totals.Pending)
	assertDecimal(t, "9000", sy.Totals.NotRecorded)
	assertDecimal(t, "10750", sy.Totals.Outstanding)
	assert.Equal(t, Counts{Paid: 1, Partial: 1, Pending: 1, NotRecorded: 9}, sy.Totals.Counts)
	assert.Len(t, sy.History, 4, "every fee type of the year, this student only")

	t.Run("invalid row", func(t *testing.T) {
		bad := append([]Payment{}, payments...)
		bad[1] = withPartial(bad[1], "1200")
		_, err := BuildStudentYear(s, bad, 2025)
		ierr, ok := core.AsIntegrityError(err)
		require.True(t, ok)
		assert.True(t, ierr.HasKind(core.KindDataIntegrity))
	})
}

func TestPayment_check(t *testing.T) {
	tests := []struct {
		name    string
		payment Payment
		wantErr bool
	}{
		{name: "valid", payment: newPayment("p", "s", StatusPaid, "1000")},
		{name: "unknown status", payment: newPayment("p", "s", "refunded", "1000"), wantErr: true},
		{name: "unknown month", payment: withPeriod(newPayment("p", "s", StatusPaid, "1000"), "Smarch", 2025), wantErr: true},
		{name: "negative amount", payment: newPayment("p", "s", StatusPending, "-5"), wantErr: true},
		{name: "lowercase month", payment: withPeriod(newPayment("p", "s", StatusPaid, "1000"), "march", 2025)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			issues := tc.payment.check()
			if tc.wantErr {
				assert.NotEmpty(t, issues)
			} else {
				assert.Empty(t, issues)
			}
		})
	}
}
