package fee

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/madrasa/core/student"
)

func registerFixture(t *testing.T) *Ledger {
	t.Helper()
	a := newStudent("a", "1", "1000")
	b := newStudent("b", "2", "1000")
	b.FullName = "Bilal, Jr"
	c := newStudent("c", "3", "1200")
	c.ClassLevel = "Class 2"
	d := newStudent("d", "4", "900")
	d.Phone = "9123400000"

	payments := []Payment{
		newPayment("p1", "a", StatusPaid, "1000"),
		withPartial(newPayment("p2", "b", StatusPartial, "1000"), "400"),
		newPayment("p3", "d", StatusPending, "900"),
	}
	ledger, err := Reconcile([]student.Student{a, b, c, d}, payments, march2025)
	require.NoError(t, err)
	return ledger
}

func TestNewRegister_filters(t *testing.T) {
	ledger := registerFixture(t)

	tests := []struct {
		name   string
		filter RegisterFilter
		want   []string
	}{
		{name: "no filter", filter: RegisterFilter{}, want: []string{"a", "b", "c", "d"}},
		{name: "all", filter: RegisterFilter{ClassLevel: "all", Status: "all"}, want: []string{"a", "b", "c", "d"}},
		{name: "class", filter: RegisterFilter{ClassLevel: "Class 2"}, want: []string{"c"}},
		{name: "paid", filter: RegisterFilter{Status: "paid"}, want: []string{"a"}},
		{name: "partial", filter: RegisterFilter{Status: "Partial"}, want: []string{"b"}},
		{name: "pending matches not recorded", filter: RegisterFilter{Status: "pending"}, want: []string{"c", "d"}},
		{name: "search name", filter: RegisterFilter{Search: "bilal"}, want: []string{"b"}},
		{name: "search father", filter: RegisterFilter{Search: "FATHER C"}, want: []string{"c"}},
		{name: "search phone", filter: RegisterFilter{Search: "91234"}, want: []string{"d"}},
		{name: "no match", filter: RegisterFilter{Search: "zzz"}, want: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg := NewRegister(ledger, tc.filter)
			ids := make([]string, 0, len(reg.Entries))
			for _, e := range reg.Entries {
				ids = append(ids, e.Student.ID)
			}
			assert.Equal(t, tc.want, ids)
			assert.Equal(t, len(tc.want), reg.Totals.Students)
		})
	}

	t.Run("totals follow the filter", func(t *testing.T) {
		reg := NewRegister(ledger, RegisterFilter{Status: "pending"})
		assertDecimal(t, "0", reg.Totals.Collected)
		assertDecimal(t, "900", reg.Totals.Pending)
		assertDecimal(t, "1200", reg.Totals.NotRecorded)
		assertDecimal(t, "2100", reg.Totals.Outstanding)

		full := NewRegister(ledger, RegisterFilter{})
		assertDecimal(t, "1400", full.Totals.Collected)
		assertDecimal(t, "2700", full.Totals.Outstanding)
		assert.Len(t, ledger.Entries, 4, "source ledger is untouched")
	})
}

func TestRegister_WriteCSV(t *testing.T) {
	reg := NewRegister(registerFixture(t), RegisterFilter{})

	var buf bytes.Buffer
	require.NoError(t, reg.WriteCSV(&buf))

	want := "Monthly Fee Register - March 2025\n" +
		"\n" +
		"Roll #,Student Name,Father Name,Phone,Class,Fee Amount,Status,Amount Paid,Payment Date\n" +
		"1,Student a,Father a,9876543201,Class 1,1000,paid,1000,2025-03-05\n" +
		"2,\"Bilal, Jr\",Father b,9876543201,Class 1,1000,partial,400,2025-03-05\n" +
		"3,Student c,Father c,9876543201,Class 2,1200,Not Recorded,0,\n" +
		"4,Student d,Father d,9123400000,Class 1,900,pending,0,\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, "fee-register-March-2025.csv", reg.Filename("csv"))
}

func TestRegister_WriteXLSX(t *testing.T) {
	reg := NewRegister(registerFixture(t), RegisterFilter{})

	var buf bytes.Buffer
	require.NoError(t, reg.WriteXLSX(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	//goland:noinspection GoUnhandledErrorResult
	defer f.Close()

	assert.Equal(t, []string{"March"}, f.GetSheetList())

	cell := func(axis string) string {
		v, err := f.GetCellValue("March", axis)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Monthly Fee Register - March 2025", cell("A1"))
	assert.Equal(t, "Roll #", cell("A3"))
	assert.Equal(t, "Payment Date", cell("I3"))
	assert.Equal(t, "1", cell("A4"))
	assert.Equal(t, "Bilal, Jr", cell("B5"))
	assert.Equal(t, "Not Recorded", cell("G6"))
	assert.Equal(t, "Total Collected", cell("A9"))
	assert.Equal(t, "1400", cell("H9"))
	assert.Equal(t, "Total Outstanding", cell("A10"))
	assert.Equal(t, "2700", cell("H10"))
}
