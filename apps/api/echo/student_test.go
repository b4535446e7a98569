package echoapi_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/fee"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/testutil"
)

func assertAmount(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, decimal.NewFromInt(want).Equal(got), append([]interface{}{"want %d, got %s", want, got}, msgAndArgs...)...)
}

func Test_studentApi_query(t *testing.T) {
	f := setup(t)
	s10 := testutil.CreateStudent(t, f.studentRepo, "10", 1000)
	s2 := testutil.CreateStudent(t, f.studentRepo, "2", 1500, testutil.WithClass("Class 2"), testutil.WithPhone("+919812345678"))
	s1 := testutil.CreateStudent(t, f.studentRepo, "1", 1000, testutil.WithStatus(student.StatusLeft))

	path := func(params map[string]string) string {
		v := make(url.Values)
		for k, val := range params {
			v.Add(k, val)
		}
		return "/v1/students?" + v.Encode()
	}
	ids := func(students []student.Student) []string {
		res := make([]string, 0, len(students))
		for _, s := range students {
			res = append(res, s.ID)
		}
		return res
	}

	tests := []struct {
		name   string
		params map[string]string
		want   []string
	}{
		{name: "all, by roll number", params: nil, want: []string{s1.ID, s2.ID, s10.ID}},
		{name: "class", params: map[string]string{"class": "Class 2"}, want: []string{s2.ID}},
		{name: "class=all", params: map[string]string{"class": "all"}, want: []string{s1.ID, s2.ID, s10.ID}},
		{name: "status", params: map[string]string{"status": "LEFT"}, want: []string{s1.ID}},
		{name: "search father name", params: map[string]string{"search": "father 10"}, want: []string{s10.ID}},
		{name: "search phone", params: map[string]string{"search": "98123"}, want: []string{s2.ID}},
		{name: "search (unknown)", params: map[string]string{"search": "lol"}, want: []string{}},
		{name: "ordering", params: map[string]string{"ordering": "-monthly_fee_amount,full_name"}, want: []string{s2.ID, s1.ID, s10.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, path(tt.params), f.adminToken)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var got []student.Student
			unmarshal(t, rec, &got)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	runHTTPTests(t, f.app, []httpTest{
		{name: "statuses", path: "/v1/students/statuses", token: f.adminToken, wantData: marchallObj(t, student.Statuses)},
		{name: "retrieve", path: "/v1/students/" + s2.ID, token: f.adminToken, wantData: marchallObj(t, s2)},
		{
			name: "retrieve (unknown)", path: "/v1/students/" + uuid.New().String(), token: f.adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
	})
}

func Test_studentApi_create(t *testing.T) {
	f := setup(t)
	testutil.CreateStudent(t, f.studentRepo, "7", 1000)

	newStudent := func(roll, phone string) []byte {
		return marchallObj(t, map[string]interface{}{
			"full_name":   " Ahmed Khan ",
			"father_name": "Yusuf Khan",
			"phone":       phone,
			"class_level": "Class 3",
			"roll_number": roll,
		})
	}

	runHTTPTests(t, f.app, []httpTest{
		{
			name: "Invalid phone", method: http.MethodPost, path: "/v1/students", token: f.adminToken, body: newStudent("8", "123"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"phone": "invalid phone number"}),
		},
		{
			name: "Roll number taken", method: http.MethodPost, path: "/v1/students", token: f.adminToken, body: newStudent("7", "9876543210"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"roll_number": student.ErrRollNumberExists.Error()}),
		},
	})

	t.Run("Required fields", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/students", f.adminToken, []byte(`{}`))
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var errs map[string]string
		unmarshal(t, rec, &errs)
		for _, fld := range []string{"full_name", "father_name", "phone", "class_level", "roll_number"} {
			assert.Equal(t, "this field is required", errs[fld], fld)
		}
	})

	t.Run("Created with defaults", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/students", f.adminToken, newStudent("8", "9876543210"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var s student.Student
		unmarshal(t, rec, &s)
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, "Ahmed Khan", s.FullName)
		assert.Equal(t, student.StatusActive, s.Status)
		assert.Equal(t, core.AcademicYearOf(time.Now()), s.AcademicYear)
		assertAmount(t, 1000, s.MonthlyFeeAmount) // institute default
		assert.False(t, s.Email.Valid)
	})
}

func Test_studentApi_updateAndDelete(t *testing.T) {
	f := setup(t)
	s1 := testutil.CreateStudent(t, f.studentRepo, "1", 1000)
	s2 := testutil.CreateStudent(t, f.studentRepo, "2", 1000)
	testutil.CreatePayment(t, f.feeRepo, testutil.Payment(s1.ID, "January", 2025, fee.StatusPaid, 1000, 0))

	runHTTPTests(t, f.app, []httpTest{
		{
			name: "Roll number taken", method: http.MethodPut, path: "/v1/students/" + s2.ID, token: f.adminToken, body: []byte(`{"roll_number": "1"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"roll_number": student.ErrRollNumberExists.Error()}),
		},
		{
			name: "Cannot delete with payments", method: http.MethodDelete, path: "/v1/students/" + s1.ID, token: f.adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: student.ErrHasPayments.Error()}),
		},
		{
			name: "Delete unknown", method: http.MethodDelete, path: "/v1/students/" + uuid.New().String(), token: f.adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
	})

	t.Run("Updated", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/v1/students/"+s1.ID, f.adminToken, []byte(`{"status": "left", "monthly_fee_amount": 1200, "email": "Parent@Mail.test"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var s student.Student
		unmarshal(t, rec, &s)
		assert.Equal(t, s1.FullName, s.FullName)
		assert.Equal(t, student.StatusLeft, s.Status)
		assert.Equal(t, "parent@mail.test", s.Email.String)
		assertAmount(t, 1200, s.MonthlyFeeAmount)
	})

	t.Run("Deleted", func(t *testing.T) {
		rec := f.do(http.MethodDelete, "/v1/students/"+s2.ID, f.adminToken)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = f.do(http.MethodGet, "/v1/students/"+s2.ID, f.adminToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_studentApi_fees(t *testing.T) {
	f := setup(t)
	s := testutil.CreateStudent(t, f.studentRepo, "1", 1000)
	testutil.CreatePayment(t, f.feeRepo, testutil.Payment(s.ID, "January", 2025, fee.StatusPaid, 1000, 0))
	testutil.CreatePayment(t, f.feeRepo, testutil.Payment(s.ID, "February", 2025, fee.StatusPartial, 1000, 400))
	testutil.CreatePayment(t, f.feeRepo, testutil.Payment(s.ID, "March", 2025, fee.StatusPending, 1000, 0))
	testutil.CreatePayment(t, f.feeRepo, testutil.Payment(s.ID, "March", 2024, fee.StatusPaid, 1000, 0))

	runHTTPTests(t, f.app, []httpTest{
		{
			name: "Invalid year", path: "/v1/students/" + s.ID + "/fees?year=lol", token: f.adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"year": "must be a number"}),
		},
		{
			name: "Unknown student", path: "/v1/students/" + uuid.New().String() + "/fees", token: f.adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
	})

	t.Run("Current year by default", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/students/"+s.ID+"/fees", f.adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var sy fee.StudentYear
		unmarshal(t, rec, &sy)
		assert.Equal(t, 2025, sy.Year)
		require.Len(t, sy.Months, 12)
		assert.Equal(t, fee.EntryPaid, sy.Months[0].Status)
		assert.Equal(t, fee.EntryPartial, sy.Months[1].Status)
		assert.Equal(t, fee.EntryPending, sy.Months[2].Status)
		assert.Equal(t, fee.EntryNotRecorded, sy.Months[3].Status)
		assert.Len(t, sy.History, 3)

		assertAmount(t, 12000, sy.Totals.Due)
		assertAmount(t, 1400, sy.Totals.Paid)
		assertAmount(t, 1600, sy.Totals.Pending)
		assertAmount(t, 9000, sy.Totals.NotRecorded)
		assertAmount(t, 10600, sy.Totals.Outstanding)
		assert.Equal(t, fee.Counts{Paid: 1, Partial: 1, Pending: 1, NotRecorded: 9}, sy.Totals.Counts)
	})

	t.Run("Other year", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/students/"+s.ID+"/fees?year=2024", f.adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var sy fee.StudentYear
		unmarshal(t, rec, &sy)
		assert.Equal(t, 2024, sy.Year)
		assert.Len(t, sy.History, 1)
		assertAmount(t, 1000, sy.Totals.Paid)
		assertAmount(t, 11000, sy.Totals.Outstanding)
	})
}
