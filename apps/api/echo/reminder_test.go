package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/madrasa/core/fee"
	"github.com/trezcool/madrasa/core/reminder"
	emailsvc "github.com/trezcool/madrasa/services/email"
	"github.com/trezcool/madrasa/testutil"
)

func Test_reminderApi_send(t *testing.T) {
	f := setup(t)
	withEmail := testutil.CreateStudent(t, f.studentRepo, "1", 1000, testutil.WithEmail("parent1@mail.test"))
	noEmail := testutil.CreateStudent(t, f.studentRepo, "2", 1500)
	upToDate := testutil.CreateStudent(t, f.studentRepo, "3", 1000)
	testutil.CreatePayment(t, f.feeRepo, testutil.Payment(withEmail.ID, "February", 2025, fee.StatusPending, 1000, 0))
	testutil.CreatePayment(t, f.feeRepo, testutil.Payment(noEmail.ID, "February", 2025, fee.StatusPartial, 1500, 1000))
	testutil.CreatePayment(t, f.feeRepo, testutil.Payment(upToDate.ID, "February", 2025, fee.StatusPaid, 1000, 0))

	send := func(t *testing.T, body string) reminder.Result {
		rec := f.do(http.MethodPost, "/v1/reminders/send", f.adminToken, []byte(body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res reminder.Result
		unmarshal(t, rec, &res)
		return res
	}

	t.Run("SMS to every student with dues", func(t *testing.T) {
		res := send(t, `{"reminder_type": "SMS"}`)
		assert.Equal(t, 2, res.Sent)
		assert.Equal(t, 0, res.Failed)
		require.Len(t, res.Reminders, 2)

		// highest dues first
		assert.Equal(t, withEmail.ID, res.Reminders[0].StudentID)
		assert.Equal(t, withEmail.Phone, res.Reminders[0].SentTo)
		assert.Contains(t, res.Reminders[0].Message, "₹1000 is pending for Student 1 (Roll: 1)")
		assert.Contains(t, res.Reminders[0].Message, "Al-Noor Madrasa Administration")
		assert.Contains(t, res.Reminders[1].Message, "₹500 is pending for Student 2")
		assert.Contains(t, f.logger.Lines, "INFO: sms reminder to "+withEmail.Phone)
	})

	t.Run("Both channels to selected students", func(t *testing.T) {
		res := send(t, `{"reminder_type": "both", "student_ids": ["`+noEmail.ID+`", "`+upToDate.ID+`"], "message": "Pay {amount} for {name}"}`)
		assert.Equal(t, 2, res.Sent)
		assert.Equal(t, []string{upToDate.ID}, res.Skipped)
		require.Len(t, res.Reminders, 2)
		assert.Equal(t, reminder.ChannelSMS, res.Reminders[0].ReminderType)
		assert.Equal(t, reminder.ChannelWhatsApp, res.Reminders[1].ReminderType)
		assert.Equal(t, "Pay 500 for Student 2", res.Reminders[0].Message)
	})

	t.Run("Email is disabled by default", func(t *testing.T) {
		res := send(t, `{"reminder_type": "email"}`)
		assert.Equal(t, 0, res.Sent)
		assert.Equal(t, 2, res.Failed)
		for _, r := range res.Reminders {
			assert.Equal(t, reminder.StatusFailed, r.Status)
		}
		assert.Empty(t, emailsvc.SentMessages())
	})

	t.Run("Email once enabled", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/v1/reminders/settings", f.adminToken, []byte(`{"email_enabled": true}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		res := send(t, `{"reminder_type": "email"}`)
		assert.Equal(t, 1, res.Sent)
		assert.Equal(t, 1, res.Failed) // no email address
		assert.Equal(t, "parent1@mail.test", res.Reminders[0].SentTo)
		assert.Equal(t, reminder.StatusFailed, res.Reminders[1].Status)

		msgs := emailsvc.SentMessages()
		require.Len(t, msgs, 1)
		assert.Equal(t, "Fee reminder for Student 1", msgs[0].Subject)
		assert.Equal(t, "parent1@mail.test", msgs[0].To[0].Address)
	})

	t.Run("Recent", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/reminders", f.adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var reminders []reminder.Reminder
		unmarshal(t, rec, &reminders)
		assert.Len(t, reminders, 8)

		rec = f.do(http.MethodGet, "/v1/reminders?limit=3", f.adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
		unmarshal(t, rec, &reminders)
		assert.Len(t, reminders, 3)
	})

	runHTTPTests(t, f.app, []httpTest{
		{
			name: "Reminder type required", method: http.MethodPost, path: "/v1/reminders/send", token: f.adminToken,
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"reminder_type": "this field is required"}),
		},
		{
			name: "Unknown reminder type", method: http.MethodPost, path: "/v1/reminders/send", token: f.adminToken,
			body: []byte(`{"reminder_type": "pigeon"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "Invalid limit", path: "/v1/reminders?limit=all", token: f.adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"limit": "must be a number"}),
		},
	})
}

func Test_reminderApi_settings(t *testing.T) {
	f := setup(t)

	t.Run("Defaults", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/reminders/settings", f.adminToken)
		require.Equal(t, http.StatusOK, rec.Code)

		var s reminder.Settings
		unmarshal(t, rec, &s)
		assert.Equal(t, reminder.FrequencyMonthly, s.ReminderFrequency)
		assert.Equal(t, 5, s.ReminderDay)
		assert.True(t, s.SMSEnabled)
		assert.False(t, s.EmailEnabled)
		assert.Equal(t, reminder.DefaultMessage, s.MessageTemplate)
	})

	t.Run("Partial update", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/v1/reminders/settings", f.adminToken, []byte(`{"reminder_frequency": "Weekly", "reminder_day": 2}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = f.do(http.MethodGet, "/v1/reminders/settings", f.adminToken)
		var s reminder.Settings
		unmarshal(t, rec, &s)
		assert.Equal(t, reminder.FrequencyWeekly, s.ReminderFrequency)
		assert.Equal(t, 2, s.ReminderDay)
		assert.True(t, s.SMSEnabled)
		assert.Equal(t, reminder.DefaultMessage, s.MessageTemplate)
	})

	runHTTPTests(t, f.app, []httpTest{
		{
			name: "Invalid day", method: http.MethodPut, path: "/v1/reminders/settings", token: f.adminToken,
			body: []byte(`{"reminder_day": 31}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "Invalid frequency", method: http.MethodPut, path: "/v1/reminders/settings", token: f.adminToken,
			body: []byte(`{"reminder_frequency": "daily"}`), wantCode: http.StatusBadRequest,
		},
		{name: "Requires auth", path: "/v1/reminders/settings", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
	})
}
