package reminder_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/madrasa/core/fee"
	"github.com/trezcool/madrasa/core/reminder"
	"github.com/trezcool/madrasa/core/student"
	emailsvc "github.com/trezcool/madrasa/services/email"
	"github.com/trezcool/madrasa/services/notify"
	inmemdb "github.com/trezcool/madrasa/storage/database/inmem"
	"github.com/trezcool/madrasa/testutil"
)

var now = time.Date(2025, time.March, 5, 9, 0, 0, 0, time.UTC)

type fixture struct {
	ctx         context.Context
	studentRepo student.Repository
	feeRepo     fee.Repository
	repo        reminder.Repository
	logger      *testutil.Logger
	svc         reminder.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := inmemdb.Open()
	conf := testutil.Config()
	logger := &testutil.Logger{}
	studentRepo := inmemdb.NewStudentRepository(db)
	feeRepo := inmemdb.NewFeeRepository(db)
	repo := inmemdb.NewReminderRepository(db)
	students := student.NewService(studentRepo, feeRepo, conf)
	channels := notify.Channels(emailsvc.NewConsoleServiceMock(conf, logger), logger, conf)
	return &fixture{
		ctx:         context.Background(),
		studentRepo: studentRepo,
		feeRepo:     feeRepo,
		repo:        repo,
		logger:      logger,
		svc:         reminder.NewService(repo, fee.NewService(feeRepo, students), channels, conf, logger),
	}
}

func TestCompose(t *testing.T) {
	s := student.Student{FullName: "Student 1", RollNumber: "7"}
	tests := []struct {
		name   string
		amount decimal.Decimal
		want   string
	}{
		{"whole amount", decimal.NewFromInt(1500), "₹1500 due for Student 1 (7) at Al-Noor"},
		{"fractional amount", decimal.RequireFromString("1500.5"), "₹1500.50 due for Student 1 (7) at Al-Noor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reminder.Compose("₹{amount} due for {name} ({roll}) at {institute}", s, tt.amount, "Al-Noor")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettings_DueToday(t *testing.T) {
	tests := []struct {
		name     string
		settings reminder.Settings
		now      time.Time
		want     bool
	}{
		{"monthly on day", reminder.Settings{ReminderFrequency: reminder.FrequencyMonthly, ReminderDay: 5}, now, true},
		{"monthly off day", reminder.Settings{ReminderFrequency: reminder.FrequencyMonthly, ReminderDay: 6}, now, false},
		// 2025-03-05 is a Wednesday
		{"weekly on weekday", reminder.Settings{ReminderFrequency: reminder.FrequencyWeekly, ReminderDay: 3}, now, true},
		{"weekly wraps to sunday", reminder.Settings{ReminderFrequency: reminder.FrequencyWeekly, ReminderDay: 7}, now.AddDate(0, 0, 4), true},
		{"manual never runs", reminder.Settings{ReminderFrequency: reminder.FrequencyManual, ReminderDay: 5}, now, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settings.DueToday(tt.now))
		})
	}
}

func TestService_Settings(t *testing.T) {
	f := setup(t)

	s, err := f.svc.Settings(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, reminder.DefaultSettings(), s)

	day := 10
	email := true
	tmpl := "  {name} owes {amount}  "
	saved, err := f.svc.SaveSettings(f.ctx, reminder.UpdateSettings{
		ReminderFrequency: reminder.FrequencyWeekly,
		ReminderDay:       &day,
		EmailEnabled:      &email,
		MessageTemplate:   &tmpl,
	})
	require.NoError(t, err)
	assert.Equal(t, reminder.FrequencyWeekly, saved.ReminderFrequency)
	assert.Equal(t, 10, saved.ReminderDay)
	assert.True(t, saved.SMSEnabled, "untouched fields keep their value")
	assert.True(t, saved.EmailEnabled)
	assert.Equal(t, "{name} owes {amount}", saved.MessageTemplate)
	assert.False(t, saved.UpdatedAt.IsZero())

	got, err := f.svc.Settings(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestService_Send(t *testing.T) {
	f := setup(t)
	s1 := testutil.CreateStudent(t, f.studentRepo, "1", 1000, testutil.WithEmail("father1@madrasa.test"))
	s2 := testutil.CreateStudent(t, f.studentRepo, "2", 1000, testutil.WithPhone(""))
	s3 := testutil.CreateStudent(t, f.studentRepo, "3", 1000)

	testutil.CreatePayment(t, f.feeRepo, testutil.Payment(s1.ID, "January", 2025, fee.StatusPending, 1000, 0))
	testutil.CreatePayment(t, f.feeRepo, testutil.Payment(s2.ID, "February", 2025, fee.StatusPartial, 1000, 250))
	testutil.CreatePayment(t, f.feeRepo, testutil.Payment(s3.ID, "January", 2025, fee.StatusPaid, 1000, 0))

	t.Run("every student with dues", func(t *testing.T) {
		res, err := f.svc.Send(f.ctx, reminder.SendRequest{ReminderType: reminder.ChannelSMS}, now)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Sent)
		assert.Equal(t, 1, res.Failed, "s2 has no phone")
		require.Len(t, res.Reminders, 2)

		r1 := res.Reminders[0]
		assert.Equal(t, s1.ID, r1.StudentID)
		assert.Equal(t, reminder.StatusSent, r1.Status)
		assert.Equal(t, s1.Phone, r1.SentTo)
		assert.Contains(t, r1.Message, "₹1000 is pending for Student 1 (Roll: 1)")
		assert.Contains(t, r1.Message, "Al-Noor Madrasa Administration")
		assert.Equal(t, reminder.StatusFailed, res.Reminders[1].Status)
		assert.Contains(t, res.Reminders[1].Message, "₹750 is pending")

		stored, err := f.repo.QueryReminders(f.ctx, reminder.QueryFilter{})
		require.NoError(t, err)
		assert.Len(t, stored, 2)
	})

	t.Run("both channels with a custom message", func(t *testing.T) {
		res, err := f.svc.Send(f.ctx, reminder.SendRequest{
			StudentIDs:   []string{s1.ID, s3.ID},
			ReminderType: reminder.ChannelBoth,
			Message:      "{name}: {amount}",
		}, now)
		require.NoError(t, err)
		assert.Equal(t, []string{s3.ID}, res.Skipped)
		require.Len(t, res.Reminders, 2)
		assert.Equal(t, reminder.ChannelSMS, res.Reminders[0].ReminderType)
		assert.Equal(t, reminder.ChannelWhatsApp, res.Reminders[1].ReminderType)
		assert.Equal(t, "Student 1: 1000", res.Reminders[0].Message)
		assert.Equal(t, 2, res.Sent)
	})

	t.Run("email is off by default", func(t *testing.T) {
		res, err := f.svc.Send(f.ctx, reminder.SendRequest{StudentIDs: []string{s1.ID}, ReminderType: reminder.ChannelEmail}, now)
		require.NoError(t, err)
		require.Len(t, res.Reminders, 1)
		assert.Equal(t, reminder.StatusFailed, res.Reminders[0].Status)
		assert.Equal(t, "father1@madrasa.test", res.Reminders[0].SentTo)
	})

	t.Run("email once enabled", func(t *testing.T) {
		emailsvc.ClearSentMessages()
		defer emailsvc.ClearSentMessages()

		enabled := true
		_, err := f.svc.SaveSettings(f.ctx, reminder.UpdateSettings{EmailEnabled: &enabled})
		require.NoError(t, err)

		res, err := f.svc.Send(f.ctx, reminder.SendRequest{StudentIDs: []string{s1.ID}, ReminderType: reminder.ChannelEmail}, now)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Sent)
		assert.Len(t, emailsvc.SentMessages(), 1)
	})

	t.Run("sms and whatsapp switched off", func(t *testing.T) {
		off, on := false, true
		_, err := f.svc.SaveSettings(f.ctx, reminder.UpdateSettings{SMSEnabled: &off})
		require.NoError(t, err)
		defer func() {
			_, err := f.svc.SaveSettings(f.ctx, reminder.UpdateSettings{SMSEnabled: &on})
			require.NoError(t, err)
		}()

		res, err := f.svc.Send(f.ctx, reminder.SendRequest{StudentIDs: []string{s1.ID}, ReminderType: reminder.ChannelBoth}, now)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Sent)
		assert.Equal(t, 2, res.Failed)
		require.Len(t, res.Reminders, 2)
		for _, r := range res.Reminders {
			assert.Equal(t, reminder.StatusFailed, r.Status)
			assert.Equal(t, s1.Phone, r.SentTo)
		}

		res, err = f.svc.RunScheduled(f.ctx, reminder.ChannelSMS, now, true)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Sent)
	})

	t.Run("last reminder per student", func(t *testing.T) {
		last, err := f.svc.LastForStudents(f.ctx, []string{s1.ID, s2.ID, s3.ID})
		require.NoError(t, err)
		assert.Len(t, last, 2)
		assert.Contains(t, last, s1.ID)
		assert.Contains(t, last, s2.ID)
	})
}

func TestService_RunScheduled(t *testing.T) {
	f := setup(t)
	s1 := testutil.CreateStudent(t, f.studentRepo, "1", 1000)
	testutil.CreatePayment(t, f.feeRepo, testutil.Payment(s1.ID, "January", 2025, fee.StatusPending, 1000, 0))

	_, err := f.svc.RunScheduled(f.ctx, reminder.ChannelSMS, now.AddDate(0, 0, 1), false)
	assert.Equal(t, reminder.ErrNotDue, err)

	res, err := f.svc.RunScheduled(f.ctx, reminder.ChannelSMS, now.AddDate(0, 0, 1), true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	res, err = f.svc.RunScheduled(f.ctx, reminder.ChannelSMS, now, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	recent, err := f.svc.Recent(f.ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
