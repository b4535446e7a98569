package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/fee"
)

var (
	// errors
	ErrSettingsNotFound = errors.New("reminder settings not found")
	ErrNotDue           = errors.New("reminders are not due today")
	errEmailDisabled    = errors.New("email reminders are disabled")
	errSMSDisabled      = errors.New("sms and whatsapp reminders are disabled")
	errNoNotifier       = errors.New("no notifier for this channel")
)

type (
	Repository interface {
		CreateReminders(ctx context.Context, reminders ...Reminder) error
		// QueryReminders returns reminders newest first.
		QueryReminders(ctx context.Context, filter QueryFilter) ([]Reminder, error)
		// GetSettings returns ErrSettingsNotFound until settings are saved once.
		GetSettings(ctx context.Context) (Settings, error)
		SaveSettings(ctx context.Context, s Settings) (Settings, error)
	}

	// Notifier delivers a Notification on one channel and returns the address it was sent to.
	Notifier interface {
		Notify(ctx context.Context, n Notification) (string, error)
	}

	// Dues is the part of fee.Service reminders are computed from.
	Dues interface {
		PendingDues(ctx context.Context, year int, classLevel string) (*fee.DuesReport, error)
	}

	Result struct {
		Sent      int        `json:"sent"`
		Failed    int        `json:"failed"`
		Skipped   []string   `json:"skipped"` // requested students without dues
		Reminders []Reminder `json:"reminders"`
	}

	Service interface {
		Settings(ctx context.Context) (Settings, error)
		SaveSettings(ctx context.Context, us UpdateSettings) (Settings, error)
		Send(ctx context.Context, req SendRequest, now time.Time) (*Result, error)
		// RunScheduled sends reminders to every student with dues when the settings say so (or force is set).
		RunScheduled(ctx context.Context, reminderType string, now time.Time, force bool) (*Result, error)
		Recent(ctx context.Context, limit int) ([]Reminder, error)
		LastForStudents(ctx context.Context, studentIDs []string) (map[string]Reminder, error)
	}

	service struct {
		repo      Repository
		dues      Dues
		notifiers map[string]Notifier
		conf      *core.Config
		logger    core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, dues Dues, notifiers map[string]Notifier, conf *core.Config, logger core.Logger) Service {
	return &service{
		repo:      repo,
		dues:      dues,
		notifiers: notifiers,
		conf:      conf,
		logger:    logger,
	}
}

func (svc *service) Settings(ctx context.Context) (Settings, error) {
	s, err := svc.repo.GetSettings(ctx)
	if errors.Is(err, ErrSettingsNotFound) {
		return DefaultSettings(), nil
	}
	return s, err
}

func (svc *service) SaveSettings(ctx context.Context, us UpdateSettings) (Settings, error) {
	orig, err := svc.Settings(ctx)
	if err != nil {
		return Settings{}, err
	}
	s := us.apply(orig)
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.SaveSettings(ctx, s)
}

func (svc *service) Send(ctx context.Context, req SendRequest, now time.Time) (*Result, error) {
	year := req.Year
	if year == 0 {
		year = now.Year()
	}
	report, err := svc.dues.PendingDues(ctx, year, "")
	if err != nil {
		return nil, err
	}
	settings, err := svc.Settings(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{Skipped: make([]string, 0), Reminders: make([]Reminder, 0)}
	targets := report.Students
	if len(req.StudentIDs) > 0 {
		byID := make(map[string]fee.StudentDues, len(report.Students))
		for _, d := range report.Students {
			byID[d.Student.ID] = d
		}
		targets = make([]fee.StudentDues, 0, len(req.StudentIDs))
		for _, id := range req.StudentIDs {
			if d, ok := byID[id]; ok {
				targets = append(targets, d)
			} else {
				res.Skipped = append(res.Skipped, id)
			}
		}
	}

	tmpl := req.Message
	if tmpl == "" {
		tmpl = settings.MessageTemplate
	}
	if tmpl == "" {
		tmpl = DefaultMessage
	}

	sentAt := now.UTC()
	for _, d := range targets {
		n := Notification{
			Student: d.Student,
			Message: Compose(tmpl, d.Student, d.TotalPending, svc.conf.Institute.Name),
			Amount:  d.TotalPending,
		}
		for _, channel := range req.Channels() {
			rem := Reminder{
				ID:           uuid.New().String(),
				StudentID:    d.Student.ID,
				ReminderType: channel,
				Message:      n.Message,
				Status:       StatusSent,
				SentAt:       sentAt,
			}
			sentTo, err := svc.deliver(ctx, channel, settings, n)
			rem.SentTo = sentTo
			if err != nil {
				svc.logger.Warn(fmt.Sprintf("reminder via %s to student %s failed", channel, d.Student.ID), err)
				rem.Status = StatusFailed
				res.Failed++
			} else {
				res.Sent++
			}
			res.Reminders = append(res.Reminders, rem)
		}
	}

	if len(res.Reminders) > 0 {
		if err := svc.repo.CreateReminders(ctx, res.Reminders...); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (svc *service) deliver(ctx context.Context, channel string, settings Settings, n Notification) (string, error) {
	switch channel {
	case ChannelEmail:
		if !settings.EmailEnabled {
			return n.Student.Email.String, errEmailDisabled
		}
	case ChannelSMS, ChannelWhatsApp:
		if !settings.SMSEnabled {
			return n.Student.Phone, errSMSDisabled
		}
	}
	notifier, ok := svc.notifiers[channel]
	if !ok {
		return "", errNoNotifier
	}
	return notifier.Notify(ctx, n)
}

func (svc *service) RunScheduled(ctx context.Context, reminderType string, now time.Time, force bool) (*Result, error) {
	settings, err := svc.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if !force && !settings.DueToday(now) {
		return nil, ErrNotDue
	}
	return svc.Send(ctx, SendRequest{ReminderType: reminderType}, now)
}

func (svc *service) Recent(ctx context.Context, limit int) ([]Reminder, error) {
	return svc.repo.QueryReminders(ctx, QueryFilter{Limit: limit})
}

func (svc *service) LastForStudents(ctx context.Context, studentIDs []string) (map[string]Reminder, error) {
	last := make(map[string]Reminder, len(studentIDs))
	if len(studentIDs) == 0 {
		return last, nil
	}
	reminders, err := svc.repo.QueryReminders(ctx, QueryFilter{StudentIDs: studentIDs})
	if err != nil {
		return nil, err
	}
	for _, r := range reminders {
		if _, ok := last[r.StudentID]; !ok {
			last[r.StudentID] = r
		}
	}
	return last, nil
}
