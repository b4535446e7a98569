// Package notify delivers fee reminders. SMS and WhatsApp have no provider yet: they are logged and count as sent.
package notify

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/reminder"
)

var (
	ErrNoPhone = errors.New("student has no phone number")
	ErrNoEmail = errors.New("student has no email address")
)

type logNotifier struct {
	channel string
	logger  core.Logger
}

var _ reminder.Notifier = (*logNotifier)(nil)

// NewSMS returns the SMS channel.
func NewSMS(logger core.Logger) reminder.Notifier {
	return &logNotifier{channel: reminder.ChannelSMS, logger: logger}
}

// NewWhatsApp returns the WhatsApp channel.
func NewWhatsApp(logger core.Logger) reminder.Notifier {
	return &logNotifier{channel: reminder.ChannelWhatsApp, logger: logger}
}

func (n *logNotifier) Notify(_ context.Context, notif reminder.Notification) (string, error) {
	phone := strings.TrimSpace(notif.Student.Phone)
	if phone == "" {
		return "", ErrNoPhone
	}
	n.logger.Info(fmt.Sprintf("%s reminder to %s", n.channel, phone), map[string]interface{}{
		"student_id": notif.Student.ID,
		"amount":     notif.Amount.String(),
		"message":    notif.Message,
	})
	return phone, nil
}

type emailNotifier struct {
	mailSvc core.EmailService
	conf    *core.Config
}

var _ reminder.Notifier = (*emailNotifier)(nil)

// NewEmail returns the e-mail channel, rendering the fee_reminder template.
func NewEmail(mailSvc core.EmailService, conf *core.Config) reminder.Notifier {
	return &emailNotifier{mailSvc: mailSvc, conf: conf}
}

func (n *emailNotifier) Notify(_ context.Context, notif reminder.Notification) (string, error) {
	s := notif.Student
	if !s.Email.Valid || s.Email.String == "" {
		return "", ErrNoEmail
	}
	n.mailSvc.SendMessages(&core.EmailMessage{
		To:              []mail.Address{{Name: s.FatherName, Address: s.Email.String}},
		Subject:         "Fee reminder for " + s.FullName,
		TemplateName:    "fee_reminder",
		FrontendBaseURL: n.conf.FrontendBaseURL,
		Metadata:        map[string]string{"student_id": s.ID, "roll_number": s.RollNumber},
		TemplateData: map[string]interface{}{
			"Message": notif.Message,
			"Lines":   strings.Split(notif.Message, "\n"),
			"Amount":  n.conf.Institute.CurrencySymbol + notif.Amount.StringFixed(2),
		},
	})
	return s.Email.String, nil
}

// Channels builds the notifier set the reminder service dispatches on.
func Channels(mailSvc core.EmailService, logger core.Logger, conf *core.Config) map[string]reminder.Notifier {
	return map[string]reminder.Notifier{
		reminder.ChannelSMS:      NewSMS(logger),
		reminder.ChannelWhatsApp: NewWhatsApp(logger),
		reminder.ChannelEmail:    NewEmail(mailSvc, conf),
	}
}
