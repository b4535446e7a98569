package reminder

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/student"
)

// Channels
const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
	ChannelManual   = "manual"
	ChannelBoth     = "both" // sms + whatsapp
)

// Delivery statuses
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Frequencies
const (
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyManual  = "manual"
)

// DefaultMessage is used when neither the request nor the settings carry a message.
const DefaultMessage = "Dear Parent,\n\n" +
	"This is a reminder that ₹{amount} is pending for {name} (Roll: {roll}).\n\n" +
	"Please pay at your earliest convenience.\n\n" +
	"Regards,\n{institute} Administration"

// Reminder is the record of one reminder sent to a student's guardian on one channel.
type Reminder struct {
	ID           string    `json:"id" db:"id"`
	StudentID    string    `json:"student_id" db:"student_id"`
	ReminderType string    `json:"reminder_type" db:"reminder_type"`
	Message      string    `json:"message" db:"message"`
	SentTo       string    `json:"sent_to" db:"sent_to"`
	Status       string    `json:"status" db:"status"`
	SentAt       time.Time `json:"sent_at" db:"sent_at"`
}

// Settings drive scheduled reminder runs. There is a single settings row.
type Settings struct {
	ReminderFrequency string    `json:"reminder_frequency" db:"reminder_frequency"`
	ReminderDay       int       `json:"reminder_day" db:"reminder_day"`
	SMSEnabled        bool      `json:"sms_enabled" db:"sms_enabled"`
	EmailEnabled      bool      `json:"email_enabled" db:"email_enabled"`
	MessageTemplate   string    `json:"reminder_message_template" db:"reminder_message_template"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

func DefaultSettings() Settings {
	return Settings{
		ReminderFrequency: FrequencyMonthly,
		ReminderDay:       5,
		SMSEnabled:        true,
		EmailEnabled:      false,
		MessageTemplate:   DefaultMessage,
	}
}

// DueToday reports whether a scheduled run should send reminders on now's date.
// Weekly runs happen on weekday ReminderDay%7 (0 is Sunday), monthly ones on day-of-month ReminderDay.
func (s Settings) DueToday(now time.Time) bool {
	switch s.ReminderFrequency {
	case FrequencyWeekly:
		return int(now.Weekday()) == s.ReminderDay%7
	case FrequencyMonthly:
		return now.Day() == s.ReminderDay
	}
	return false
}

type UpdateSettings struct {
	ReminderFrequency string  `json:"reminder_frequency" validate:"omitempty,oneof=weekly monthly manual"`
	ReminderDay       *int    `json:"reminder_day" validate:"omitempty,min=1,max=28"`
	SMSEnabled        *bool   `json:"sms_enabled"`
	EmailEnabled      *bool   `json:"email_enabled"`
	MessageTemplate   *string `json:"reminder_message_template"`
}

func (us *UpdateSettings) Validate(validate *validator.Validate) error {
	us.ReminderFrequency = core.CleanString(us.ReminderFrequency, true /* lower */)
	return validate.Struct(us)
}

func (us UpdateSettings) apply(orig Settings) Settings {
	s := orig
	if us.ReminderFrequency != "" {
		s.ReminderFrequency = us.ReminderFrequency
	}
	if us.ReminderDay != nil {
		s.ReminderDay = *us.ReminderDay
	}
	if us.SMSEnabled != nil {
		s.SMSEnabled = *us.SMSEnabled
	}
	if us.EmailEnabled != nil {
		s.EmailEnabled = *us.EmailEnabled
	}
	if us.MessageTemplate != nil {
		s.MessageTemplate = strings.TrimSpace(*us.MessageTemplate)
	}
	return s
}

// SendRequest asks for reminders to be sent. No StudentIDs means every student with dues.
type SendRequest struct {
	StudentIDs   []string `json:"student_ids"`
	ReminderType string   `json:"reminder_type" validate:"required,oneof=sms whatsapp email both"`
	Message      string   `json:"message"`
	Year         int      `json:"year" validate:"omitempty,gte=2000,lte=2100"`
}

func (sr *SendRequest) Validate(validate *validator.Validate) error {
	sr.ReminderType = core.CleanString(sr.ReminderType, true /* lower */)
	sr.Message = strings.TrimSpace(sr.Message)
	return validate.Struct(sr)
}

// Channels expands the requested reminder type into delivery channels.
func (sr SendRequest) Channels() []string {
	if sr.ReminderType == ChannelBoth {
		return []string{ChannelSMS, ChannelWhatsApp}
	}
	return []string{sr.ReminderType}
}

// Notification is one message to deliver to a student's guardian.
type Notification struct {
	Student student.Student
	Message string
	Amount  decimal.Decimal
}

// Compose fills the {name}, {roll}, {amount} and {institute} placeholders of tmpl.
func Compose(tmpl string, s student.Student, amount decimal.Decimal, institute string) string {
	return strings.NewReplacer(
		"{name}", s.FullName,
		"{roll}", s.RollNumber,
		"{amount}", formatAmount(amount),
		"{institute}", institute,
	).Replace(tmpl)
}

func formatAmount(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return amount.Truncate(0).String()
	}
	return amount.StringFixed(2)
}

type QueryFilter struct {
	StudentIDs []string
	Limit      int
}
