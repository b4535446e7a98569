package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/fee"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/user"
)

// Logger keeps log lines in memory.
type Logger struct {
	mu    sync.Mutex
	Lines []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Lines = append(l.Lines, level+": "+msg)
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }

// Config is the test configuration with a known institute.
func Config() *core.Config {
	conf := core.NewTestConfig()
	conf.AppName = "Madrasa"
	conf.DefaultFromEmail = "noreply@madrasa.test"
	conf.Institute = core.InstituteConfig{
		Name:              "Al-Noor Madrasa",
		DefaultMonthlyFee: decimal.NewFromInt(1000),
		CurrencySymbol:    "₹",
		PhoneRegion:       "IN",
	}
	return conf
}

// Validator returns a validator set up the way the API sets it up.
func Validator(conf *core.Config) *validator.Validate {
	validate, _ := ValidatorWithTranslator(conf)
	return validate
}

// ValidatorWithTranslator also returns the english translator the validation messages are registered on.
func ValidatorWithTranslator(conf *core.Config) (*validator.Validate, ut.Translator) {
	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	core.InitValidators(validate, translator, conf.Institute.PhoneRegion)
	user.InitValidators(validate, translator)
	fee.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  uname,
		Email:     email,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// StudentOption customizes CreateStudent.
type StudentOption func(s *student.Student)

func WithClass(class string) StudentOption {
	return func(s *student.Student) { s.ClassLevel = class }
}

func WithStatus(status string) StudentOption {
	return func(s *student.Student) { s.Status = status }
}

func WithEmail(email string) StudentOption {
	return func(s *student.Student) { s.Email = null.StringFrom(email) }
}

func WithPhone(phone string) StudentOption {
	return func(s *student.Student) { s.Phone = phone }
}

// CreateStudent stores an active "Class 1" student named after its roll number.
func CreateStudent(t *testing.T, repo student.Repository, roll string, monthlyFee int64, opts ...StudentOption) student.Student {
	t.Helper()
	now := time.Now().UTC()
	s := student.Student{
		ID:               uuid.New().String(),
		FullName:         "Student " + roll,
		FatherName:       "Father " + roll,
		Phone:            "+9198765432" + fmt.Sprintf("%02s", roll),
		ClassLevel:       "Class 1",
		Status:           student.StatusActive,
		MonthlyFeeAmount: decimal.NewFromInt(monthlyFee),
		AcademicYear:     core.AcademicYearOf(now),
		RollNumber:       roll,
		AdmissionDate:    now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	s, err := repo.CreateStudent(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

// Payment builds a monthly payment row. partial is only used for the partial status.
func Payment(studentID, month string, year int, status string, amount, partial int64) fee.Payment {
	now := time.Now().UTC()
	p := fee.Payment{
		ID:            uuid.New().String(),
		StudentID:     studentID,
		FeeType:       fee.TypeMonthly,
		MonthName:     month,
		Year:          year,
		Amount:        decimal.NewFromInt(amount),
		PaymentStatus: status,
		PaymentMode:   fee.ModeCash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if status == fee.StatusPartial {
		p.PartialAmount = decimal.NewNullDecimal(decimal.NewFromInt(partial))
	}
	if status != fee.StatusPending {
		p.PaymentDate = null.TimeFrom(time.Date(year, time.Month(core.MonthIndex(month)), 10, 0, 0, 0, 0, time.UTC))
	}
	return p
}

func CreatePayment(t *testing.T, repo fee.Repository, p fee.Payment) fee.Payment {
	t.Helper()
	p, err := repo.UpsertPayment(context.Background(), p)
	if err != nil {
		t.Fatalf("CreatePayment() failed: %v", err)
	}
	return p
}
