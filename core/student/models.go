package student

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
)

// Statuses
const (
	StatusActive    = "active"
	StatusLeft      = "left"
	StatusCompleted = "completed"
)

var Statuses = []Status{
	{Name: "Active", Value: StatusActive},
	{Name: "Left", Value: StatusLeft},
	{Name: "Completed", Value: StatusCompleted},
}

type Status struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Student struct {
	ID               string          `json:"id" db:"id"`
	FullName         string          `json:"full_name" db:"full_name"`
	FatherName       string          `json:"father_name" db:"father_name"`
	MotherName       null.String     `json:"mother_name" db:"mother_name"`
	Phone            string          `json:"phone" db:"phone"`
	Email            null.String     `json:"email" db:"email"`
	Address          null.String     `json:"address" db:"address"`
	ClassLevel       string          `json:"class_level" db:"class_level"`
	Status           string          `json:"status" db:"status"`
	MonthlyFeeAmount decimal.Decimal `json:"monthly_fee_amount" db:"monthly_fee_amount"`
	AcademicYear     string          `json:"academic_year" db:"academic_year"`
	RollNumber       string          `json:"roll_number" db:"roll_number"`
	AdmissionDate    time.Time       `json:"admission_date" db:"admission_date"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

func (s Student) IsActive() bool {
	return s.Status == StatusActive
}

// CompareRollNumbers orders roll numbers numerically when both are numbers ("2" < "10"), lexically otherwise.
func CompareRollNumbers(a, b string) int {
	ai, aErr := strconv.Atoi(strings.TrimSpace(a))
	bi, bErr := strconv.Atoi(strings.TrimSpace(b))
	switch {
	case aErr == nil && bErr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	case aErr == nil: // numbers first
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// NewStudent contains information needed to enroll a Student.
type NewStudent struct {
	FullName         string           `json:"full_name" validate:"required"`
	FatherName       string           `json:"father_name" validate:"required"`
	MotherName       string           `json:"mother_name"`
	Phone            string           `json:"phone" validate:"required,phone"`
	Email            string           `json:"email" validate:"omitempty,email"`
	Address          string           `json:"address"`
	ClassLevel       string           `json:"class_level" validate:"required"`
	Status           string           `json:"status" validate:"omitempty,oneof=active left completed"`
	MonthlyFeeAmount *decimal.Decimal `json:"monthly_fee_amount" validate:"omitempty,gte=0"`
	AcademicYear     string           `json:"academic_year" validate:"omitempty,academicyear"`
	RollNumber       string           `json:"roll_number" validate:"required,max=20"`
	AdmissionDate    time.Time        `json:"admission_date"`
}

func (ns *NewStudent) clean() {
	ns.FullName = core.CleanString(ns.FullName)
	ns.FatherName = core.CleanString(ns.FatherName)
	ns.MotherName = core.CleanString(ns.MotherName)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Address = core.CleanString(ns.Address)
	ns.ClassLevel = core.CleanString(ns.ClassLevel)
	ns.Status = core.CleanString(ns.Status, true /* lower */)
	ns.AcademicYear = core.CleanString(ns.AcademicYear)
	ns.RollNumber = core.CleanString(ns.RollNumber)
}

func (ns *NewStudent) Validate(validate *validator.Validate, svc Service) error {
	ns.clean()
	if err := validate.Struct(ns); err != nil {
		return err
	}
	year := ns.AcademicYear
	if year == "" {
		year = core.AcademicYearOf(time.Now())
	}
	return svc.CheckRollNumber(year, ns.RollNumber)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Empty fields keep their current value.
type UpdateStudent struct {
	FullName         string           `json:"full_name"`
	FatherName       string           `json:"father_name"`
	MotherName       *string          `json:"mother_name"`
	Phone            string           `json:"phone" validate:"omitempty,phone"`
	Email            *string          `json:"email" validate:"omitempty,email"`
	Address          *string          `json:"address"`
	ClassLevel       string           `json:"class_level"`
	Status           string           `json:"status" validate:"omitempty,oneof=active left completed"`
	MonthlyFeeAmount *decimal.Decimal `json:"monthly_fee_amount" validate:"omitempty,gte=0"`
	AcademicYear     string           `json:"academic_year" validate:"omitempty,academicyear"`
	RollNumber       string           `json:"roll_number" validate:"omitempty,max=20"`
	AdmissionDate    *time.Time       `json:"admission_date"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate, svc Service) error {
	us.FullName = core.CleanString(us.FullName)
	us.FatherName = core.CleanString(us.FatherName)
	us.Phone = core.CleanString(us.Phone)
	us.ClassLevel = core.CleanString(us.ClassLevel)
	us.Status = core.CleanString(us.Status, true /* lower */)
	us.AcademicYear = core.CleanString(us.AcademicYear)
	us.RollNumber = core.CleanString(us.RollNumber)
	if us.Email != nil {
		email := core.CleanString(*us.Email, true /* lower */)
		us.Email = &email
	}

	if err := validate.Struct(us); err != nil {
		return err
	}

	year, roll := orig.AcademicYear, orig.RollNumber
	if us.AcademicYear != "" {
		year = us.AcademicYear
	}
	if us.RollNumber != "" {
		roll = us.RollNumber
	}
	if year == orig.AcademicYear && roll == orig.RollNumber {
		return nil
	}
	return svc.CheckRollNumber(year, roll, orig)
}

// apply returns orig updated with the set fields of us.
func (us UpdateStudent) apply(orig Student) Student {
	s := orig
	if us.FullName != "" {
		s.FullName = us.FullName
	}
	if us.FatherName != "" {
		s.FatherName = us.FatherName
	}
	if us.MotherName != nil {
		s.MotherName = nullString(*us.MotherName)
	}
	if us.Phone != "" {
		s.Phone = us.Phone
	}
	if us.Email != nil {
		s.Email = nullString(*us.Email)
	}
	if us.Address != nil {
		s.Address = nullString(*us.Address)
	}
	if us.ClassLevel != "" {
		s.ClassLevel = us.ClassLevel
	}
	if us.Status != "" {
		s.Status = us.Status
	}
	if us.MonthlyFeeAmount != nil {
		s.MonthlyFeeAmount = *us.MonthlyFeeAmount
	}
	if us.AcademicYear != "" {
		s.AcademicYear = us.AcademicYear
	}
	if us.RollNumber != "" {
		s.RollNumber = us.RollNumber
	}
	if us.AdmissionDate != nil && !us.AdmissionDate.IsZero() {
		s.AdmissionDate = us.AdmissionDate.UTC()
	}
	return s
}

type QueryFilter struct {
	Search       string `query:"search"`
	ClassLevel   string `query:"class"`
	Status       string `query:"status"`
	AcademicYear string `query:"academic_year"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ClassLevel = core.CleanString(qf.ClassLevel)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.AcademicYear = core.CleanString(qf.AcademicYear)
	if qf.ClassLevel == "all" {
		qf.ClassLevel = ""
	}
	if qf.Status == "all" {
		qf.Status = ""
	}
}

// Match reports whether s passes the filter.
// Search is a case-insensitive match on one of full name, father name, phone or roll number.
func (qf *QueryFilter) Match(s Student) bool {
	if qf.ClassLevel != "" && s.ClassLevel != qf.ClassLevel {
		return false
	}
	if qf.Status != "" && s.Status != qf.Status {
		return false
	}
	if qf.AcademicYear != "" && s.AcademicYear != qf.AcademicYear {
		return false
	}
	if qf.Search != "" {
		return core.ContainsFold(s.FullName, qf.Search) ||
			core.ContainsFold(s.FatherName, qf.Search) ||
			strings.Contains(s.Phone, qf.Search) ||
			core.ContainsFold(s.RollNumber, qf.Search)
	}
	return true
}

func nullString(s string) null.String {
	s = strings.TrimSpace(s)
	return null.NewString(s, s != "")
}
