package academic

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
)

type ClassLevel struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description null.String     `json:"description" db:"description"`
	MonthlyFee  decimal.Decimal `json:"monthly_fee" db:"monthly_fee"`
	OrderIndex  int             `json:"order_index" db:"order_index"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

type NewClassLevel struct {
	Name        string           `json:"name" validate:"required,max=50"`
	Description string           `json:"description"`
	MonthlyFee  *decimal.Decimal `json:"monthly_fee" validate:"omitempty,gte=0"`
	OrderIndex  int              `json:"order_index" validate:"gte=0"`
}

func (nc *NewClassLevel) Validate(validate *validator.Validate, svc Service) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckClassName(nc.Name)
}

type UpdateClassLevel struct {
	Name        string           `json:"name" validate:"omitempty,max=50"`
	Description *string          `json:"description"`
	MonthlyFee  *decimal.Decimal `json:"monthly_fee" validate:"omitempty,gte=0"`
	OrderIndex  *int             `json:"order_index" validate:"omitempty,gte=0"`
}

func (uc *UpdateClassLevel) Validate(orig ClassLevel, validate *validator.Validate, svc Service) error {
	uc.Name = core.CleanString(uc.Name)
	if err := validate.Struct(uc); err != nil {
		return err
	}
	if uc.Name == "" || uc.Name == orig.Name {
		return nil
	}
	return svc.CheckClassName(uc.Name, orig)
}

type AcademicYear struct {
	ID        string    `json:"id" db:"id"`
	YearName  string    `json:"year_name" db:"year_name"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
	IsCurrent bool      `json:"is_current" db:"is_current"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewAcademicYear contains information needed to open an academic year.
// Dates default to April 1st - March 31st of the named years.
type NewAcademicYear struct {
	YearName  string     `json:"year_name" validate:"required,academicyear"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	IsCurrent bool       `json:"is_current"`
}

func (ny *NewAcademicYear) Validate(validate *validator.Validate, svc Service) error {
	ny.YearName = core.CleanString(ny.YearName)
	if err := validate.Struct(ny); err != nil {
		return err
	}
	if ny.StartDate != nil && ny.EndDate != nil && !ny.EndDate.After(*ny.StartDate) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "end date must be after the start date"})
	}
	return svc.CheckYearName(ny.YearName)
}

// YearFor returns the academic year name a date falls in.
func YearFor(date time.Time) string {
	return core.AcademicYearOf(date)
}
