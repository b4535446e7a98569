package staff

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
)

// Staff types
const (
	TypeTeacher = "teacher"
	TypeServant = "servant"
	TypeTrustee = "trustee"
)

var ErrNotFound = errors.New("staff member not found")

type Staff struct {
	ID              string          `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	StaffType       string          `json:"staff_type" db:"staff_type"`
	Position        string          `json:"position" db:"position"`
	Department      null.String     `json:"department" db:"department"`
	Phone           string          `json:"phone" db:"phone"`
	Email           null.String     `json:"email" db:"email"`
	Address         null.String     `json:"address" db:"address"`
	Salary          decimal.Decimal `json:"salary" db:"salary"`
	JoiningDate     time.Time       `json:"joining_date" db:"joining_date"`
	Qualification   null.String     `json:"qualification" db:"qualification"`
	ExperienceYears int             `json:"experience_years" db:"experience_years"`
	IsActive        bool            `json:"is_active" db:"is_active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

type NewStaff struct {
	Name            string           `json:"name" validate:"required"`
	StaffType       string           `json:"staff_type" validate:"required,oneof=teacher servant trustee"`
	Position        string           `json:"position" validate:"required"`
	Department      string           `json:"department"`
	Phone           string           `json:"phone" validate:"required,phone"`
	Email           string           `json:"email" validate:"omitempty,email"`
	Address         string           `json:"address"`
	Salary          *decimal.Decimal `json:"salary" validate:"omitempty,gte=0"`
	JoiningDate     *time.Time       `json:"joining_date"`
	Qualification   string           `json:"qualification"`
	ExperienceYears int              `json:"experience_years" validate:"gte=0"`
	IsActive        *bool            `json:"is_active"`
}

func (ns *NewStaff) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.StaffType = core.CleanString(ns.StaffType, true /* lower */)
	ns.Position = core.CleanString(ns.Position)
	ns.Department = core.CleanString(ns.Department)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Address = core.CleanString(ns.Address)
	ns.Qualification = core.CleanString(ns.Qualification)
	return validate.Struct(ns)
}

// UpdateStaff defines what information may be provided to modify a Staff member.
type UpdateStaff struct {
	Name            string           `json:"name"`
	StaffType       string           `json:"staff_type" validate:"omitempty,oneof=teacher servant trustee"`
	Position        string           `json:"position"`
	Department      *string          `json:"department"`
	Phone           string           `json:"phone" validate:"omitempty,phone"`
	Email           *string          `json:"email" validate:"omitempty,email"`
	Address         *string          `json:"address"`
	Salary          *decimal.Decimal `json:"salary" validate:"omitempty,gte=0"`
	JoiningDate     *time.Time       `json:"joining_date"`
	Qualification   *string          `json:"qualification"`
	ExperienceYears *int             `json:"experience_years" validate:"omitempty,gte=0"`
	IsActive        *bool            `json:"is_active"`
}

func (us *UpdateStaff) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.StaffType = core.CleanString(us.StaffType, true /* lower */)
	us.Position = core.CleanString(us.Position)
	us.Phone = core.CleanString(us.Phone)
	if us.Email != nil {
		email := core.CleanString(*us.Email, true /* lower */)
		us.Email = &email
	}
	return validate.Struct(us)
}

type QueryFilter struct {
	StaffType string `query:"staff_type"`
	IsActive  *bool  `query:"is_active"`
	Search    string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.StaffType = core.CleanString(qf.StaffType, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
	if qf.StaffType == "all" {
		qf.StaffType = ""
	}
}

// Match reports whether s passes the filter. Search matches name, position or phone.
func (qf *QueryFilter) Match(s Staff) bool {
	if qf.StaffType != "" && s.StaffType != qf.StaffType {
		return false
	}
	if qf.IsActive != nil && s.IsActive != *qf.IsActive {
		return false
	}
	if qf.Search != "" {
		return core.ContainsFold(s.Name, qf.Search) ||
			core.ContainsFold(s.Position, qf.Search) ||
			strings.Contains(s.Phone, qf.Search)
	}
	return true
}

type (
	Repository interface {
		CreateStaff(ctx context.Context, s Staff) (Staff, error)
		GetStaff(ctx context.Context, id string) (Staff, error)
		// QueryStaff applies AND operation on the set QueryFilter fields, newest first.
		QueryStaff(ctx context.Context, filter *QueryFilter) ([]Staff, error)
		UpdateStaff(ctx context.Context, s Staff) (Staff, error)
		DeleteStaff(ctx context.Context, id string) error
	}

	Service interface {
		Create(ns NewStaff) (Staff, error)
		Get(id string) (Staff, error)
		Query(filter *QueryFilter) ([]Staff, error)
		Update(orig Staff, us UpdateStaff) (Staff, error)
		Delete(id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func nullString(s string) null.String {
	s = strings.TrimSpace(s)
	return null.NewString(s, s != "")
}

func (svc *service) Create(ns NewStaff) (Staff, error) {
	now := time.Now().UTC()
	s := Staff{
		ID:              uuid.New().String(),
		Name:            ns.Name,
		StaffType:       ns.StaffType,
		Position:        ns.Position,
		Department:      nullString(ns.Department),
		Phone:           ns.Phone,
		Email:           nullString(ns.Email),
		Address:         nullString(ns.Address),
		JoiningDate:     now.Truncate(24 * time.Hour),
		Qualification:   nullString(ns.Qualification),
		ExperienceYears: ns.ExperienceYears,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if ns.Salary != nil {
		s.Salary = *ns.Salary
	}
	if ns.JoiningDate != nil {
		s.JoiningDate = ns.JoiningDate.UTC()
	}
	if ns.IsActive != nil {
		s.IsActive = *ns.IsActive
	}
	return svc.repo.CreateStaff(context.Background(), s)
}

func (svc *service) Get(id string) (Staff, error) {
	return svc.repo.GetStaff(context.Background(), id)
}

func (svc *service) Query(filter *QueryFilter) ([]Staff, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	return svc.repo.QueryStaff(context.Background(), filter)
}

func (svc *service) Update(orig Staff, us UpdateStaff) (Staff, error) {
	s := orig
	if us.Name != "" {
		s.Name = us.Name
	}
	if us.StaffType != "" {
		s.StaffType = us.StaffType
	}
	if us.Position != "" {
		s.Position = us.Position
	}
	if us.Department != nil {
		s.Department = nullString(*us.Department)
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
	if us.Salary != nil {
		s.Salary = *us.Salary
	}
	if us.JoiningDate != nil {
		s.JoiningDate = us.JoiningDate.UTC()
	}
	if us.Qualification != nil {
		s.Qualification = nullString(*us.Qualification)
	}
	if us.ExperienceYears != nil {
		s.ExperienceYears = *us.ExperienceYears
	}
	if us.IsActive != nil {
		s.IsActive = *us.IsActive
	}
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStaff(context.Background(), s)
}

func (svc *service) Delete(id string) error {
	return svc.repo.DeleteStaff(context.Background(), id)
}
