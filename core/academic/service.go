package academic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
)

var (
	// errors
	ErrClassNotFound = errors.New("class level not found")
	ErrClassExists   = errors.New("a class level with this name already exists")
	ErrYearNotFound  = errors.New("academic year not found")
	ErrYearExists    = errors.New("this academic year already exists")
)

type (
	Repository interface {
		CreateClassLevel(ctx context.Context, cl ClassLevel) (ClassLevel, error)
		GetClassLevel(ctx context.Context, id string) (ClassLevel, error)
		// QueryClassLevels returns every class level ordered by order_index.
		QueryClassLevels(ctx context.Context) ([]ClassLevel, error)
		UpdateClassLevel(ctx context.Context, cl ClassLevel) (ClassLevel, error)
		DeleteClassLevel(ctx context.Context, id string) error
		ClassLevelExists(ctx context.Context, name string, excludedIDs ...string) (bool, error)

		CreateAcademicYear(ctx context.Context, ay AcademicYear) (AcademicYear, error)
		GetAcademicYear(ctx context.Context, id string) (AcademicYear, error)
		// QueryAcademicYears returns every academic year, latest first.
		QueryAcademicYears(ctx context.Context) ([]AcademicYear, error)
		DeleteAcademicYear(ctx context.Context, id string) error
		AcademicYearExists(ctx context.Context, name string) (bool, error)
		// SetCurrentAcademicYear atomically makes id the only current academic year.
		SetCurrentAcademicYear(ctx context.Context, id string) error
	}

	Service interface {
		CheckClassName(name string, exclClasses ...ClassLevel) error
		CreateClass(nc NewClassLevel) (ClassLevel, error)
		GetClass(id string) (ClassLevel, error)
		Classes() ([]ClassLevel, error)
		UpdateClass(orig ClassLevel, uc UpdateClassLevel) (ClassLevel, error)
		DeleteClass(id string) error

		CheckYearName(name string) error
		CreateYear(ny NewAcademicYear) (AcademicYear, error)
		GetYear(id string) (AcademicYear, error)
		Years() ([]AcademicYear, error)
		DeleteYear(id string) error
		SetCurrent(id string) (AcademicYear, error)
	}

	service struct {
		repo Repository
		conf *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, conf *core.Config) Service {
	return &service{repo: repo, conf: conf}
}

func (svc *service) CheckClassName(name string, exclClasses ...ClassLevel) error {
	excl := make([]string, 0, len(exclClasses))
	for _, cl := range exclClasses {
		excl = append(excl, cl.ID)
	}
	exists, err := svc.repo.ClassLevelExists(context.Background(), name, excl...)
	if err != nil {
		return err
	}
	if exists {
		return core.NewValidationError(ErrClassExists, core.FieldError{Field: "name", Error: ErrClassExists.Error()})
	}
	return nil
}

func (svc *service) CreateClass(nc NewClassLevel) (ClassLevel, error) {
	cl := ClassLevel{
		ID:          uuid.New().String(),
		Name:        nc.Name,
		Description: null.NewString(nc.Description, nc.Description != ""),
		MonthlyFee:  svc.conf.Institute.DefaultMonthlyFee,
		OrderIndex:  nc.OrderIndex,
		CreatedAt:   time.Now().UTC(),
	}
	if nc.MonthlyFee != nil {
		cl.MonthlyFee = *nc.MonthlyFee
	}
	return svc.repo.CreateClassLevel(context.Background(), cl)
}

func (svc *service) GetClass(id string) (ClassLevel, error) {
	return svc.repo.GetClassLevel(context.Background(), id)
}

func (svc *service) Classes() ([]ClassLevel, error) {
	return svc.repo.QueryClassLevels(context.Background())
}

func (svc *service) UpdateClass(orig ClassLevel, uc UpdateClassLevel) (ClassLevel, error) {
	cl := orig
	if uc.Name != "" {
		cl.Name = uc.Name
	}
	if uc.Description != nil {
		desc := core.CleanString(*uc.Description)
		cl.Description = null.NewString(desc, desc != "")
	}
	if uc.MonthlyFee != nil {
		cl.MonthlyFee = *uc.MonthlyFee
	}
	if uc.OrderIndex != nil {
		cl.OrderIndex = *uc.OrderIndex
	}
	return svc.repo.UpdateClassLevel(context.Background(), cl)
}

func (svc *service) DeleteClass(id string) error {
	return svc.repo.DeleteClassLevel(context.Background(), id)
}

func (svc *service) CheckYearName(name string) error {
	exists, err := svc.repo.AcademicYearExists(context.Background(), name)
	if err != nil {
		return err
	}
	if exists {
		return core.NewValidationError(ErrYearExists, core.FieldError{Field: "year_name", Error: ErrYearExists.Error()})
	}
	return nil
}

func (svc *service) CreateYear(ny NewAcademicYear) (AcademicYear, error) {
	start, end, err := core.AcademicYearBounds(ny.YearName)
	if err != nil {
		return AcademicYear{}, core.NewValidationError(nil, core.FieldError{Field: "year_name", Error: err.Error()})
	}
	if ny.StartDate != nil {
		start = ny.StartDate.UTC()
	}
	if ny.EndDate != nil {
		end = ny.EndDate.UTC()
	}

	ctx := context.Background()
	ay, err := svc.repo.CreateAcademicYear(ctx, AcademicYear{
		ID:        uuid.New().String(),
		YearName:  ny.YearName,
		StartDate: start,
		EndDate:   end,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return AcademicYear{}, err
	}
	if ny.IsCurrent {
		return svc.SetCurrent(ay.ID)
	}
	return ay, nil
}

func (svc *service) GetYear(id string) (AcademicYear, error) {
	return svc.repo.GetAcademicYear(context.Background(), id)
}

func (svc *service) Years() ([]AcademicYear, error) {
	return svc.repo.QueryAcademicYears(context.Background())
}

func (svc *service) DeleteYear(id string) error {
	return svc.repo.DeleteAcademicYear(context.Background(), id)
}

func (svc *service) SetCurrent(id string) (AcademicYear, error) {
	ctx := context.Background()
	if err := svc.repo.SetCurrentAcademicYear(ctx, id); err != nil {
		return AcademicYear{}, err
	}
	return svc.repo.GetAcademicYear(ctx, id)
}
