package student

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/madrasa/core"
)

var (
	// errors
	ErrNotFound         = errors.New("student not found")
	ErrRollNumberExists = errors.New("this roll number is already taken for the academic year")
	ErrHasPayments      = errors.New("student has recorded payments; mark them as left instead")

	// OrderingFields maps ordering query fields to their columns.
	OrderingFields = map[string]string{
		"full_name":          "full_name",
		"father_name":        "father_name",
		"class_level":        "class_level",
		"status":             "status",
		"monthly_fee_amount": "monthly_fee_amount",
		"admission_date":     "admission_date",
		"created_at":         "created_at",
	}
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields (see QueryFilter.Match).
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error
		RollNumberExists(ctx context.Context, academicYear, rollNumber string, excludedIDs ...string) (bool, error)
	}

	// PaymentChecker tells whether fee payments reference a student.
	PaymentChecker interface {
		StudentHasPayments(ctx context.Context, studentID string) (bool, error)
	}

	Counts struct {
		Total  int `json:"total_students"`
		Active int `json:"active_students"`
	}

	Service interface {
		CheckRollNumber(academicYear, rollNumber string, exclStudents ...Student) error
		Create(ns NewStudent) (Student, error)
		Get(id string) (Student, error)
		Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		// Roster returns every student (all statuses), ordered by roll number.
		Roster(ctx context.Context) ([]Student, error)
		// ListActive returns the active students, ordered by roll number.
		ListActive(ctx context.Context) ([]Student, error)
		Update(orig Student, us UpdateStudent) (Student, error)
		Delete(id string) error
		Count(ctx context.Context) (Counts, error)
	}

	service struct {
		repo     Repository
		payments PaymentChecker
		conf     *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, payments PaymentChecker, conf *core.Config) Service {
	return &service{repo: repo, payments: payments, conf: conf}
}

func (svc *service) CheckRollNumber(academicYear, rollNumber string, exclStudents ...Student) error {
	excl := make([]string, 0, len(exclStudents))
	for _, s := range exclStudents {
		excl = append(excl, s.ID)
	}
	exists, err := svc.repo.RollNumberExists(context.Background(), academicYear, rollNumber, excl...)
	if err != nil {
		return err
	}
	if exists {
		return core.NewValidationError(ErrRollNumberExists, core.FieldError{Field: "roll_number", Error: ErrRollNumberExists.Error()})
	}
	return nil
}

func (svc *service) Create(ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	s := Student{
		ID:               uuid.New().String(),
		FullName:         ns.FullName,
		FatherName:       ns.FatherName,
		MotherName:       nullString(ns.MotherName),
		Phone:            ns.Phone,
		Email:            nullString(ns.Email),
		Address:          nullString(ns.Address),
		ClassLevel:       ns.ClassLevel,
		Status:           ns.Status,
		MonthlyFeeAmount: svc.conf.Institute.DefaultMonthlyFee,
		AcademicYear:     ns.AcademicYear,
		RollNumber:       ns.RollNumber,
		AdmissionDate:    ns.AdmissionDate.UTC(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	if ns.MonthlyFeeAmount != nil {
		s.MonthlyFeeAmount = *ns.MonthlyFeeAmount
	}
	if s.AcademicYear == "" {
		s.AcademicYear = core.AcademicYearOf(now)
	}
	if ns.AdmissionDate.IsZero() {
		s.AdmissionDate = now.Truncate(24 * time.Hour)
	}
	return svc.repo.CreateStudent(context.Background(), s)
}

func (svc *service) Get(id string) (Student, error) {
	return svc.repo.GetStudent(context.Background(), id)
}

func (svc *service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	ordering = core.FilterOrderings(ordering, OrderingFields)
	students, err := svc.repo.QueryStudents(context.Background(), filter, ordering)
	if err != nil {
		return nil, err
	}
	if len(ordering) == 0 {
		SortByRollNumber(students)
	}
	return students, nil
}

func (svc *service) Roster(ctx context.Context) ([]Student, error) {
	students, err := svc.repo.QueryStudents(ctx, new(QueryFilter), nil)
	if err != nil {
		return nil, err
	}
	SortByRollNumber(students)
	return students, nil
}

func (svc *service) ListActive(ctx context.Context) ([]Student, error) {
	students, err := svc.repo.QueryStudents(ctx, &QueryFilter{Status: StatusActive}, nil)
	if err != nil {
		return nil, err
	}
	SortByRollNumber(students)
	return students, nil
}

func (svc *service) Update(orig Student, us UpdateStudent) (Student, error) {
	s := us.apply(orig)
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(context.Background(), s)
}

func (svc *service) Delete(id string) error {
	ctx := context.Background()
	if svc.payments != nil {
		has, err := svc.payments.StudentHasPayments(ctx, id)
		if err != nil {
			return err
		}
		if has {
			return core.NewValidationError(ErrHasPayments)
		}
	}
	return svc.repo.DeleteStudent(ctx, id)
}

func (svc *service) Count(ctx context.Context) (Counts, error) {
	students, err := svc.repo.QueryStudents(ctx, new(QueryFilter), nil)
	if err != nil {
		return Counts{}, err
	}
	counts := Counts{Total: len(students)}
	for _, s := range students {
		if s.IsActive() {
			counts.Active++
		}
	}
	return counts, nil
}

// SortByRollNumber sorts students by roll number (numeric-aware), then by id.
func SortByRollNumber(students []Student) {
	sort.SliceStable(students, func(i, j int) bool {
		if c := CompareRollNumbers(students[i].RollNumber, students[j].RollNumber); c != 0 {
			return c < 0
		}
		return students[i].ID < students[j].ID
	})
}
