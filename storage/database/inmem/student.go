package inmemdb

import (
	"context"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/student"
)

type studentRepository struct {
	db *table[student.Student]
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.student}
}

var studentColumns = map[string]func(a, b student.Student) int{
	"full_name":          func(a, b student.Student) int { return cmpString(a.FullName, b.FullName) },
	"father_name":        func(a, b student.Student) int { return cmpString(a.FatherName, b.FatherName) },
	"class_level":        func(a, b student.Student) int { return cmpString(a.ClassLevel, b.ClassLevel) },
	"status":             func(a, b student.Student) int { return cmpString(a.Status, b.Status) },
	"monthly_fee_amount": func(a, b student.Student) int { return a.MonthlyFeeAmount.Cmp(b.MonthlyFeeAmount) },
	"admission_date":     func(a, b student.Student) int { return cmpTime(a.AdmissionDate, b.AdmissionDate) },
	"created_at":         func(a, b student.Student) int { return cmpTime(a.CreatedAt, b.CreatedAt) },
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.rows[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.rows[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var keep func(student.Student) bool
	if filter != nil {
		keep = filter.Match
	}
	students := repo.db.all(keep)
	sortBy(students, append(orderingCmps(ordering, studentColumns), studentColumns["created_at"])...)
	return students, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rows[s.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.rows[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}

func (repo *studentRepository) RollNumberExists(_ context.Context, academicYear, rollNumber string, excludedIDs ...string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.rows {
		if s.AcademicYear == academicYear && s.RollNumber == rollNumber && !isExcluded(s.ID, excludedIDs) {
			return true, nil
		}
	}
	return false, nil
}
