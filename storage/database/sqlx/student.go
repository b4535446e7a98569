package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/storage/database"
)

const studentFields = `id, full_name, father_name, mother_name, phone, email, address, class_level, status,
	monthly_fee_amount, academic_year, roll_number, admission_date, created_at, updated_at`

var studentColumns = map[string]string{
	"full_name":          "full_name",
	"father_name":        "father_name",
	"class_level":        "class_level",
	"status":             "status",
	"monthly_fee_amount": "monthly_fee_amount",
	"admission_date":     "admission_date",
	"created_at":         "created_at",
}

type studentRepository struct {
	db core.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db core.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	q := `INSERT INTO students (` + studentFields + `)
		VALUES (:id, :full_name, :father_name, :mother_name, :phone, :email, :address, :class_level, :status,
			:monthly_fee_amount, :academic_year, :roll_number, :admission_date, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, s); err != nil {
		if database.IsUniqueViolation(err, "students_roll_number_key") {
			return student.Student{}, student.ErrRollNumberExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	if !validID(id) {
		return student.Student{}, student.ErrNotFound
	}
	var s student.Student
	q := repo.db.Rebind("SELECT " + studentFields + " FROM students WHERE id = ?")
	if err := repo.db.GetContext(ctx, &s, q, id); err != nil {
		return student.Student{}, get(err, student.ErrNotFound)
	}
	return s, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	var w where
	if filter != nil {
		if filter.ClassLevel != "" {
			w.add("class_level = ?", filter.ClassLevel)
		}
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
		if filter.AcademicYear != "" {
			w.add("academic_year = ?", filter.AcademicYear)
		}
		if filter.Search != "" {
			s := like(filter.Search)
			w.add("(full_name ILIKE ? OR father_name ILIKE ? OR phone LIKE ? OR roll_number ILIKE ?)", s, s, s, s)
		}
	}

	students := make([]student.Student, 0)
	q := repo.db.Rebind("SELECT " + studentFields + " FROM students" + w.String() + orderBy(ordering, studentColumns, "created_at DESC"))
	if err := repo.db.SelectContext(ctx, &students, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	if !validID(s.ID) {
		return student.Student{}, student.ErrNotFound
	}
	q := `UPDATE students SET full_name = :full_name, father_name = :father_name, mother_name = :mother_name,
		phone = :phone, email = :email, address = :address, class_level = :class_level, status = :status,
		monthly_fee_amount = :monthly_fee_amount, academic_year = :academic_year, roll_number = :roll_number,
		admission_date = :admission_date, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, s)
	if err != nil {
		if database.IsUniqueViolation(err, "students_roll_number_key") {
			return student.Student{}, student.ErrRollNumberExists
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if err = checkAffected(res, student.ErrNotFound); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	if !validID(id) {
		return student.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM students WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return checkAffected(res, student.ErrNotFound)
}

func (repo *studentRepository) RollNumberExists(ctx context.Context, academicYear, rollNumber string, excludedIDs ...string) (bool, error) {
	var w where
	w.add("academic_year = ?", academicYear)
	w.add("roll_number = ?", rollNumber)
	if excl := validIDs(excludedIDs); len(excl) > 0 {
		cond, args, err := sqlxIn("id NOT IN (?)", excl)
		if err != nil {
			return false, err
		}
		w.add(cond, args...)
	}

	var exists bool
	q := repo.db.Rebind("SELECT EXISTS (SELECT 1 FROM students" + w.String() + ")")
	if err := repo.db.GetContext(ctx, &exists, q, w.args...); err != nil {
		return false, errors.Wrap(err, "checking roll number")
	}
	return exists, nil
}
