package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/academic"
	"github.com/trezcool/madrasa/storage/database"
)

const (
	classLevelFields   = `id, name, description, monthly_fee, order_index, created_at`
	academicYearFields = `id, year_name, start_date, end_date, is_current, created_at`
)

type academicRepository struct {
	db core.DB
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db core.DB) *academicRepository {
	return &academicRepository{db: db}
}

func (repo *academicRepository) CreateClassLevel(ctx context.Context, cl academic.ClassLevel) (academic.ClassLevel, error) {
	q := `INSERT INTO class_levels (` + classLevelFields + `)
		VALUES (:id, :name, :description, :monthly_fee, :order_index, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, cl); err != nil {
		if database.IsUniqueViolation(err, "class_levels_name_key") {
			return academic.ClassLevel{}, academic.ErrClassExists
		}
		return academic.ClassLevel{}, errors.Wrap(err, "inserting class level")
	}
	return cl, nil
}

func (repo *academicRepository) GetClassLevel(ctx context.Context, id string) (academic.ClassLevel, error) {
	if !validID(id) {
		return academic.ClassLevel{}, academic.ErrClassNotFound
	}
	var cl academic.ClassLevel
	q := repo.db.Rebind("SELECT " + classLevelFields + " FROM class_levels WHERE id = ?")
	if err := repo.db.GetContext(ctx, &cl, q, id); err != nil {
		return academic.ClassLevel{}, get(err, academic.ErrClassNotFound)
	}
	return cl, nil
}

func (repo *academicRepository) QueryClassLevels(ctx context.Context) ([]academic.ClassLevel, error) {
	classes := make([]academic.ClassLevel, 0)
	q := "SELECT " + classLevelFields + " FROM class_levels ORDER BY order_index, name"
	if err := repo.db.SelectContext(ctx, &classes, q); err != nil {
		return nil, errors.Wrap(err, "querying class levels")
	}
	return classes, nil
}

func (repo *academicRepository) UpdateClassLevel(ctx context.Context, cl academic.ClassLevel) (academic.ClassLevel, error) {
	if !validID(cl.ID) {
		return academic.ClassLevel{}, academic.ErrClassNotFound
	}
	q := `UPDATE class_levels SET name = :name, description = :description, monthly_fee = :monthly_fee,
		order_index = :order_index
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, cl)
	if err != nil {
		if database.IsUniqueViolation(err, "class_levels_name_key") {
			return academic.ClassLevel{}, academic.ErrClassExists
		}
		return academic.ClassLevel{}, errors.Wrap(err, "updating class level")
	}
	if err = checkAffected(res, academic.ErrClassNotFound); err != nil {
		return academic.ClassLevel{}, err
	}
	return cl, nil
}

func (repo *academicRepository) DeleteClassLevel(ctx context.Context, id string) error {
	if !validID(id) {
		return academic.ErrClassNotFound
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM class_levels WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting class level")
	}
	return checkAffected(res, academic.ErrClassNotFound)
}

func (repo *academicRepository) ClassLevelExists(ctx context.Context, name string, excludedIDs ...string) (bool, error) {
	var w where
	w.add("lower(name) = lower(?)", name)
	if excl := validIDs(excludedIDs); len(excl) > 0 {
		cond, args, err := sqlxIn("id NOT IN (?)", excl)
		if err != nil {
			return false, err
		}
		w.add(cond, args...)
	}

	var exists bool
	q := repo.db.Rebind("SELECT EXISTS (SELECT 1 FROM class_levels" + w.String() + ")")
	if err := repo.db.GetContext(ctx, &exists, q, w.args...); err != nil {
		return false, errors.Wrap(err, "checking class level name")
	}
	return exists, nil
}

func (repo *academicRepository) CreateAcademicYear(ctx context.Context, ay academic.AcademicYear) (academic.AcademicYear, error) {
	q := `INSERT INTO academic_years (` + academicYearFields + `)
		VALUES (:id, :year_name, :start_date, :end_date, :is_current, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, ay); err != nil {
		if database.IsUniqueViolation(err, "academic_years_year_name_key") {
			return academic.AcademicYear{}, academic.ErrYearExists
		}
		return academic.AcademicYear{}, errors.Wrap(err, "inserting academic year")
	}
	return ay, nil
}

func (repo *academicRepository) GetAcademicYear(ctx context.Context, id string) (academic.AcademicYear, error) {
	if !validID(id) {
		return academic.AcademicYear{}, academic.ErrYearNotFound
	}
	var ay academic.AcademicYear
	q := repo.db.Rebind("SELECT " + academicYearFields + " FROM academic_years WHERE id = ?")
	if err := repo.db.GetContext(ctx, &ay, q, id); err != nil {
		return academic.AcademicYear{}, get(err, academic.ErrYearNotFound)
	}
	return ay, nil
}

func (repo *academicRepository) QueryAcademicYears(ctx context.Context) ([]academic.AcademicYear, error) {
	years := make([]academic.AcademicYear, 0)
	q := "SELECT " + academicYearFields + " FROM academic_years ORDER BY start_date DESC"
	if err := repo.db.SelectContext(ctx, &years, q); err != nil {
		return nil, errors.Wrap(err, "querying academic years")
	}
	return years, nil
}

func (repo *academicRepository) DeleteAcademicYear(ctx context.Context, id string) error {
	if !validID(id) {
		return academic.ErrYearNotFound
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM academic_years WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting academic year")
	}
	return checkAffected(res, academic.ErrYearNotFound)
}

func (repo *academicRepository) AcademicYearExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	q := repo.db.Rebind("SELECT EXISTS (SELECT 1 FROM academic_years WHERE year_name = ?)")
	if err := repo.db.GetContext(ctx, &exists, q, name); err != nil {
		return false, errors.Wrap(err, "checking academic year")
	}
	return exists, nil
}

// SetCurrentAcademicYear clears the current flag then sets it on id, in one transaction.
func (repo *academicRepository) SetCurrentAcademicYear(ctx context.Context, id string) error {
	if !validID(id) {
		return academic.ErrYearNotFound
	}
	return database.WithTx(ctx, repo.db, func(tx core.DBTransactor) error {
		if _, err := tx.ExecContext(ctx, "UPDATE academic_years SET is_current = FALSE WHERE is_current"); err != nil {
			return errors.Wrap(err, "clearing current academic year")
		}
		res, err := tx.ExecContext(ctx, tx.Rebind("UPDATE academic_years SET is_current = TRUE WHERE id = ?"), id)
		if err != nil {
			return errors.Wrap(err, "setting current academic year")
		}
		return checkAffected(res, academic.ErrYearNotFound)
	})
}
