package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/madrasa/core/academic"
)

type academicRepository struct {
	classes *table[academic.ClassLevel]
	years   *table[academic.AcademicYear]
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db *DB) *academicRepository {
	return &academicRepository{classes: db.classLevel, years: db.academicYear}
}

func (repo *academicRepository) CreateClassLevel(_ context.Context, cl academic.ClassLevel) (academic.ClassLevel, error) {
	repo.classes.mutex.Lock()
	defer repo.classes.mutex.Unlock()

	repo.classes.rows[cl.ID] = &cl
	return cl, nil
}

func (repo *academicRepository) GetClassLevel(_ context.Context, id string) (academic.ClassLevel, error) {
	repo.classes.mutex.RLock()
	defer repo.classes.mutex.RUnlock()

	if cl, ok := repo.classes.rows[id]; ok {
		return *cl, nil
	}
	return academic.ClassLevel{}, academic.ErrClassNotFound
}

func (repo *academicRepository) QueryClassLevels(_ context.Context) ([]academic.ClassLevel, error) {
	repo.classes.mutex.RLock()
	defer repo.classes.mutex.RUnlock()

	classes := repo.classes.all(nil)
	sortBy(classes,
		func(a, b academic.ClassLevel) int { return cmpInt(a.OrderIndex, b.OrderIndex) },
		func(a, b academic.ClassLevel) int { return cmpString(a.Name, b.Name) },
	)
	return classes, nil
}

func (repo *academicRepository) UpdateClassLevel(_ context.Context, cl academic.ClassLevel) (academic.ClassLevel, error) {
	repo.classes.mutex.Lock()
	defer repo.classes.mutex.Unlock()

	if _, ok := repo.classes.rows[cl.ID]; !ok {
		return academic.ClassLevel{}, academic.ErrClassNotFound
	}
	repo.classes.rows[cl.ID] = &cl
	return cl, nil
}

func (repo *academicRepository) DeleteClassLevel(_ context.Context, id string) error {
	repo.classes.mutex.Lock()
	defer repo.classes.mutex.Unlock()

	if _, ok := repo.classes.rows[id]; !ok {
		return academic.ErrClassNotFound
	}
	delete(repo.classes.rows, id)
	return nil
}

func (repo *academicRepository) ClassLevelExists(_ context.Context, name string, excludedIDs ...string) (bool, error) {
	repo.classes.mutex.RLock()
	defer repo.classes.mutex.RUnlock()

	for _, cl := range repo.classes.rows {
		if strings.EqualFold(cl.Name, name) && !isExcluded(cl.ID, excludedIDs) {
			return true, nil
		}
	}
	return false, nil
}

func (repo *academicRepository) CreateAcademicYear(_ context.Context, ay academic.AcademicYear) (academic.AcademicYear, error) {
	repo.years.mutex.Lock()
	defer repo.years.mutex.Unlock()

	repo.years.rows[ay.ID] = &ay
	return ay, nil
}

func (repo *academicRepository) GetAcademicYear(_ context.Context, id string) (academic.AcademicYear, error) {
	repo.years.mutex.RLock()
	defer repo.years.mutex.RUnlock()

	if ay, ok := repo.years.rows[id]; ok {
		return *ay, nil
	}
	return academic.AcademicYear{}, academic.ErrYearNotFound
}

func (repo *academicRepository) QueryAcademicYears(_ context.Context) ([]academic.AcademicYear, error) {
	repo.years.mutex.RLock()
	defer repo.years.mutex.RUnlock()

	years := repo.years.all(nil)
	sortBy(years, func(a, b academic.AcademicYear) int { return -cmpTime(a.StartDate, b.StartDate) })
	return years, nil
}

func (repo *academicRepository) DeleteAcademicYear(_ context.Context, id string) error {
	repo.years.mutex.Lock()
	defer repo.years.mutex.Unlock()

	if _, ok := repo.years.rows[id]; !ok {
		return academic.ErrYearNotFound
	}
	delete(repo.years.rows, id)
	return nil
}

func (repo *academicRepository) AcademicYearExists(_ context.Context, name string) (bool, error) {
	repo.years.mutex.RLock()
	defer repo.years.mutex.RUnlock()

	for _, ay := range repo.years.rows {
		if ay.YearName == name {
			return true, nil
		}
	}
	return false, nil
}

func (repo *academicRepository) SetCurrentAcademicYear(_ context.Context, id string) error {
	repo.years.mutex.Lock()
	defer repo.years.mutex.Unlock()

	if _, ok := repo.years.rows[id]; !ok {
		return academic.ErrYearNotFound
	}
	for _, ay := range repo.years.rows {
		ay.IsCurrent = ay.ID == id
	}
	return nil
}
