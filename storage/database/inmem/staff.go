package inmemdb

import (
	"context"

	"github.com/trezcool/madrasa/core/staff"
)

type staffRepository struct {
	db *table[staff.Staff]
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *DB) *staffRepository {
	return &staffRepository{db: db.staff}
}

func (repo *staffRepository) CreateStaff(_ context.Context, s staff.Staff) (staff.Staff, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.rows[s.ID] = &s
	return s, nil
}

func (repo *staffRepository) GetStaff(_ context.Context, id string) (staff.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.rows[id]; ok {
		return *s, nil
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) QueryStaff(_ context.Context, filter *staff.QueryFilter) ([]staff.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var keep func(staff.Staff) bool
	if filter != nil {
		keep = filter.Match
	}
	members := repo.db.all(keep)
	sortBy(members, func(a, b staff.Staff) int { return -cmpTime(a.CreatedAt, b.CreatedAt) })
	return members, nil
}

func (repo *staffRepository) UpdateStaff(_ context.Context, s staff.Staff) (staff.Staff, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rows[s.ID]; !ok {
		return staff.Staff{}, staff.ErrNotFound
	}
	repo.db.rows[s.ID] = &s
	return s, nil
}

func (repo *staffRepository) DeleteStaff(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return staff.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}
