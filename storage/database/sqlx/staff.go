package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/staff"
)

const staffFields = `id, name, staff_type, position, department, phone, email, address, salary, joining_date,
	qualification, experience_years, is_active, created_at, updated_at`

type staffRepository struct {
	db core.DB
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db core.DB) *staffRepository {
	return &staffRepository{db: db}
}

func (repo *staffRepository) CreateStaff(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	q := `INSERT INTO staff (` + staffFields + `)
		VALUES (:id, :name, :staff_type, :position, :department, :phone, :email, :address, :salary, :joining_date,
			:qualification, :experience_years, :is_active, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, s); err != nil {
		return staff.Staff{}, errors.Wrap(err, "inserting staff")
	}
	return s, nil
}

func (repo *staffRepository) GetStaff(ctx context.Context, id string) (staff.Staff, error) {
	if !validID(id) {
		return staff.Staff{}, staff.ErrNotFound
	}
	var s staff.Staff
	q := repo.db.Rebind("SELECT " + staffFields + " FROM staff WHERE id = ?")
	if err := repo.db.GetContext(ctx, &s, q, id); err != nil {
		return staff.Staff{}, get(err, staff.ErrNotFound)
	}
	return s, nil
}

func (repo *staffRepository) QueryStaff(ctx context.Context, filter *staff.QueryFilter) ([]staff.Staff, error) {
	var w where
	if filter != nil {
		if filter.StaffType != "" {
			w.add("staff_type = ?", filter.StaffType)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
		if filter.Search != "" {
			s := like(filter.Search)
			w.add("(name ILIKE ? OR position ILIKE ? OR phone LIKE ?)", s, s, s)
		}
	}

	members := make([]staff.Staff, 0)
	q := repo.db.Rebind("SELECT " + staffFields + " FROM staff" + w.String() + " ORDER BY created_at DESC, id")
	if err := repo.db.SelectContext(ctx, &members, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying staff")
	}
	return members, nil
}

func (repo *staffRepository) UpdateStaff(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	if !validID(s.ID) {
		return staff.Staff{}, staff.ErrNotFound
	}
	q := `UPDATE staff SET name = :name, staff_type = :staff_type, position = :position, department = :department,
		phone = :phone, email = :email, address = :address, salary = :salary, joining_date = :joining_date,
		qualification = :qualification, experience_years = :experience_years, is_active = :is_active,
		updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, s)
	if err != nil {
		return staff.Staff{}, errors.Wrap(err, "updating staff")
	}
	if err = checkAffected(res, staff.ErrNotFound); err != nil {
		return staff.Staff{}, err
	}
	return s, nil
}

func (repo *staffRepository) DeleteStaff(ctx context.Context, id string) error {
	if !validID(id) {
		return staff.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM staff WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting staff")
	}
	return checkAffected(res, staff.ErrNotFound)
}
