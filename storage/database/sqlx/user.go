package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/user"
	"github.com/trezcool/madrasa/storage/database"
)

const userFields = `id, name, username, email, is_active, password_hash, created_at, updated_at, last_login`

var userColumns = map[string]string{
	"name":       "name",
	"username":   "username",
	"email":      "email",
	"is_active":  "is_active",
	"created_at": "created_at",
	"last_login": "last_login",
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	var w where
	w.add("((username <> '' AND username = ?) OR (email <> '' AND email = ?))", username, email)
	excl := make([]string, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		if validID(u.ID) {
			excl = append(excl, u.ID)
		}
	}
	if len(excl) > 0 {
		cond, args, err := sqlxIn("id NOT IN (?)", excl)
		if err != nil {
			return err
		}
		w.add(cond, args...)
	}

	var taken []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	q := repo.db.Rebind("SELECT username, email FROM users" + w.String())
	if err := repo.db.SelectContext(ctx, &taken, q, w.args...); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	for _, t := range taken {
		if username != "" && t.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(taken) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO users (` + userFields + `)
		VALUES (:id, :name, :username, :email, :is_active, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, usr); err != nil {
		if database.IsUniqueViolation(err, "users_username_key") {
			return user.User{}, user.ErrUsernameExists
		}
		if database.IsUniqueViolation(err, "users_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var w where
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		w.add("id = ?", filter.ID)
	default:
		vals := make([]string, 0, len(filter.UsernameOrEmail))
		for _, v := range filter.UsernameOrEmail {
			if v != "" {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			return user.User{}, user.ErrNotFound
		}
		cond, args, err := sqlxIn("(username IN (?) OR email IN (?))", vals, vals)
		if err != nil {
			return user.User{}, err
		}
		w.add(cond, args...)
	}

	var usr user.User
	q := repo.db.Rebind("SELECT " + userFields + " FROM users" + w.String() + " LIMIT 1")
	if err := repo.db.GetContext(ctx, &usr, q, w.args...); err != nil {
		return user.User{}, get(err, user.ErrNotFound)
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var w where
	if filter != nil {
		if filter.Search != "" {
			s := like(filter.Search)
			w.add("(name ILIKE ? OR username ILIKE ? OR email ILIKE ?)", s, s, s)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			w.add("created_at >= ?", filter.CreatedFrom)
		}
		if !filter.CreatedTo.IsZero() {
			w.add("created_at <= ?", filter.CreatedTo)
		}
	}

	users := make([]user.User, 0)
	q := repo.db.Rebind("SELECT " + userFields + " FROM users" + w.String() + orderBy(ordering, userColumns, "username ASC"))
	if err := repo.db.SelectContext(ctx, &users, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if !validID(usr.ID) {
		return user.User{}, user.ErrNotFound
	}
	q := `UPDATE users SET name = :name, username = :username, email = :email, is_active = :is_active,
		password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err = checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlxIn("DELETE FROM users WHERE id IN (?)", ids)
	if err != nil {
		return err
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
