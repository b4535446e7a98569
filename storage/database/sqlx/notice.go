package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/notice"
)

const noticeFields = `id, title, content, is_published, publish_date, expiry_date, created_at, updated_at`

var noticeColumns = map[string]string{
	"publish_date": "publish_date",
	"created_at":   "created_at",
}

type noticeRepository struct {
	db core.DB
}

var _ notice.Repository = (*noticeRepository)(nil) // interface compliance check

func NewNoticeRepository(db core.DB) *noticeRepository {
	return &noticeRepository{db: db}
}

func (repo *noticeRepository) CreateNotice(ctx context.Context, n notice.Notice) (notice.Notice, error) {
	q := `INSERT INTO notices (` + noticeFields + `)
		VALUES (:id, :title, :content, :is_published, :publish_date, :expiry_date, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, n); err != nil {
		return notice.Notice{}, errors.Wrap(err, "inserting notice")
	}
	return n, nil
}

func (repo *noticeRepository) GetNotice(ctx context.Context, id string) (notice.Notice, error) {
	if !validID(id) {
		return notice.Notice{}, notice.ErrNotFound
	}
	var n notice.Notice
	q := repo.db.Rebind("SELECT " + noticeFields + " FROM notices WHERE id = ?")
	if err := repo.db.GetContext(ctx, &n, q, id); err != nil {
		return notice.Notice{}, get(err, notice.ErrNotFound)
	}
	return n, nil
}

func (repo *noticeRepository) QueryNotices(ctx context.Context, publishedOnly bool, ordering []core.DBOrdering) ([]notice.Notice, error) {
	var w where
	if publishedOnly {
		w.add("is_published")
	}
	notices := make([]notice.Notice, 0)
	q := "SELECT " + noticeFields + " FROM notices" + w.String() + orderBy(ordering, noticeColumns, "id")
	if err := repo.db.SelectContext(ctx, &notices, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying notices")
	}
	return notices, nil
}

func (repo *noticeRepository) UpdateNotice(ctx context.Context, n notice.Notice) (notice.Notice, error) {
	if !validID(n.ID) {
		return notice.Notice{}, notice.ErrNotFound
	}
	q := `UPDATE notices SET title = :title, content = :content, is_published = :is_published,
		publish_date = :publish_date, expiry_date = :expiry_date, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, n)
	if err != nil {
		return notice.Notice{}, errors.Wrap(err, "updating notice")
	}
	if err = checkAffected(res, notice.ErrNotFound); err != nil {
		return notice.Notice{}, err
	}
	return n, nil
}

func (repo *noticeRepository) DeleteNotice(ctx context.Context, id string) error {
	if !validID(id) {
		return notice.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM notices WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting notice")
	}
	return checkAffected(res, notice.ErrNotFound)
}
