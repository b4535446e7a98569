package inmemdb

import (
	"context"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/notice"
)

type noticeRepository struct {
	db *table[notice.Notice]
}

var _ notice.Repository = (*noticeRepository)(nil) // interface compliance check

func NewNoticeRepository(db *DB) *noticeRepository {
	return &noticeRepository{db: db.notice}
}

var noticeColumns = map[string]func(a, b notice.Notice) int{
	"publish_date": func(a, b notice.Notice) int { return cmpTime(a.PublishDate, b.PublishDate) },
	"created_at":   func(a, b notice.Notice) int { return cmpTime(a.CreatedAt, b.CreatedAt) },
}

func (repo *noticeRepository) CreateNotice(_ context.Context, n notice.Notice) (notice.Notice, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.rows[n.ID] = &n
	return n, nil
}

func (repo *noticeRepository) GetNotice(_ context.Context, id string) (notice.Notice, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if n, ok := repo.db.rows[id]; ok {
		return *n, nil
	}
	return notice.Notice{}, notice.ErrNotFound
}

func (repo *noticeRepository) QueryNotices(_ context.Context, publishedOnly bool, ordering []core.DBOrdering) ([]notice.Notice, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	notices := repo.db.all(func(n notice.Notice) bool { return !publishedOnly || n.IsPublished })
	sortBy(notices, orderingCmps(ordering, noticeColumns)...)
	return notices, nil
}

func (repo *noticeRepository) UpdateNotice(_ context.Context, n notice.Notice) (notice.Notice, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rows[n.ID]; !ok {
		return notice.Notice{}, notice.ErrNotFound
	}
	repo.db.rows[n.ID] = &n
	return n, nil
}

func (repo *noticeRepository) DeleteNotice(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return notice.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}
