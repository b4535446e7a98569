package inmemdb

import (
	"context"

	"github.com/trezcool/madrasa/core/reminder"
)

type reminderRepository struct {
	db       *table[reminder.Reminder]
	settings *settingsTable
}

var _ reminder.Repository = (*reminderRepository)(nil) // interface compliance check

func NewReminderRepository(db *DB) *reminderRepository {
	return &reminderRepository{db: db.reminder, settings: db.settings}
}

func (repo *reminderRepository) CreateReminders(_ context.Context, reminders ...reminder.Reminder) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for i := range reminders {
		r := reminders[i]
		repo.db.rows[r.ID] = &r
	}
	return nil
}

func (repo *reminderRepository) QueryReminders(_ context.Context, filter reminder.QueryFilter) ([]reminder.Reminder, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	reminders := repo.db.all(func(r reminder.Reminder) bool {
		return len(filter.StudentIDs) == 0 || containsID(filter.StudentIDs, r.StudentID)
	})
	sortBy(reminders, func(a, b reminder.Reminder) int { return -cmpTime(a.SentAt, b.SentAt) })
	if filter.Limit > 0 && len(reminders) > filter.Limit {
		reminders = reminders[:filter.Limit]
	}
	return reminders, nil
}

func (repo *reminderRepository) GetSettings(_ context.Context) (reminder.Settings, error) {
	repo.settings.mutex.RLock()
	defer repo.settings.mutex.RUnlock()

	if repo.settings.row == nil {
		return reminder.Settings{}, reminder.ErrSettingsNotFound
	}
	return *repo.settings.row, nil
}

func (repo *reminderRepository) SaveSettings(_ context.Context, s reminder.Settings) (reminder.Settings, error) {
	repo.settings.mutex.Lock()
	defer repo.settings.mutex.Unlock()

	repo.settings.row = &s
	return s, nil
}
