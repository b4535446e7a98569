package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/reminder"
	"github.com/trezcool/madrasa/storage/database"
)

const (
	reminderFields = `id, student_id, reminder_type, message, sent_to, status, sent_at`
	settingsFields = `reminder_frequency, reminder_day, sms_enabled, email_enabled, reminder_message_template, updated_at`
)

type reminderRepository struct {
	db core.DB
}

var _ reminder.Repository = (*reminderRepository)(nil) // interface compliance check

func NewReminderRepository(db core.DB) *reminderRepository {
	return &reminderRepository{db: db}
}

func (repo *reminderRepository) CreateReminders(ctx context.Context, reminders ...reminder.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	q := `INSERT INTO fee_reminders (` + reminderFields + `)
		VALUES (:id, :student_id, :reminder_type, :message, :sent_to, :status, :sent_at)`
	return database.WithTx(ctx, repo.db, func(tx core.DBTransactor) error {
		for _, r := range reminders {
			if _, err := tx.NamedExecContext(ctx, q, r); err != nil {
				return errors.Wrap(err, "inserting reminder")
			}
		}
		return nil
	})
}

func (repo *reminderRepository) QueryReminders(ctx context.Context, filter reminder.QueryFilter) ([]reminder.Reminder, error) {
	reminders := make([]reminder.Reminder, 0)

	var w where
	if len(filter.StudentIDs) > 0 {
		ids := validIDs(filter.StudentIDs)
		if len(ids) == 0 {
			return reminders, nil
		}
		if err := w.in("student_id", ids); err != nil {
			return nil, err
		}
	}

	q := "SELECT " + reminderFields + " FROM fee_reminders" + w.String() + " ORDER BY sent_at DESC, id"
	if filter.Limit > 0 {
		q += " LIMIT ?"
		w.args = append(w.args, filter.Limit)
	}
	if err := repo.db.SelectContext(ctx, &reminders, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying reminders")
	}
	return reminders, nil
}

func (repo *reminderRepository) GetSettings(ctx context.Context) (reminder.Settings, error) {
	var s reminder.Settings
	if err := repo.db.GetContext(ctx, &s, "SELECT "+settingsFields+" FROM reminder_settings WHERE id = 1"); err != nil {
		return reminder.Settings{}, get(err, reminder.ErrSettingsNotFound)
	}
	return s, nil
}

func (repo *reminderRepository) SaveSettings(ctx context.Context, s reminder.Settings) (reminder.Settings, error) {
	q := `INSERT INTO reminder_settings (id, ` + settingsFields + `)
		VALUES (1, :reminder_frequency, :reminder_day, :sms_enabled, :email_enabled, :reminder_message_template, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			reminder_frequency = EXCLUDED.reminder_frequency,
			reminder_day = EXCLUDED.reminder_day,
			sms_enabled = EXCLUDED.sms_enabled,
			email_enabled = EXCLUDED.email_enabled,
			reminder_message_template = EXCLUDED.reminder_message_template,
			updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.NamedExecContext(ctx, q, s); err != nil {
		return reminder.Settings{}, errors.Wrap(err, "saving reminder settings")
	}
	return s, nil
}
