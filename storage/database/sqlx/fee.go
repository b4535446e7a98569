package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/fee"
)

const paymentFields = `id, student_id, fee_type, month_name, year, amount, payment_status, partial_amount,
	payment_date, payment_mode, remarks, created_at, updated_at`

var paymentColumns = map[string]string{
	"year": "year",
	"month_name": `array_position(ARRAY['January','February','March','April','May','June',
		'July','August','September','October','November','December'], initcap(btrim(month_name)))`,
	"amount":       "amount",
	"payment_date": "payment_date",
	"created_at":   "created_at",
}

type feeRepository struct {
	db core.DB
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db core.DB) *feeRepository {
	return &feeRepository{db: db}
}

// UpsertPayment relies on the ledger key constraint so concurrent writers for one period converge on a single row.
func (repo *feeRepository) UpsertPayment(ctx context.Context, p fee.Payment) (fee.Payment, error) {
	q := `INSERT INTO fee_payments (` + paymentFields + `)
		VALUES (:id, :student_id, :fee_type, :month_name, :year, :amount, :payment_status, :partial_amount,
			:payment_date, :payment_mode, :remarks, :created_at, :updated_at)
		ON CONFLICT ON CONSTRAINT fee_payments_ledger_key DO UPDATE SET
			amount = EXCLUDED.amount,
			payment_status = EXCLUDED.payment_status,
			partial_amount = EXCLUDED.partial_amount,
			payment_date = EXCLUDED.payment_date,
			payment_mode = EXCLUDED.payment_mode,
			remarks = EXCLUDED.remarks,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + paymentFields

	rows, err := sqlx.NamedQueryContext(ctx, repo.db, q, p)
	if err != nil {
		return fee.Payment{}, errors.Wrap(err, "upserting payment")
	}
	defer func() { _ = rows.Close() }()

	var saved fee.Payment
	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return fee.Payment{}, errors.Wrap(err, "upserting payment")
		}
		return fee.Payment{}, errors.New("upserting payment: no row returned")
	}
	if err = rows.StructScan(&saved); err != nil {
		return fee.Payment{}, errors.Wrap(err, "scanning payment")
	}
	return saved, nil
}

func (repo *feeRepository) GetPayment(ctx context.Context, id string) (fee.Payment, error) {
	if !validID(id) {
		return fee.Payment{}, fee.ErrNotFound
	}
	var p fee.Payment
	q := repo.db.Rebind("SELECT " + paymentFields + " FROM fee_payments WHERE id = ?")
	if err := repo.db.GetContext(ctx, &p, q, id); err != nil {
		return fee.Payment{}, get(err, fee.ErrNotFound)
	}
	return p, nil
}

func (repo *feeRepository) UpdatePayment(ctx context.Context, p fee.Payment) (fee.Payment, error) {
	if !validID(p.ID) {
		return fee.Payment{}, fee.ErrNotFound
	}
	q := `UPDATE fee_payments SET amount = :amount, payment_status = :payment_status, partial_amount = :partial_amount,
		payment_date = :payment_date, payment_mode = :payment_mode, remarks = :remarks, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, p)
	if err != nil {
		return fee.Payment{}, errors.Wrap(err, "updating payment")
	}
	if err = checkAffected(res, fee.ErrNotFound); err != nil {
		return fee.Payment{}, err
	}
	return p, nil
}

func (repo *feeRepository) DeletePayment(ctx context.Context, id string) error {
	if !validID(id) {
		return fee.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM fee_payments WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting payment")
	}
	return checkAffected(res, fee.ErrNotFound)
}

func (repo *feeRepository) QueryPayments(ctx context.Context, filter fee.PaymentFilter) ([]fee.Payment, error) {
	payments := make([]fee.Payment, 0)

	var w where
	if len(filter.StudentIDs) > 0 {
		ids := validIDs(filter.StudentIDs)
		if len(ids) == 0 {
			return payments, nil
		}
		if err := w.in("student_id", ids); err != nil {
			return nil, err
		}
	}
	if filter.FeeType != "" {
		w.add("fee_type = ?", filter.FeeType)
	}
	if filter.MonthName != "" {
		month, _ := core.NormalizeMonth(filter.MonthName)
		w.add("initcap(btrim(month_name)) = ?", month)
	}
	if filter.Year != 0 {
		w.add("year = ?", filter.Year)
	}
	if len(filter.Statuses) > 0 {
		if err := w.in("payment_status", filter.Statuses); err != nil {
			return nil, err
		}
	}

	q := "SELECT " + paymentFields + " FROM fee_payments" + w.String() +
		orderBy(filter.Ordering, paymentColumns, "created_at DESC", "id")
	if filter.Limit > 0 {
		q += " LIMIT ?"
		w.args = append(w.args, filter.Limit)
	}
	if err := repo.db.SelectContext(ctx, &payments, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	return payments, nil
}

func (repo *feeRepository) StudentHasPayments(ctx context.Context, studentID string) (bool, error) {
	if !validID(studentID) {
		return false, nil
	}
	var exists bool
	q := repo.db.Rebind("SELECT EXISTS (SELECT 1 FROM fee_payments WHERE student_id = ?)")
	if err := repo.db.GetContext(ctx, &exists, q, studentID); err != nil {
		return false, errors.Wrap(err, "checking student payments")
	}
	return exists, nil
}
