package inmemdb

import (
	"context"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/fee"
)

type feeRepository struct {
	db *table[fee.Payment]
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *DB) *feeRepository {
	return &feeRepository{db: db.payment}
}

var paymentColumns = map[string]func(a, b fee.Payment) int{
	"year":         func(a, b fee.Payment) int { return cmpInt(a.Year, b.Year) },
	"month_name":   func(a, b fee.Payment) int { return cmpInt(core.MonthIndex(a.MonthName), core.MonthIndex(b.MonthName)) },
	"amount":       func(a, b fee.Payment) int { return a.Amount.Cmp(b.Amount) },
	"payment_date": func(a, b fee.Payment) int { return cmpTime(a.PaymentDate.Time, b.PaymentDate.Time) },
	"created_at":   func(a, b fee.Payment) int { return cmpTime(a.CreatedAt, b.CreatedAt) },
}

func (repo *feeRepository) UpsertPayment(_ context.Context, p fee.Payment) (fee.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := p.Key()
	for _, existing := range repo.db.rows {
		if existing.Key() == key {
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
			break
		}
	}
	repo.db.rows[p.ID] = &p
	return p, nil
}

func (repo *feeRepository) GetPayment(_ context.Context, id string) (fee.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.rows[id]; ok {
		return *p, nil
	}
	return fee.Payment{}, fee.ErrNotFound
}

func (repo *feeRepository) UpdatePayment(_ context.Context, p fee.Payment) (fee.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rows[p.ID]; !ok {
		return fee.Payment{}, fee.ErrNotFound
	}
	repo.db.rows[p.ID] = &p
	return p, nil
}

func (repo *feeRepository) DeletePayment(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return fee.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}

func (repo *feeRepository) QueryPayments(_ context.Context, filter fee.PaymentFilter) ([]fee.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	payments := repo.db.all(filter.Match)
	sortBy(payments, append(orderingCmps(filter.Ordering, paymentColumns), paymentColumns["created_at"])...)
	if filter.Limit > 0 && len(payments) > filter.Limit {
		payments = payments[:filter.Limit]
	}
	return payments, nil
}

func (repo *feeRepository) StudentHasPayments(_ context.Context, studentID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.rows {
		if p.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

// InsertRaw stores p as is, bypassing the ledger key. It lets tests load broken data.
func (repo *feeRepository) InsertRaw(p fee.Payment) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.rows[p.ID] = &p
}
