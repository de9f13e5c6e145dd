package repository

import (
	"fmt"

	"gorm.io/gorm"

	"docstack/internal/model"
)

type ExchangeRepository struct {
	db *gorm.DB
}

func NewExchangeRepository(db *gorm.DB) *ExchangeRepository {
	return &ExchangeRepository{db: db}
}

func (r *ExchangeRepository) Create(exchange *model.Exchange) error {
	if err := r.db.Create(exchange).Error; err != nil {
		return fmt.Errorf("create exchange failed: %w", err)
	}
	return nil
}

// ListByScope returns the scope's most recent exchanges in ascending
// display order. The limit selects from the newest side, so a long
// session never pins the endpoint to its oldest entries.
func (r *ExchangeRepository) ListByScope(scope model.Scope, limit int) ([]model.Exchange, error) {
	q := r.db.
		Where("username = ? AND session_id = ?", scope.Owner, scope.Session).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var exchanges []model.Exchange
	if err := q.Find(&exchanges).Error; err != nil {
		return nil, fmt.Errorf("list exchanges failed: %w", err)
	}
	for i, j := 0, len(exchanges)-1; i < j; i, j = i+1, j-1 {
		exchanges[i], exchanges[j] = exchanges[j], exchanges[i]
	}
	return exchanges, nil
}
