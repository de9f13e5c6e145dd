package repository

import (
	"fmt"

	"gorm.io/gorm"

	"docstack/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.Create(&chunks).Error; err != nil {
		return fmt.Errorf("create chunks batch failed: %w", err)
	}
	return nil
}

// ListByScope returns all chunks belonging to the scope, in creation
// order. The scope filter is mandatory; there is no unscoped variant.
func (r *ChunkRepository) ListByScope(scope model.Scope) ([]model.Chunk, error) {
	var chunks []model.Chunk
	err := r.db.
		Where("username = ? AND session_id = ?", scope.Owner, scope.Session).
		Order("relative_path ASC, seq ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("list chunks by scope failed: %w", err)
	}
	return chunks, nil
}

// ListByScopeAndPath returns one file's chunks in creation order.
func (r *ChunkRepository) ListByScopeAndPath(scope model.Scope, relativePath string) ([]model.Chunk, error) {
	var chunks []model.Chunk
	err := r.db.
		Where("username = ? AND session_id = ? AND relative_path = ?", scope.Owner, scope.Session, relativePath).
		Order("seq ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("list chunks by file failed: %w", err)
	}
	return chunks, nil
}
