package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docstack/internal/model"
)

// ErrDuplicateFile signals that (owner, session, file name) is already
// ingested. The unique constraint is the source of truth, so concurrent
// uploads of the same file cannot both succeed.
var ErrDuplicateFile = errors.New("file already ingested for this session")

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(file *model.UploadedFile) error {
	if err := r.db.Create(file).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateFile
		}
		return fmt.Errorf("create uploaded file failed: %w", err)
	}
	return nil
}

// Delete removes one metadata row by its scope and file name. Used to
// release the dedup guard when an ingestion fails after the insert.
func (r *FileRepository) Delete(file *model.UploadedFile) error {
	err := r.db.
		Where("username = ? AND session_id = ? AND file_name = ?", file.Username, file.SessionID, file.FileName).
		Delete(&model.UploadedFile{}).Error
	if err != nil {
		return fmt.Errorf("delete uploaded file failed: %w", err)
	}
	return nil
}

func (r *FileRepository) ListByScope(scope model.Scope) ([]model.UploadedFile, error) {
	var files []model.UploadedFile
	err := r.db.
		Where("username = ? AND session_id = ?", scope.Owner, scope.Session).
		Order("created_at ASC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list uploaded files failed: %w", err)
	}
	return files, nil
}

func (r *FileRepository) GetByScopeAndName(scope model.Scope, fileName string) (*model.UploadedFile, error) {
	var file model.UploadedFile
	err := r.db.
		Where("username = ? AND session_id = ? AND file_name = ?", scope.Owner, scope.Session, fileName).
		First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get uploaded file failed: %w", err)
	}
	return &file, nil
}
