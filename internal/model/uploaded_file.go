package model

import "time"

// UploadedFile is the metadata record for one ingested document.
// The unique index over (username, session_id, file_name) is the
// idempotence guard: re-uploading within the same session trips the
// constraint instead of racing a check-then-insert.
type UploadedFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:64;not null;uniqueIndex:uniq_file_scope,priority:1" json:"username"`
	SessionID string    `gorm:"size:64;not null;uniqueIndex:uniq_file_scope,priority:2" json:"session_id"`
	FileName  string    `gorm:"size:255;not null;uniqueIndex:uniq_file_scope,priority:3" json:"file_name"`
	StageName string    `gorm:"size:128;not null" json:"stage_name"`
	CreatedAt time.Time `json:"created_at"`
}
