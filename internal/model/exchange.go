package model

import "time"

// Exchange records one answered question within a scope.
type Exchange struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"size:64;not null;index:idx_exchange_scope,priority:1" json:"username"`
	SessionID  string    `gorm:"size:64;not null;index:idx_exchange_scope,priority:2" json:"session_id"`
	Question   string    `gorm:"type:text;not null" json:"question"`
	Answer     string    `gorm:"type:text;not null" json:"answer"`
	MatchCount int       `gorm:"not null" json:"match_count"`
	CreatedAt  time.Time `json:"created_at"`
}
