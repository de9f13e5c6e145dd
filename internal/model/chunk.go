package model

import (
	"encoding/hex"
	"time"
)

// Chunk encodings. Text chunks store content verbatim with Size in
// runes; binary chunks store hex with Size in bytes before encoding.
// A file's chunk set always uses one encoding, never both.
const (
	EncodingText = "text"
	EncodingHex  = "hex"
)

// Chunk is one bounded-size slice of a file's extracted content.
// Seq preserves creation order: concatenating a file's chunks by Seq
// reconstructs the normalized extracted text.
type Chunk struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null;index:idx_chunk_scope,priority:1" json:"username"`
	SessionID    string    `gorm:"size:64;not null;index:idx_chunk_scope,priority:2" json:"session_id"`
	RelativePath string    `gorm:"size:255;not null;index:idx_chunk_scope,priority:3" json:"relative_path"`
	Seq          int       `gorm:"not null" json:"seq"`
	Size         int       `gorm:"not null" json:"size"`
	FileURL      string    `gorm:"size:512;not null" json:"file_url"`
	Content      string    `gorm:"type:longtext;not null" json:"content"`
	Encoding     string    `gorm:"size:8;not null;default:text" json:"encoding"`
	CreatedAt    time.Time `json:"created_at"`
}

// DecodedContent returns displayable text for the chunk. Hex chunks
// are decoded best-effort; undecodable content comes back as-is so a
// caller can still show it alongside its size.
func (c *Chunk) DecodedContent() string {
	if c.Encoding != EncodingHex {
		return c.Content
	}
	raw, err := hex.DecodeString(c.Content)
	if err != nil {
		return c.Content
	}
	return string(raw)
}
