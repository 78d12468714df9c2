package model

import "time"

// Document is upload metadata only; chunk text and vectors live in the
// vector index. The row is committed last during ingestion, so a document
// visible here always has its chunks indexed.
type Document struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	AccountID  uint      `gorm:"not null;index" json:"account_id"`
	Filename   string    `gorm:"size:256;not null" json:"filename"`
	TextBytes  int       `gorm:"not null" json:"text_bytes"`
	ChunkCount int       `gorm:"not null" json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}
