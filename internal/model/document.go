package model

import "time"

// DocumentRecord is one successful index run. Only the newest run is active
// because indexing replaces the whole collection.
type DocumentRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Filename   string    `gorm:"size:512;not null;index" json:"filename"`
	ChunkCount int       `gorm:"not null" json:"chunk_count"`
	Collection string    `gorm:"size:128;not null;index" json:"collection"`
	Active     bool      `gorm:"not null;index" json:"active"`
	IndexedAt  time.Time `gorm:"autoCreateTime" json:"indexed_at"`
}

// ChunkPayload is what the vector store keeps next to each vector.
type ChunkPayload struct {
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}
