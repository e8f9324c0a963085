package model

import "time"

type Evaluation struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// EvaluationRecord is the persisted form of an evaluation. The answer text
// itself is never stored, only its length.
type EvaluationRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Query       string    `gorm:"type:text;not null" json:"query"`
	Action      string    `gorm:"size:32;not null;index" json:"action"`
	Score       int       `gorm:"not null" json:"score"`
	Feedback    string    `gorm:"size:256;not null" json:"feedback"`
	AnswerChars int       `gorm:"not null" json:"answer_chars"`
	CreatedAt   time.Time `json:"created_at"`
}
