package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ChallengeStatus indicates the publishing status of a challenge
type ChallengeStatus string

const (
	ChallengeStatusDraft     ChallengeStatus = "draft"
	ChallengeStatusScheduled ChallengeStatus = "scheduled"
	ChallengeStatusActive    ChallengeStatus = "active"
	ChallengeStatusArchived  ChallengeStatus = "archived"
)

// EmbeddingVector stores a float32 embedding as a JSON text column so the
// same model works on Postgres and the in-memory test driver.
type EmbeddingVector []float32

func (v EmbeddingVector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (v *EmbeddingVector) Scan(src interface{}) error {
	if src == nil {
		*v = nil
		return nil
	}
	switch s := src.(type) {
	case []byte:
		return json.Unmarshal(s, v)
	case string:
		return json.Unmarshal([]byte(s), v)
	default:
		return fmt.Errorf("cannot scan %T into EmbeddingVector", src)
	}
}

// Challenge is an AI-generated image plus the prompt that produced it.
// ActualPrompt is never exposed on public endpoints; PromptEmbedding is an
// optional precomputed vector for semantic scoring.
type Challenge struct {
	ID              string          `gorm:"primaryKey;type:uuid" json:"id"`
	Title           string          `gorm:"not null" json:"title"`
	Slug            string          `gorm:"uniqueIndex;not null" json:"slug"`
	ActualPrompt    string          `gorm:"type:text;not null" json:"-"`
	PromptEmbedding EmbeddingVector `gorm:"type:text" json:"-"`
	ImageURL        string          `gorm:"type:text" json:"image_url"`
	Difficulty      string          `gorm:"default:'medium'" json:"difficulty"`
	Status          ChallengeStatus `gorm:"not null;default:'draft';index" json:"status"`
	PublishAt       *time.Time      `json:"publish_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}
