package models

import (
	"time"
)

// Guess is the append-only audit trail of every submission. Rows are never
// updated or deleted; replaying a wallet's guesses must reproduce its
// UserAccount aggregates.
type Guess struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	WalletID     string    `gorm:"index;not null" json:"wallet_id"`
	ChallengeID  string    `gorm:"index;not null" json:"challenge_id"`
	GuessText    string    `gorm:"type:text;not null" json:"guess_text"`
	Algorithm    string    `gorm:"not null" json:"algorithm"`
	Score        float64   `json:"score"`
	IsCorrect    bool      `gorm:"not null" json:"is_correct"`
	TokensEarned uint64    `gorm:"not null;default:0" json:"tokens_earned"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}
