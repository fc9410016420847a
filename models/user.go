package models

import (
	"time"
)

// UserAccount holds per-player ledger aggregates, keyed by wallet ID.
// Created lazily on a player's first guess and mutated only by the ledger
// service; TokensEarned is the sum of rewards captured at issuance time,
// never recomputed from the current reward.
type UserAccount struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	WalletID       string    `gorm:"uniqueIndex;not null" json:"wallet_id"`
	TotalGuesses   uint64    `gorm:"not null;default:0" json:"total_guesses"`
	CorrectGuesses uint64    `gorm:"not null;default:0" json:"correct_guesses"`
	TokensEarned   uint64    `gorm:"not null;default:0" json:"tokens_earned"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Accuracy is CorrectGuesses/TotalGuesses as a percentage, 0 when the
// account has no guesses yet.
func (u *UserAccount) Accuracy() float64 {
	if u.TotalGuesses == 0 {
		return 0
	}
	return float64(u.CorrectGuesses) / float64(u.TotalGuesses) * 100
}
