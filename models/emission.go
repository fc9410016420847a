package models

import (
	"time"
)

// EmissionStateID is the fixed primary key of the single emission row.
// The game has exactly one emission schedule; every reward application
// locks and mutates this row.
const EmissionStateID uint = 1

// EmissionState tracks token emission for the whole game: how many tokens
// have been minted since the last halving, the per-guess reward of the
// current epoch, and the identity allowed to change the rate.
type EmissionState struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	TotalMinted      uint64    `gorm:"not null;default:0" json:"total_minted"`
	CurrentReward    uint64    `gorm:"not null" json:"current_reward"`
	HalvingThreshold uint64    `gorm:"not null" json:"halving_threshold"`
	Authority        string    `gorm:"not null" json:"authority"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
