// services/ledger_service.go
package services

import (
	"errors"
	"log"

	"prompt-guess-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ledgerRetries bounds the optimistic-concurrency retry loop before a
// conflict surfaces as ErrConcurrentModification.
const ledgerRetries = 3

// errEmissionConflict signals a lost CAS race inside one attempt; retried
// internally, never returned to callers.
var errEmissionConflict = errors.New("emission state changed underneath update")

// LedgerService owns all mutable game state: the emission row, per-wallet
// accounts, and the append-only guess trail. Emission updates are guarded by
// a compare-and-swap on the values read at the start of the transaction, so
// two concurrent correct guesses can never both bank the same pre-halving
// reward.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// RewardResult reports what a single reward application issued.
type RewardResult struct {
	TokensEarned uint64 `json:"tokens_earned"`
	NewBalance   uint64 `json:"new_balance"`
}

// Initialize creates the singleton emission row. Fails with
// ErrAlreadyInitialized when called twice.
func (s *LedgerService) Initialize(authority string, initialReward, halvingThreshold uint64) (*models.EmissionState, error) {
	if authority == "" || initialReward == 0 || halvingThreshold == 0 {
		return nil, ErrInvalidInput
	}

	state := &models.EmissionState{
		ID:               models.EmissionStateID,
		TotalMinted:      0,
		CurrentReward:    initialReward,
		HalvingThreshold: halvingThreshold,
		Authority:        authority,
	}

	res := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(state)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyInitialized
	}
	log.Printf("Ledger initialized: reward=%d threshold=%d authority=%s",
		initialReward, halvingThreshold, authority)
	return state, nil
}

// EmissionState returns the current emission row, ErrLedgerNotFound when the
// game was never initialized.
func (s *LedgerService) EmissionState() (*models.EmissionState, error) {
	var state models.EmissionState
	if err := s.DB.First(&state, "id = ?", models.EmissionStateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, err
	}
	return &state, nil
}

// GetOrCreateUser returns the account for a wallet, creating a zeroed row on
// first use. Idempotent; an existing account is never overwritten.
func (s *LedgerService) GetOrCreateUser(walletID string) (*models.UserAccount, error) {
	if walletID == "" {
		return nil, ErrInvalidInput
	}

	account := models.UserAccount{ID: uuid.NewString(), WalletID: walletID}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_id"}},
		DoNothing: true,
	}).Create(&account).Error; err != nil {
		return nil, err
	}

	var existing models.UserAccount
	if err := s.DB.Where("wallet_id = ?", walletID).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// ApplyReward atomically advances the emission schedule, credits the wallet
// with the pre-halving reward, and appends the guess record. All three
// writes commit together or not at all.
func (s *LedgerService) ApplyReward(walletID, challengeID, guessText string, algorithm Algorithm, score float64) (*RewardResult, error) {
	if walletID == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.GetOrCreateUser(walletID); err != nil {
		return nil, err
	}

	var result *RewardResult
	for attempt := 0; attempt < ledgerRetries; attempt++ {
		res, err := s.tryApplyReward(walletID, challengeID, guessText, algorithm, score)
		if errors.Is(err, errEmissionConflict) {
			log.Printf("Emission CAS conflict for wallet %s (attempt %d), retrying", walletID, attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}
		result = res
		break
	}
	if result == nil {
		return nil, ErrConcurrentModification
	}
	return result, nil
}

func (s *LedgerService) tryApplyReward(walletID, challengeID, guessText string, algorithm Algorithm, score float64) (*RewardResult, error) {
	var result RewardResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var state models.EmissionState
		if err := tx.First(&state, "id = ?", models.EmissionStateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLedgerNotFound
			}
			return err
		}

		reward, next := NextEmission(Emission{
			TotalMinted:      state.TotalMinted,
			CurrentReward:    state.CurrentReward,
			HalvingThreshold: state.HalvingThreshold,
		})

		// CAS guard: only commit if nobody advanced the schedule since the
		// read above.
		update := tx.Model(&models.EmissionState{}).
			Where("id = ? AND total_minted = ? AND current_reward = ?",
				models.EmissionStateID, state.TotalMinted, state.CurrentReward).
			Updates(map[string]interface{}{
				"total_minted":   next.TotalMinted,
				"current_reward": next.CurrentReward,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return errEmissionConflict
		}

		if next.CurrentReward != state.CurrentReward {
			log.Printf("Reward halved: %d -> %d (carry %d past threshold)",
				state.CurrentReward, next.CurrentReward, next.TotalMinted)
		}

		credit := tx.Model(&models.UserAccount{}).
			Where("wallet_id = ?", walletID).
			Updates(map[string]interface{}{
				"total_guesses":   gorm.Expr("total_guesses + 1"),
				"correct_guesses": gorm.Expr("correct_guesses + 1"),
				"tokens_earned":   gorm.Expr("tokens_earned + ?", reward),
			})
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		guess := models.Guess{
			ID:           uuid.NewString(),
			WalletID:     walletID,
			ChallengeID:  challengeID,
			GuessText:    guessText,
			Algorithm:    string(algorithm),
			Score:        score,
			IsCorrect:    true,
			TokensEarned: reward,
		}
		if err := tx.Create(&guess).Error; err != nil {
			return err
		}

		var account models.UserAccount
		if err := tx.Where("wallet_id = ?", walletID).First(&account).Error; err != nil {
			return err
		}
		result = RewardResult{TokensEarned: reward, NewBalance: account.TokensEarned}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RecordIncorrectGuess bumps the wallet's attempt counter and appends the
// audit row. The emission schedule is untouched.
func (s *LedgerService) RecordIncorrectGuess(walletID, challengeID, guessText string, algorithm Algorithm, score float64) error {
	if walletID == "" {
		return ErrInvalidInput
	}
	if _, err := s.GetOrCreateUser(walletID); err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.UserAccount{}).
			Where("wallet_id = ?", walletID).
			Update("total_guesses", gorm.Expr("total_guesses + 1")).Error; err != nil {
			return err
		}

		guess := models.Guess{
			ID:          uuid.NewString(),
			WalletID:    walletID,
			ChallengeID: challengeID,
			GuessText:   guessText,
			Algorithm:   string(algorithm),
			Score:       score,
			IsCorrect:   false,
		}
		return tx.Create(&guess).Error
	})
}

// authorize is the single authority check: bare identity equality against
// the emission row. Only rate changes and authority transfer go through it;
// reward issuance is driven by gameplay and open to anyone.
func (s *LedgerService) authorize(caller string, state *models.EmissionState) error {
	if caller != state.Authority {
		return ErrUnauthorized
	}
	return nil
}

// SetReward overwrites the current per-guess reward directly, bypassing the
// halving formula. Admin correction path, authority only.
func (s *LedgerService) SetReward(caller string, newReward uint64) (*models.EmissionState, error) {
	if newReward == 0 {
		return nil, ErrInvalidInput
	}

	state, err := s.EmissionState()
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, state); err != nil {
		return nil, err
	}

	if err := s.DB.Model(&models.EmissionState{}).
		Where("id = ?", models.EmissionStateID).
		Update("current_reward", newReward).Error; err != nil {
		return nil, err
	}

	log.Printf("Reward rate set to %d by authority %s", newReward, caller)
	state.CurrentReward = newReward
	return state, nil
}

// TransferAuthority re-parents the emission authority. Current authority only.
func (s *LedgerService) TransferAuthority(caller, next string) error {
	if next == "" {
		return ErrInvalidInput
	}

	state, err := s.EmissionState()
	if err != nil {
		return err
	}
	if err := s.authorize(caller, state); err != nil {
		return err
	}

	return s.DB.Model(&models.EmissionState{}).
		Where("id = ?", models.EmissionStateID).
		Update("authority", next).Error
}

// UserStats is the read model for a wallet's aggregates.
type UserStats struct {
	WalletID       string  `json:"wallet_id"`
	TotalGuesses   uint64  `json:"total_guesses"`
	CorrectGuesses uint64  `json:"correct_guesses"`
	TokensEarned   uint64  `json:"tokens_earned"`
	Accuracy       float64 `json:"accuracy"`
}

// StatsFor returns a wallet's stats, zeroes for wallets that never guessed.
func (s *LedgerService) StatsFor(walletID string) (*UserStats, error) {
	if walletID == "" {
		return nil, ErrInvalidInput
	}

	var account models.UserAccount
	err := s.DB.Where("wallet_id = ?", walletID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &UserStats{WalletID: walletID}, nil
	}
	if err != nil {
		return nil, err
	}

	return &UserStats{
		WalletID:       account.WalletID,
		TotalGuesses:   account.TotalGuesses,
		CorrectGuesses: account.CorrectGuesses,
		TokensEarned:   account.TokensEarned,
		Accuracy:       roundScore(account.Accuracy()),
	}, nil
}

// Leaderboard returns up to limit wallets ordered by tokens earned, ties
// broken by earliest account creation.
func (s *LedgerService) Leaderboard(limit int) ([]UserStats, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var accounts []models.UserAccount
	if err := s.DB.Order("tokens_earned DESC, created_at ASC").
		Limit(limit).Find(&accounts).Error; err != nil {
		return nil, err
	}

	board := make([]UserStats, len(accounts))
	for i, a := range accounts {
		board[i] = UserStats{
			WalletID:       a.WalletID,
			TotalGuesses:   a.TotalGuesses,
			CorrectGuesses: a.CorrectGuesses,
			TokensEarned:   a.TokensEarned,
			Accuracy:       roundScore(a.Accuracy()),
		}
	}
	return board, nil
}

// RebuildUserAggregates replays a wallet's guess trail and returns the
// aggregates the trail implies. The audit worker compares this against the
// stored account to detect drift.
func (s *LedgerService) RebuildUserAggregates(walletID string) (*UserStats, error) {
	if walletID == "" {
		return nil, ErrInvalidInput
	}

	var guesses []models.Guess
	if err := s.DB.Where("wallet_id = ?", walletID).
		Order("created_at ASC").Find(&guesses).Error; err != nil {
		return nil, err
	}

	stats := UserStats{WalletID: walletID}
	for _, g := range guesses {
		stats.TotalGuesses++
		if g.IsCorrect {
			stats.CorrectGuesses++
			stats.TokensEarned += g.TokensEarned
		}
	}
	if stats.TotalGuesses > 0 {
		stats.Accuracy = roundScore(float64(stats.CorrectGuesses) / float64(stats.TotalGuesses) * 100)
	}
	return &stats, nil
}
