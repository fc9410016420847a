// services/guess_service.go
package services

import (
	"context"
	"errors"
	"log"
	"strconv"

	"prompt-guess-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GuessService orchestrates one submission: score, decide, settle with the
// ledger. Embedding calls happen strictly before the ledger transaction so
// the atomic section stays short-lived.
type GuessService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Decider  *Decider
	Embedder EmbeddingProvider

	// FallbackToLexical scores with the cascade when the embedding provider
	// is down. Explicit opt-in; the default surfaces ErrEmbeddingUnavailable.
	FallbackToLexical bool
}

func NewGuessService(db *gorm.DB, ledger *LedgerService, decider *Decider, embedder EmbeddingProvider) *GuessService {
	return &GuessService{DB: db, Ledger: ledger, Decider: decider, Embedder: embedder}
}

// GuessResult is the outcome returned to the submitting player.
type GuessResult struct {
	IsCorrect    bool      `json:"is_correct"`
	Score        float64   `json:"score"`
	Algorithm    Algorithm `json:"algorithm"`
	TokensEarned uint64    `json:"tokens_earned"`
	NewBalance   uint64    `json:"new_balance"`
}

// Evaluate scores guessText against the challenge prompt under the requested
// algorithm, then settles the result with the ledger.
func (s *GuessService) Evaluate(ctx context.Context, walletID string, challenge *models.Challenge, guessText string, algorithm Algorithm) (*GuessResult, error) {
	if walletID == "" || challenge == nil || guessText == "" || challenge.ActualPrompt == "" {
		return nil, ErrInvalidInput
	}
	if algorithm == "" {
		algorithm = AlgorithmLexical
	}

	score, algorithm, err := s.score(ctx, challenge, guessText, algorithm)
	if err != nil {
		return nil, err
	}

	isCorrect := s.Decider.Decide(algorithm, score)

	result := &GuessResult{IsCorrect: isCorrect, Score: score, Algorithm: algorithm}
	if isCorrect {
		reward, err := s.Ledger.ApplyReward(walletID, challenge.ID, guessText, algorithm, score)
		if err != nil {
			return nil, err
		}
		result.TokensEarned = reward.TokensEarned
		result.NewBalance = reward.NewBalance
	} else {
		if err := s.Ledger.RecordIncorrectGuess(walletID, challenge.ID, guessText, algorithm, score); err != nil {
			return nil, err
		}
		stats, err := s.Ledger.StatsFor(walletID)
		if err != nil {
			return nil, err
		}
		result.NewBalance = stats.TokensEarned
	}
	return result, nil
}

func (s *GuessService) score(ctx context.Context, challenge *models.Challenge, guessText string, algorithm Algorithm) (float64, Algorithm, error) {
	switch algorithm {
	case AlgorithmLexical:
		return CascadeScore(guessText, challenge.ActualPrompt), algorithm, nil
	case AlgorithmExact:
		score, _ := ExactMatch(guessText, challenge.ActualPrompt)
		return score, algorithm, nil
	case AlgorithmContainment:
		score, _ := Containment(guessText, challenge.ActualPrompt)
		return score, algorithm, nil
	case AlgorithmEdit:
		return EditDistance(guessText, challenge.ActualPrompt), algorithm, nil
	case AlgorithmEmbedding:
		score, err := s.semanticScore(ctx, challenge, guessText)
		if err != nil {
			if errors.Is(err, ErrEmbeddingUnavailable) && s.FallbackToLexical {
				log.Printf("Embedding provider down, falling back to lexical scoring for challenge %s", challenge.ID)
				return CascadeScore(guessText, challenge.ActualPrompt), AlgorithmLexical, nil
			}
			return 0, algorithm, err
		}
		return score, algorithm, nil
	default:
		return 0, algorithm, ErrInvalidInput
	}
}

func (s *GuessService) semanticScore(ctx context.Context, challenge *models.Challenge, guessText string) (float64, error) {
	if s.Embedder == nil {
		return 0, ErrEmbeddingUnavailable
	}

	guessVec, err := s.Embedder.Embed(ctx, guessText)
	if err != nil {
		return 0, err
	}

	promptVec := []float32(challenge.PromptEmbedding)
	if len(promptVec) == 0 {
		promptVec, err = s.Embedder.Embed(ctx, challenge.ActualPrompt)
		if err != nil {
			return 0, err
		}
	}

	return EmbeddingCosine(guessVec, promptVec)
}

// --- HTTP handlers ---

// SubmitGuess evaluates a guess for the authenticated wallet.
func (s *GuessService) SubmitGuess(c *fiber.Ctx) error {
	walletID, _ := c.Locals("wallet_id").(string)
	if walletID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "wallet identity missing"})
	}

	var req struct {
		ChallengeID string `json:"challenge_id"`
		GuessText   string `json:"guess_text"`
		Algorithm   string `json:"algorithm"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ChallengeID == "" || req.GuessText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "challenge_id and guess_text are required"})
	}

	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", req.ChallengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if challenge.Status != models.ChallengeStatusActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Challenge is not active"})
	}

	result, err := s.Evaluate(c.Context(), walletID, &challenge, req.GuessText, Algorithm(req.Algorithm))
	if err != nil {
		return guessErrorResponse(c, err)
	}
	return c.JSON(result)
}

// GetUserStats returns aggregates for a wallet, zeroes for unknown wallets.
func (s *GuessService) GetUserStats(c *fiber.Ctx) error {
	walletID := c.Params("wallet_id")
	stats, err := s.Ledger.StatsFor(walletID)
	if err != nil {
		return guessErrorResponse(c, err)
	}
	return c.JSON(stats)
}

// GetLeaderboard returns the top wallets by tokens earned.
func (s *GuessService) GetLeaderboard(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	board, err := s.Ledger.Leaderboard(limit)
	if err != nil {
		log.Printf("DB Error fetching leaderboard: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch leaderboard"})
	}
	return c.JSON(fiber.Map{"leaderboard": board})
}

// SetReward overwrites the per-guess reward. Authority only.
func (s *GuessService) SetReward(c *fiber.Ctx) error {
	caller, _ := c.Locals("wallet_id").(string)

	var req struct {
		NewReward uint64 `json:"new_reward"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	state, err := s.Ledger.SetReward(caller, req.NewReward)
	if err != nil {
		return guessErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "Reward updated", "current_reward": state.CurrentReward})
}

// TransferAuthority re-parents the emission authority. Authority only.
func (s *GuessService) TransferAuthority(c *fiber.Ctx) error {
	caller, _ := c.Locals("wallet_id").(string)

	var req struct {
		NewAuthority string `json:"new_authority"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.Ledger.TransferAuthority(caller, req.NewAuthority); err != nil {
		return guessErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "Authority transferred", "authority": req.NewAuthority})
}

func guessErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing or invalid fields"})
	case errors.Is(err, ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Caller is not the emission authority"})
	case errors.Is(err, ErrEmbeddingUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Embedding provider unavailable"})
	case errors.Is(err, ErrEmbeddingDimensionMismatch):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Embedding dimension mismatch"})
	case errors.Is(err, ErrConcurrentModification):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Ledger busy, retry the submission"})
	case errors.Is(err, ErrLedgerNotFound):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Game is not initialized"})
	default:
		log.Printf("Guess evaluation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process guess"})
	}
}
