// services/challenge_service.go
package services

import (
	"errors"
	"log"
	"path/filepath"
	"time"

	"prompt-guess-system/models"
	"prompt-guess-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type ChallengeService struct {
	DB       *gorm.DB
	Embedder EmbeddingProvider
}

func NewChallengeService(db *gorm.DB, embedder EmbeddingProvider) *ChallengeService {
	return &ChallengeService{DB: db, Embedder: embedder}
}

// CreateChallenge creates a new **draft** challenge: prompt, metadata, an
// optional image uploaded to R2, and an optional precomputed prompt
// embedding so gameplay never has to embed the prompt on the hot path.
func (s *ChallengeService) CreateChallenge(c *fiber.Ctx) error {
	title := c.FormValue("title")
	actualPrompt := c.FormValue("actual_prompt")
	if title == "" || actualPrompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title and actual_prompt are required"})
	}

	difficulty := c.FormValue("difficulty")
	if difficulty == "" {
		difficulty = "medium"
	}

	challenge := &models.Challenge{
		ID:           uuid.NewString(),
		Title:        title,
		Slug:         slug.Make(title) + "-" + uuid.NewString()[:8],
		ActualPrompt: actualPrompt,
		Difficulty:   difficulty,
		Status:       models.ChallengeStatusDraft,
	}

	// Challenge image → R2 (small, public asset)
	if imageFile, err := c.FormFile("image"); err == nil && imageFile.Size > 0 {
		imageExt := filepath.Ext(imageFile.Filename)
		if imageExt == "" {
			imageExt = ".png"
		}
		imageKey := "challenges/" + uuid.NewString() + imageExt
		imageURL, err := utils.UploadFileToR2(imageFile, imageKey)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "failed to upload challenge image to R2"})
		}
		challenge.ImageURL = imageURL
	}

	// Precompute the prompt embedding; a provider outage only delays
	// semantic scoring, it does not block challenge creation.
	if s.Embedder != nil {
		if vec, err := s.Embedder.Embed(c.Context(), actualPrompt); err != nil {
			log.Printf("Prompt embedding unavailable for challenge %s: %v", challenge.ID, err)
		} else {
			challenge.PromptEmbedding = vec
		}
	}

	if err := s.DB.Create(challenge).Error; err != nil {
		log.Printf("DB Error creating challenge: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create challenge"})
	}

	return c.Status(fiber.StatusCreated).JSON(challenge)
}

// GetRandomChallenge returns one active challenge for play. The prompt and
// embedding never serialize (json:"-" on the model).
func (s *ChallengeService) GetRandomChallenge(c *fiber.Ctx) error {
	var challenge models.Challenge
	err := s.DB.Where("status = ?", models.ChallengeStatusActive).
		Order("RANDOM()").First(&challenge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No active challenges"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(challenge)
}

// GetChallengeByID returns one challenge, prompt redacted.
func (s *ChallengeService) GetChallengeByID(c *fiber.Ctx) error {
	id := c.Params("id")
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(challenge)
}

// ListChallenges returns all challenges for the admin view.
func (s *ChallengeService) ListChallenges(c *fiber.Ctx) error {
	var challenges []models.Challenge
	if err := s.DB.Order("created_at DESC").Find(&challenges).Error; err != nil {
		log.Printf("DB Error fetching challenges: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch challenges"})
	}
	return c.JSON(challenges)
}

// UpdateChallengeStatus moves a challenge between draft/active/archived.
func (s *ChallengeService) UpdateChallengeStatus(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		Status models.ChallengeStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	switch req.Status {
	case models.ChallengeStatusDraft, models.ChallengeStatusActive, models.ChallengeStatusArchived:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
	}

	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	challenge.Status = req.Status
	challenge.PublishAt = nil
	if err := s.DB.Save(&challenge).Error; err != nil {
		log.Printf("DB Error updating challenge status: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update status"})
	}

	return c.JSON(fiber.Map{"message": "Status updated", "challenge": challenge})
}

// SchedulePublish marks a draft challenge for automatic activation at a
// future time; the scheduler flips it to active.
func (s *ChallengeService) SchedulePublish(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		PublishAt time.Time `json:"publish_at"`
	}
	if err := c.BodyParser(&req); err != nil || req.PublishAt.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "publish_at is required"})
	}
	if req.PublishAt.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "publish_at must be in the future"})
	}

	result := s.DB.Model(&models.Challenge{}).
		Where("id = ? AND status = ?", id, models.ChallengeStatusDraft).
		Updates(map[string]interface{}{
			"status":     models.ChallengeStatusScheduled,
			"publish_at": req.PublishAt,
		})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to schedule publish"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Draft challenge not found"})
	}

	return c.JSON(fiber.Map{"message": "Publish scheduled", "publish_at": req.PublishAt})
}
