package handlers

import (
	"prompt-guess-system/middleware"
	"prompt-guess-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, challengeService *services.ChallengeService) {
	// 🔓 Public routes for players (active challenges only, prompt redacted)
	app.Get("/challenges/random", challengeService.GetRandomChallenge)
	app.Get("/challenges/:id", challengeService.GetChallengeByID)

	// 🔒 Admin routes — challenge authoring and lifecycle
	secured := app.Group("/s", middleware.WalletContextMiddleware())
	admin := secured.Group("/admin")
	admin.Post("/challenges", challengeService.CreateChallenge)
	admin.Get("/challenges", challengeService.ListChallenges)
	admin.Patch("/challenges/:id/status", challengeService.UpdateChallengeStatus)
	admin.Post("/challenges/:id/publish/schedule", challengeService.SchedulePublish)
}
