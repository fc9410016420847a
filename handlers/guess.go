package handlers

import (
	"prompt-guess-system/middleware"
	"prompt-guess-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGuessRoutes(app *fiber.App, guessService *services.GuessService) {
	// 🔓 Public read endpoints
	app.Get("/users/:wallet_id/stats", guessService.GetUserStats)
	app.Get("/leaderboard", guessService.GetLeaderboard)

	// 🔐 Wallet-authenticated routes
	secured := app.Group("/s", middleware.WalletContextMiddleware())
	secured.Post("/guesses", guessService.SubmitGuess)

	// 🔒 Authority-gated emission controls (identity checked against the
	// ledger's registered authority, not a role)
	admin := secured.Group("/admin")
	admin.Post("/reward", guessService.SetReward)
	admin.Post("/authority", guessService.TransferAuthority)
}
