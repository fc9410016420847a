// middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// WalletContextMiddleware extracts the wallet identity set by the Gateway
// after wallet-signature verification. Applied to routes under /s/; guesses
// and admin calls both identify callers by wallet ID.
func WalletContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		walletID := c.Get("X-Wallet-ID")

		path := c.Path()
		isSecured := strings.HasPrefix(path, "/s/")
		if isSecured && walletID == "" {
			log.Printf("❌ [WALLET_CTX] X-Wallet-ID required but missing on secured route: %s", path)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Wallet-ID — request must come through gateway with wallet context",
			})
		}

		c.Locals("wallet_id", walletID)
		return c.Next()
	}
}
