package workers

import (
	"context"
	"log"
	"time"

	"prompt-guess-system/models"
	"prompt-guess-system/services"

	"gorm.io/gorm"
)

// LedgerAuditor replays the append-only guess trail and compares the result
// against the stored per-wallet aggregates. The trail is the source of
// truth: any drift means a reward application committed partially, which
// the ledger's transaction is supposed to make impossible.
type LedgerAuditor struct {
	DB     *gorm.DB
	Ledger *services.LedgerService
}

func NewLedgerAuditor(db *gorm.DB, ledger *services.LedgerService) *LedgerAuditor {
	return &LedgerAuditor{DB: db, Ledger: ledger}
}

// AuditAll checks every account once and returns the number of drifted
// wallets.
func (a *LedgerAuditor) AuditAll() (int, error) {
	var accounts []models.UserAccount
	if err := a.DB.Find(&accounts).Error; err != nil {
		return 0, err
	}

	drifted := 0
	for _, account := range accounts {
		rebuilt, err := a.Ledger.RebuildUserAggregates(account.WalletID)
		if err != nil {
			log.Printf("❌ [AUDIT] Failed to replay guesses for %s: %v", account.WalletID, err)
			continue
		}

		if rebuilt.TotalGuesses != account.TotalGuesses ||
			rebuilt.CorrectGuesses != account.CorrectGuesses ||
			rebuilt.TokensEarned != account.TokensEarned {
			drifted++
			log.Printf("❌ [AUDIT] Aggregate drift for %s: stored (%d/%d/%d) vs replayed (%d/%d/%d)",
				account.WalletID,
				account.TotalGuesses, account.CorrectGuesses, account.TokensEarned,
				rebuilt.TotalGuesses, rebuilt.CorrectGuesses, rebuilt.TokensEarned)
		}
	}
	return drifted, nil
}

// PollAudit runs AuditAll on a fixed interval until the context is done.
func PollAudit(ctx context.Context, auditor *LedgerAuditor, pollInterval time.Duration) {
	log.Println("Starting ledger audit polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Ledger audit polling stopped.")
			return
		case <-ticker.C:
			drifted, err := auditor.AuditAll()
			if err != nil {
				log.Printf("❌ [AUDIT] Audit pass failed: %v", err)
				continue
			}
			if drifted > 0 {
				log.Printf("❌ [AUDIT] %d wallet(s) drifted from their guess trail", drifted)
			}
		}
	}
}
