package workers

import (
	"fmt"
	"testing"

	"prompt-guess-system/models"
	"prompt-guess-system/services"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.EmissionState{},
		&models.UserAccount{},
		&models.Guess{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestAuditCleanLedger(t *testing.T) {
	db := setupAuditTestDB(t)
	ledger := services.NewLedgerService(db)
	if _, err := ledger.Initialize("auth", 100, 100_000); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := ledger.ApplyReward("wallet-1", "c1", "guess", services.AlgorithmLexical, 100); err != nil {
			t.Fatalf("apply reward: %v", err)
		}
	}
	if err := ledger.RecordIncorrectGuess("wallet-2", "c1", "nope", services.AlgorithmLexical, 3); err != nil {
		t.Fatalf("record incorrect: %v", err)
	}

	auditor := NewLedgerAuditor(db, ledger)
	drifted, err := auditor.AuditAll()
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if drifted != 0 {
		t.Fatalf("expected clean audit, got %d drifted wallet(s)", drifted)
	}
}

func TestAuditDetectsDrift(t *testing.T) {
	db := setupAuditTestDB(t)
	ledger := services.NewLedgerService(db)
	if _, err := ledger.Initialize("auth", 100, 100_000); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if _, err := ledger.ApplyReward("wallet-1", "c1", "guess", services.AlgorithmLexical, 100); err != nil {
		t.Fatalf("apply reward: %v", err)
	}

	// Corrupt the stored aggregate behind the trail's back.
	if err := db.Model(&models.UserAccount{}).
		Where("wallet_id = ?", "wallet-1").
		Update("tokens_earned", 999).Error; err != nil {
		t.Fatalf("corrupt account: %v", err)
	}

	auditor := NewLedgerAuditor(db, ledger)
	drifted, err := auditor.AuditAll()
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if drifted != 1 {
		t.Fatalf("expected 1 drifted wallet, got %d", drifted)
	}
}
