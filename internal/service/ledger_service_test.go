package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/netbill-next/internal/constants"
	"github.com/netbill-next/internal/models"
	"github.com/netbill-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupLedgerServiceTest(t *testing.T) (*LedgerService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.BillingAccount{}, &models.LedgerEntry{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewLedgerService(repository.NewLedgerRepository(db)), db
}

func TestLedgerCreditAppliesOnce(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)
	account := models.BillingAccount{
		AccountNo: "A-1",
		Status:    constants.AccountStatusActive,
		Balance:   models.NewMoneyFromDecimal(decimal.Zero),
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	amount := models.NewMoneyFromDecimal(decimal.RequireFromString("12.34"))
	if err := svc.Credit("A-1", amount, "LEDGER-1"); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	// 相同参考号重复入账为无操作
	if err := svc.Credit("A-1", amount, "LEDGER-1"); err != nil {
		t.Fatalf("repeat credit failed: %v", err)
	}

	var got models.BillingAccount
	db.Where("account_no = ?", "A-1").First(&got)
	if !got.Balance.Decimal.Equal(decimal.RequireFromString("12.34")) {
		t.Fatalf("unexpected balance: %s", got.Balance.String())
	}

	var count int64
	db.Model(&models.LedgerEntry{}).Where("reference = ?", "LEDGER-1").Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 entry, got %d", count)
	}

	applied, err := svc.HasApplied("LEDGER-1")
	if err != nil || !applied {
		t.Fatalf("expected applied, got %v %v", applied, err)
	}
}

func TestLedgerCreditEntryFields(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)
	account := models.BillingAccount{
		AccountNo: "A-2",
		Status:    constants.AccountStatusActive,
		Balance:   models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	if err := svc.Credit("A-2", models.NewMoneyFromDecimal(decimal.RequireFromString("50.50")), "LEDGER-2"); err != nil {
		t.Fatalf("credit failed: %v", err)
	}

	var entry models.LedgerEntry
	if err := db.Where("reference = ?", "LEDGER-2").First(&entry).Error; err != nil {
		t.Fatalf("load entry failed: %v", err)
	}
	if entry.Type != constants.LedgerEntryTypePaymentCredit || entry.Direction != constants.LedgerDirectionIn {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if !entry.BalanceAfter.Decimal.Equal(decimal.RequireFromString("150.50")) {
		t.Fatalf("unexpected balance_after: %s", entry.BalanceAfter.String())
	}
}

func TestLedgerCreditValidation(t *testing.T) {
	svc, _ := setupLedgerServiceTest(t)

	if err := svc.Credit("", models.NewMoneyFromDecimal(decimal.NewFromInt(1)), "LEDGER-3"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if err := svc.Credit("A-X", models.NewMoneyFromDecimal(decimal.NewFromInt(1)), ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for empty reference, got %v", err)
	}
	if err := svc.Credit("A-X", models.NewMoneyFromDecimal(decimal.Zero), "LEDGER-4"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero amount, got %v", err)
	}
	if err := svc.Credit("A-MISSING", models.NewMoneyFromDecimal(decimal.NewFromInt(1)), "LEDGER-5"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound for missing account, got %v", err)
	}
}

func TestLedgerCreditMissingAccountRollsBack(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)

	_ = svc.Credit("A-MISSING", models.NewMoneyFromDecimal(decimal.NewFromInt(5)), "LEDGER-6")

	var count int64
	db.Model(&models.LedgerEntry{}).Count(&count)
	if count != 0 {
		t.Fatalf("failed credit must not leave entries, got %d", count)
	}
}
