package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/netbill-next/internal/constants"
	"github.com/netbill-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupPaymentRepoTest(t *testing.T) (*GormPaymentRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:payment_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.PendingPayment{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewPaymentRepository(db), db
}

func newTestPayment(referenceNo, status string) *models.PendingPayment {
	return &models.PendingPayment{
		ReferenceNo: referenceNo,
		AccountNo:   "A-1",
		Amount:      models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		Status:      status,
	}
}

func TestClaimQueuedOnlyOnce(t *testing.T) {
	repo, _ := setupPaymentRepoTest(t)
	payment := newTestPayment("CLAIM-1", constants.PaymentStatusQueued)
	if err := repo.Create(payment); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	now := time.Now()
	claimed, err := repo.ClaimQueued(payment.ID, now)
	if err != nil || !claimed {
		t.Fatalf("first claim should succeed: %v %v", claimed, err)
	}
	// 二次认领必须失败
	claimed, err = repo.ClaimQueued(payment.ID, now)
	if err != nil || claimed {
		t.Fatalf("second claim must fail: %v %v", claimed, err)
	}

	got, err := repo.GetByID(payment.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != constants.PaymentStatusProcessing {
		t.Fatalf("expected processing, got %s", got.Status)
	}
	if got.AttemptCount != 1 {
		t.Fatalf("expected attempt_count 1, got %d", got.AttemptCount)
	}
	if got.LastAttemptAt == nil {
		t.Fatalf("expected last_attempt_at set")
	}
}

func TestTransitionStatusGuard(t *testing.T) {
	repo, _ := setupPaymentRepoTest(t)
	payment := newTestPayment("TRANS-1", constants.PaymentStatusProcessing)
	if err := repo.Create(payment); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// 原状态不匹配时不迁移
	moved, err := repo.TransitionStatus(payment.ID, constants.PaymentStatusQueued, constants.PaymentStatusPaid, nil)
	if err != nil || moved {
		t.Fatalf("mismatched from must not move: %v %v", moved, err)
	}

	moved, err = repo.TransitionStatus(payment.ID, constants.PaymentStatusProcessing, constants.PaymentStatusPaid, map[string]interface{}{
		"reconnect_status": constants.ReconnectStatusSuccess,
	})
	if err != nil || !moved {
		t.Fatalf("transition failed: %v %v", moved, err)
	}

	got, _ := repo.GetByID(payment.ID)
	if got.Status != constants.PaymentStatusPaid || got.ReconnectStatus != constants.ReconnectStatusSuccess {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestListQueuedOrderAndLimit(t *testing.T) {
	repo, db := setupPaymentRepoTest(t)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		payment := newTestPayment(fmt.Sprintf("LIST-%d", i), constants.PaymentStatusQueued)
		if err := repo.Create(payment); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		// 倒序写入入库时间，验证按 created_at 升序取出
		db.Model(payment).Update("created_at", base.Add(time.Duration(3-i)*time.Minute))
	}
	other := newTestPayment("LIST-P", constants.PaymentStatusProcessing)
	if err := repo.Create(other); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	queued, err := repo.ListQueued(2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(queued) != 2 {
		t.Fatalf("expected 2, got %d", len(queued))
	}
	if queued[0].ReferenceNo != "LIST-3" || queued[1].ReferenceNo != "LIST-2" {
		t.Fatalf("unexpected order: %s %s", queued[0].ReferenceNo, queued[1].ReferenceNo)
	}
}

func TestRequeueStaleProcessing(t *testing.T) {
	repo, db := setupPaymentRepoTest(t)
	stale := time.Now().Add(-time.Hour)
	fresh := time.Now()
	stalePayment := newTestPayment("STALE-1", constants.PaymentStatusProcessing)
	freshPayment := newTestPayment("FRESH-1", constants.PaymentStatusProcessing)
	for _, payment := range []*models.PendingPayment{stalePayment, freshPayment} {
		if err := repo.Create(payment); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	db.Model(stalePayment).Update("last_attempt_at", stale)
	db.Model(freshPayment).Update("last_attempt_at", fresh)

	count, err := repo.RequeueStaleProcessing(time.Now().Add(-30*time.Minute), time.Now())
	if err != nil {
		t.Fatalf("requeue failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 requeued, got %d", count)
	}
	got, _ := repo.GetByID(stalePayment.ID)
	if got.Status != constants.PaymentStatusQueued {
		t.Fatalf("expected queued, got %s", got.Status)
	}
}

func TestListAdminFilters(t *testing.T) {
	repo, _ := setupPaymentRepoTest(t)
	for i := 0; i < 3; i++ {
		payment := newTestPayment(fmt.Sprintf("ADM-%d", i), constants.PaymentStatusPaid)
		if i == 2 {
			payment.AccountNo = "A-other"
			payment.Status = constants.PaymentStatusFailed
		}
		if err := repo.Create(payment); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	payments, total, err := repo.ListAdmin(PaymentListFilter{AccountNo: "A-1", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if total != 2 || len(payments) != 2 {
		t.Fatalf("unexpected account filter result: total=%d len=%d", total, len(payments))
	}

	payments, total, err = repo.ListAdmin(PaymentListFilter{Status: constants.PaymentStatusFailed, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if total != 1 || payments[0].ReferenceNo != "ADM-2" {
		t.Fatalf("unexpected status filter result: total=%d", total)
	}

	payments, total, err = repo.ListAdmin(PaymentListFilter{ReferenceNo: "ADM", Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if total != 3 || len(payments) != 2 {
		t.Fatalf("unexpected pagination: total=%d len=%d", total, len(payments))
	}
}

func TestGetByReferenceMissing(t *testing.T) {
	repo, _ := setupPaymentRepoTest(t)
	got, err := repo.GetByReference("NOPE")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing reference")
	}
}
