package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/netbill-next/internal/constants"
	"github.com/netbill-next/internal/models"
	"github.com/netbill-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupLockServiceTest(t *testing.T) (*LockService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:lock_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.WorkerLock{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewLockService(repository.NewLockRepository(db)), db
}

func TestLockAcquireAndRelease(t *testing.T) {
	svc, db := setupLockServiceTest(t)

	acquired, err := svc.Acquire(constants.LockPaymentWorker)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if !acquired {
		t.Fatalf("expected acquire success")
	}

	var lock models.WorkerLock
	if err := db.Where("lock_name = ?", constants.LockPaymentWorker).First(&lock).Error; err != nil {
		t.Fatalf("load lock failed: %v", err)
	}
	if lock.Holder != svc.Holder() {
		t.Fatalf("unexpected holder: %s", lock.Holder)
	}

	svc.Release(constants.LockPaymentWorker)
	var count int64
	db.Model(&models.WorkerLock{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected lock removed, got %d", count)
	}
}

func TestLockAcquireContention(t *testing.T) {
	svc, db := setupLockServiceTest(t)
	other := NewLockService(repository.NewLockRepository(db))

	if acquired, _ := svc.Acquire(constants.LockPaymentWorker); !acquired {
		t.Fatalf("first acquire should succeed")
	}
	if acquired, err := other.Acquire(constants.LockPaymentWorker); err != nil || acquired {
		t.Fatalf("second acquire must fail without error, got %v %v", acquired, err)
	}

	// 非持有者释放不生效
	other.Release(constants.LockPaymentWorker)
	var count int64
	db.Model(&models.WorkerLock{}).Count(&count)
	if count != 1 {
		t.Fatalf("lock must survive foreign release, got %d rows", count)
	}

	svc.Release(constants.LockPaymentWorker)
	if acquired, _ := other.Acquire(constants.LockPaymentWorker); !acquired {
		t.Fatalf("acquire should succeed after owner release")
	}
}

func TestLockExpireStale(t *testing.T) {
	svc, db := setupLockServiceTest(t)
	stale := models.WorkerLock{
		LockName:   constants.LockPaymentWorker,
		Holder:     "dead-host:1:deadbeef",
		AcquiredAt: time.Now().Add(-time.Hour),
	}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("create stale lock failed: %v", err)
	}
	fresh := models.WorkerLock{
		LockName:   "other_worker",
		Holder:     "live-host:2:cafebabe",
		AcquiredAt: time.Now(),
	}
	if err := db.Create(&fresh).Error; err != nil {
		t.Fatalf("create fresh lock failed: %v", err)
	}

	removed, err := svc.ExpireStale("", 10*time.Minute)
	if err != nil {
		t.Fatalf("expire stale failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	// 新锁不受影响
	var count int64
	db.Model(&models.WorkerLock{}).Where("lock_name = ?", "other_worker").Count(&count)
	if count != 1 {
		t.Fatalf("fresh lock must survive")
	}

	// 清理后可重新获取
	if acquired, _ := svc.Acquire(constants.LockPaymentWorker); !acquired {
		t.Fatalf("acquire should succeed after janitor")
	}
}

func TestLockHolderFormat(t *testing.T) {
	svc, _ := setupLockServiceTest(t)
	if svc.Holder() == "" {
		t.Fatalf("holder must not be empty")
	}
	other, _ := setupLockServiceTest(t)
	if svc.Holder() == other.Holder() {
		t.Fatalf("holders must be unique per instance")
	}
}
