package service

import (
	"fmt"
	"os"
	"time"

	"github.com/netbill-next/internal/logger"
	"github.com/netbill-next/internal/models"
	"github.com/netbill-next/internal/repository"

	"github.com/google/uuid"
)

// LockService 工作锁服务
// 说明：基于 worker_locks 表的租约式互斥，Acquire 永不阻塞等待。
type LockService struct {
	lockRepo repository.LockRepository
	holder   string
}

// NewLockService 创建工作锁服务
func NewLockService(lockRepo repository.LockRepository) *LockService {
	return &LockService{
		lockRepo: lockRepo,
		holder:   buildHolderID(),
	}
}

// Holder 返回当前进程的持有者标识
func (s *LockService) Holder() string {
	return s.holder
}

// Acquire 尝试获取锁
// 返回 false 表示锁已被他人持有，不是错误；仅存储故障返回 error。
func (s *LockService) Acquire(lockName string) (bool, error) {
	acquired, err := s.lockRepo.Acquire(lockName, s.holder, time.Now())
	if err != nil {
		return false, err
	}
	if !acquired {
		logger.Debugw("lock_acquire_contended", "lock_name", lockName, "holder", s.holder)
	}
	return acquired, nil
}

// Release 释放锁
// 行不存在或已被他人重新获取时静默返回，调用方应在 defer 中调用。
func (s *LockService) Release(lockName string) {
	if err := s.lockRepo.Release(lockName, s.holder); err != nil {
		logger.Errorw("lock_release_failed", "lock_name", lockName, "holder", s.holder, "error", err)
	}
}

// ExpireStale 清理过期锁
// maxAge 之前获取的锁一律删除，不校验持有者。
func (s *LockService) ExpireStale(lockName string, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		maxAge = 10 * time.Minute
	}
	removed, err := s.lockRepo.ExpireStale(lockName, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.Warnw("lock_expired_stale", "lock_name", lockName, "removed", removed, "max_age", maxAge.String())
	}
	return removed, nil
}

// ListLocks 列出当前所有锁
func (s *LockService) ListLocks() ([]models.WorkerLock, error) {
	return s.lockRepo.List()
}

func buildHolderID() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.NewString()[:8])
}
