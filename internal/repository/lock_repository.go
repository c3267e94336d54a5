package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/netbill-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockRepository 工作锁数据访问接口
type LockRepository interface {
	Acquire(lockName, holder string, now time.Time) (bool, error)
	Release(lockName, holder string) error
	ExpireStale(lockName string, before time.Time) (int64, error)
	GetByName(lockName string) (*models.WorkerLock, error)
	List() ([]models.WorkerLock, error)
}

// GormLockRepository GORM 实现
type GormLockRepository struct {
	db *gorm.DB
}

// NewLockRepository 创建工作锁仓库
func NewLockRepository(db *gorm.DB) *GormLockRepository {
	return &GormLockRepository{db: db}
}

// Acquire 原子获取锁
// 依赖 lock_name 唯一约束的单条 INSERT，冲突时不写入也不报错；
// RowsAffected 为 0 即锁已被他人持有。绝不可改为先查后插。
func (r *GormLockRepository) Acquire(lockName, holder string, now time.Time) (bool, error) {
	lockName = strings.TrimSpace(lockName)
	if lockName == "" {
		return false, errors.New("lock name is empty")
	}
	lock := models.WorkerLock{
		LockName:   lockName,
		Holder:     holder,
		AcquiredAt: now,
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lock_name"}},
		DoNothing: true,
	}).Create(&lock)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Release 释放锁
// 仅当持有者匹配时删除；行不存在或持有者不同均静默返回。
func (r *GormLockRepository) Release(lockName, holder string) error {
	lockName = strings.TrimSpace(lockName)
	if lockName == "" {
		return nil
	}
	return r.db.Where("lock_name = ? AND holder = ?", lockName, holder).
		Delete(&models.WorkerLock{}).Error
}

// ExpireStale 删除过期锁
// lockName 为空时清理全部名称的过期锁，不校验持有者。
func (r *GormLockRepository) ExpireStale(lockName string, before time.Time) (int64, error) {
	query := r.db.Where("acquired_at < ?", before)
	lockName = strings.TrimSpace(lockName)
	if lockName != "" {
		query = query.Where("lock_name = ?", lockName)
	}
	result := query.Delete(&models.WorkerLock{})
	return result.RowsAffected, result.Error
}

// GetByName 按名称获取锁
func (r *GormLockRepository) GetByName(lockName string) (*models.WorkerLock, error) {
	lockName = strings.TrimSpace(lockName)
	if lockName == "" {
		return nil, nil
	}
	var lock models.WorkerLock
	if err := r.db.Where("lock_name = ?", lockName).First(&lock).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lock, nil
}

// List 列出当前所有锁
func (r *GormLockRepository) List() ([]models.WorkerLock, error) {
	var locks []models.WorkerLock
	if err := r.db.Order("acquired_at asc").Find(&locks).Error; err != nil {
		return nil, err
	}
	return locks, nil
}
