package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/netbill-next/internal/constants"
	"github.com/netbill-next/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository 待结算支付数据访问接口
type PaymentRepository interface {
	Create(payment *models.PendingPayment) error
	GetByID(id uint) (*models.PendingPayment, error)
	GetByReference(referenceNo string) (*models.PendingPayment, error)
	ListQueued(limit int) ([]models.PendingPayment, error)
	ClaimQueued(id uint, now time.Time) (bool, error)
	TransitionStatus(id uint, from, to string, updates map[string]interface{}) (bool, error)
	RetryFailed(now time.Time) (int64, error)
	RequeueStaleProcessing(before time.Time, now time.Time) (int64, error)
	CountByStatus(status string) (int64, error)
	CountAttemptedBetween(status string, from, to time.Time) (int64, error)
	ListAdmin(filter PaymentListFilter) ([]models.PendingPayment, int64, error)
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create 创建支付记录
func (r *GormPaymentRepository) Create(payment *models.PendingPayment) error {
	return r.db.Create(payment).Error
}

// GetByID 根据 ID 获取支付记录
func (r *GormPaymentRepository) GetByID(id uint) (*models.PendingPayment, error) {
	var payment models.PendingPayment
	if err := r.db.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByReference 根据参考号获取支付记录
func (r *GormPaymentRepository) GetByReference(referenceNo string) (*models.PendingPayment, error) {
	referenceNo = strings.TrimSpace(referenceNo)
	if referenceNo == "" {
		return nil, nil
	}
	var payment models.PendingPayment
	result := r.db.Where("reference_no = ?", referenceNo).Limit(1).Find(&payment)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &payment, nil
}

// ListQueued 按入库时间取最早的待处理记录
func (r *GormPaymentRepository) ListQueued(limit int) ([]models.PendingPayment, error) {
	if limit <= 0 {
		return []models.PendingPayment{}, nil
	}
	var payments []models.PendingPayment
	if err := r.db.Where("status = ?", constants.PaymentStatusQueued).
		Order("created_at asc").
		Limit(limit).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// ClaimQueued 认领单条记录（queued -> processing）
// 条件更新以原状态为守卫，已被其他路径认领的记录不会被二次认领。
func (r *GormPaymentRepository) ClaimQueued(id uint, now time.Time) (bool, error) {
	result := r.db.Model(&models.PendingPayment{}).
		Where("id = ? AND status = ?", id, constants.PaymentStatusQueued).
		Updates(map[string]interface{}{
			"status":          constants.PaymentStatusProcessing,
			"last_attempt_at": now,
			"attempt_count":   gorm.Expr("attempt_count + 1"),
			"updated_at":      now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// TransitionStatus 条件状态迁移（from -> to）
func (r *GormPaymentRepository) TransitionStatus(id uint, from, to string, updates map[string]interface{}) (bool, error) {
	values := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for key, value := range updates {
		values[key] = value
	}
	result := r.db.Model(&models.PendingPayment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RetryFailed 批量重新入队（api_retry -> queued）
// 仅 api_retry 状态的行受影响，终态行不会被改动。
func (r *GormPaymentRepository) RetryFailed(now time.Time) (int64, error) {
	result := r.db.Model(&models.PendingPayment{}).
		Where("status = ?", constants.PaymentStatusAPIRetry).
		Updates(map[string]interface{}{
			"status":     constants.PaymentStatusQueued,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// RequeueStaleProcessing 回收滞留的 processing 记录
// 持锁进程崩溃后遗留的行超过阈值即重新入队。
func (r *GormPaymentRepository) RequeueStaleProcessing(before time.Time, now time.Time) (int64, error) {
	result := r.db.Model(&models.PendingPayment{}).
		Where("status = ? AND last_attempt_at < ?", constants.PaymentStatusProcessing, before).
		Updates(map[string]interface{}{
			"status":     constants.PaymentStatusQueued,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// CountByStatus 按状态统计记录数
func (r *GormPaymentRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.PendingPayment{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// CountAttemptedBetween 统计指定时间段内最后处理的记录数
func (r *GormPaymentRepository) CountAttemptedBetween(status string, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.PendingPayment{}).
		Where("status = ? AND last_attempt_at >= ? AND last_attempt_at < ?", status, from, to).
		Count(&count).Error
	return count, err
}

// ListAdmin 管理端分页查询支付记录
func (r *GormPaymentRepository) ListAdmin(filter PaymentListFilter) ([]models.PendingPayment, int64, error) {
	query := r.db.Model(&models.PendingPayment{})

	if filter.ReferenceNo != "" {
		query = query.Where("reference_no LIKE ?", "%"+filter.ReferenceNo+"%")
	}
	if filter.AccountNo != "" {
		query = query.Where("account_no = ?", filter.AccountNo)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var payments []models.PendingPayment
	if err := query.Order("id desc").Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
