package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/netbill-next/internal/models"

	"gorm.io/gorm"
)

// OperatorRepository 运维操作员数据访问接口
type OperatorRepository interface {
	GetByID(id uint) (*models.Operator, error)
	GetByUsername(username string) (*models.Operator, error)
	UpdateLastLoginAt(id uint, at time.Time) error
}

// GormOperatorRepository GORM 实现
type GormOperatorRepository struct {
	db *gorm.DB
}

// NewOperatorRepository 创建操作员仓库
func NewOperatorRepository(db *gorm.DB) *GormOperatorRepository {
	return &GormOperatorRepository{db: db}
}

// GetByID 根据 ID 获取操作员
func (r *GormOperatorRepository) GetByID(id uint) (*models.Operator, error) {
	var operator models.Operator
	if err := r.db.First(&operator, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &operator, nil
}

// GetByUsername 根据用户名获取操作员
func (r *GormOperatorRepository) GetByUsername(username string) (*models.Operator, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	var operator models.Operator
	if err := r.db.Where("username = ?", username).First(&operator).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &operator, nil
}

// UpdateLastLoginAt 更新最后登录时间
func (r *GormOperatorRepository) UpdateLastLoginAt(id uint, at time.Time) error {
	return r.db.Model(&models.Operator{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}
