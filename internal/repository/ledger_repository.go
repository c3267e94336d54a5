package repository

import (
	"errors"
	"strings"

	"github.com/netbill-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository 台账数据访问接口
type LedgerRepository interface {
	GetAccountByNo(accountNo string) (*models.BillingAccount, error)
	GetAccountByNoForUpdate(accountNo string) (*models.BillingAccount, error)
	CreateAccount(account *models.BillingAccount) error
	UpdateAccount(account *models.BillingAccount) error
	GetEntryByReference(reference string) (*models.LedgerEntry, error)
	CreateEntry(entry *models.LedgerEntry) error
	ListEntries(filter LedgerEntryListFilter) ([]models.LedgerEntry, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormLedgerRepository
}

// GormLedgerRepository GORM 台账仓储实现
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建台账仓储
func NewLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLedgerRepository) WithTx(tx *gorm.DB) *GormLedgerRepository {
	if tx == nil {
		return r
	}
	return &GormLedgerRepository{db: tx}
}

// Transaction 执行数据库事务
func (r *GormLedgerRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetAccountByNo 按账户编号获取计费账户
func (r *GormLedgerRepository) GetAccountByNo(accountNo string) (*models.BillingAccount, error) {
	accountNo = strings.TrimSpace(accountNo)
	if accountNo == "" {
		return nil, nil
	}
	var account models.BillingAccount
	if err := r.db.Where("account_no = ?", accountNo).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountByNoForUpdate 按账户编号加锁获取计费账户
func (r *GormLedgerRepository) GetAccountByNoForUpdate(accountNo string) (*models.BillingAccount, error) {
	accountNo = strings.TrimSpace(accountNo)
	if accountNo == "" {
		return nil, nil
	}
	var account models.BillingAccount
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_no = ?", accountNo).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// CreateAccount 创建计费账户
func (r *GormLedgerRepository) CreateAccount(account *models.BillingAccount) error {
	return r.db.Create(account).Error
}

// UpdateAccount 更新计费账户
func (r *GormLedgerRepository) UpdateAccount(account *models.BillingAccount) error {
	return r.db.Save(account).Error
}

// GetEntryByReference 按参考号获取台账流水
func (r *GormLedgerRepository) GetEntryByReference(reference string) (*models.LedgerEntry, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var entry models.LedgerEntry
	if err := r.db.Where("reference = ?", reference).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// CreateEntry 创建台账流水（只增不改）
func (r *GormLedgerRepository) CreateEntry(entry *models.LedgerEntry) error {
	return r.db.Create(entry).Error
}

// ListEntries 分页查询台账流水
func (r *GormLedgerRepository) ListEntries(filter LedgerEntryListFilter) ([]models.LedgerEntry, int64, error) {
	query := r.db.Model(&models.LedgerEntry{})
	if filter.AccountNo != "" {
		query = query.Where("account_no = ?", filter.AccountNo)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var entries []models.LedgerEntry
	if err := query.Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
