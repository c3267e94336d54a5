package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/netbill-next/internal/constants"
	"github.com/netbill-next/internal/models"
	"github.com/netbill-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger 台账入账接口
// 结算工作器通过该接口入账；reference 为幂等键，同一 reference
// 的入账至多生效一次。
type Ledger interface {
	HasApplied(reference string) (bool, error)
	Credit(accountNo string, amount models.Money, reference string) error
}

// LedgerService 数据库台账服务
type LedgerService struct {
	ledgerRepo repository.LedgerRepository
}

// NewLedgerService 创建台账服务
func NewLedgerService(ledgerRepo repository.LedgerRepository) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo}
}

// HasApplied 判断参考号是否已入账
func (s *LedgerService) HasApplied(reference string) (bool, error) {
	entry, err := s.ledgerRepo.GetEntryByReference(reference)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return entry != nil, nil
}

// Credit 向账户入账
// 余额更新与流水写入在同一事务内完成：锁定账户行、以 reference
// 再次兜底查重、更新余额、追加不可变流水。事务内任何失败都会
// 整体回滚，余额保证不变。
func (s *LedgerService) Credit(accountNo string, amount models.Money, reference string) error {
	accountNo = strings.TrimSpace(accountNo)
	reference = strings.TrimSpace(reference)
	if accountNo == "" {
		return ErrAccountNotFound
	}
	if reference == "" || amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	err := s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.ledgerRepo.WithTx(tx)

		existing, err := repo.GetEntryByReference(reference)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
		}
		if existing != nil {
			// 已入账，幂等返回
			return nil
		}

		account, err := repo.GetAccountByNoForUpdate(accountNo)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
		}
		if account == nil {
			return ErrAccountNotFound
		}

		// 停机账户仍可入账，复机由结算流程的 reconnect 兜底
		newBalance := models.NewMoneyFromDecimal(account.Balance.Decimal.Add(amount.Decimal))
		account.Balance = newBalance
		account.UpdatedAt = time.Now()
		if err := repo.UpdateAccount(account); err != nil {
			return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
		}

		entry := &models.LedgerEntry{
			Reference:    reference,
			AccountNo:    accountNo,
			Type:         constants.LedgerEntryTypePaymentCredit,
			Direction:    constants.LedgerDirectionIn,
			Amount:       amount,
			BalanceAfter: newBalance,
			Remark:       "结算入账",
			CreatedAt:    time.Now(),
		}
		if err := repo.CreateEntry(entry); err != nil {
			return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
		}
		return nil
	})
	return err
}

// GetAccount 查询计费账户
func (s *LedgerService) GetAccount(accountNo string) (*models.BillingAccount, error) {
	account, err := s.ledgerRepo.GetAccountByNo(accountNo)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// ListEntries 查询台账流水
func (s *LedgerService) ListEntries(filter repository.LedgerEntryListFilter) ([]models.LedgerEntry, int64, error) {
	return s.ledgerRepo.ListEntries(filter)
}
