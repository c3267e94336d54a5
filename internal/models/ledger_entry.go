package models

import (
	"time"
)

// LedgerEntry 台账流水
// 说明：余额变动的不可变日志，创建后不更新不删除；reference 与
// pending_payments.reference_no 对应，唯一约束兜底幂等。
type LedgerEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`                  // 主键
	Reference string    `gorm:"uniqueIndex;not null" json:"reference"` // 幂等参考号
	AccountNo string    `gorm:"index;not null" json:"account_no"`      // 账户编号
	Type      string    `gorm:"index;not null" json:"type"`            // 流水类型
	Direction string    `gorm:"not null" json:"direction"`             // 流水方向（in/out）
	Amount    Money     `gorm:"type:decimal(20,2);not null" json:"amount"` // 变动金额
	BalanceAfter Money  `gorm:"type:decimal(20,2);not null" json:"balance_after"` // 变动后余额
	Remark    string    `gorm:"default:''" json:"remark"`              // 备注
	CreatedAt time.Time `gorm:"index" json:"created_at"`               // 创建时间
}

// TableName 指定表名
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
