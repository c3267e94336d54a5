package models

import (
	"time"
)

// BillingAccount 计费账户
type BillingAccount struct {
	ID        uint      `gorm:"primarykey" json:"id"`                   // 主键
	AccountNo string    `gorm:"uniqueIndex;not null" json:"account_no"` // 账户编号
	Name      string    `gorm:"default:''" json:"name"`                 // 客户名称
	Status    string    `gorm:"index;not null;default:'active'" json:"status"` // 账户状态
	Balance   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance"` // 账户余额
	CreatedAt time.Time `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                // 更新时间
}

// TableName 指定表名
func (BillingAccount) TableName() string {
	return "billing_accounts"
}
