package models

import (
	"time"
)

// PendingPayment 待结算支付记录
// 说明：由网关回调入库，结算工作器按状态机推进；reference_no 为幂等键，
// 同一 reference_no 的台账入账至多发生一次。
type PendingPayment struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                    // 主键
	ReferenceNo     string     `gorm:"uniqueIndex;not null" json:"reference_no"`                // 支付参考号（幂等键）
	AccountNo       string     `gorm:"index;not null" json:"account_no"`                        // 目标账户编号
	Amount          Money      `gorm:"type:decimal(20,2);not null" json:"amount"`               // 支付金额（入库后不变）
	Status          string     `gorm:"index;not null;default:'pending'" json:"status"`          // 结算状态
	ReconnectStatus string     `gorm:"not null;default:'not_attempted'" json:"reconnect_status"` // 复机状态
	AttemptCount    int        `gorm:"not null;default:0" json:"attempt_count"`                 // 处理尝试次数
	LastError       string     `gorm:"type:text" json:"last_error"`                             // 最近一次失败原因
	ProviderPayload JSON       `gorm:"type:json" json:"provider_payload"`                       // 网关原始报文（不解析）
	LastAttemptAt   *time.Time `gorm:"index" json:"last_attempt_at"`                            // 最近一次处理时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                 // 支付入库时间
	UpdatedAt       time.Time  `gorm:"index" json:"updated_at"`                                 // 更新时间
}

// TableName 指定表名
func (PendingPayment) TableName() string {
	return "pending_payments"
}
