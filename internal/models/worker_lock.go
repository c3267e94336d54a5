package models

import (
	"time"
)

// WorkerLock 工作器互斥锁
// 说明：行的存在即代表锁被持有；lock_name 的唯一约束保证并发获取时
// 至多一个调用方插入成功。
type WorkerLock struct {
	ID         uint      `gorm:"primarykey" json:"id"`                  // 主键
	LockName   string    `gorm:"uniqueIndex;not null" json:"lock_name"` // 锁名称
	Holder     string    `gorm:"not null" json:"holder"`                // 持有者标识
	AcquiredAt time.Time `gorm:"index;not null" json:"acquired_at"`     // 获取时间
}

// TableName 指定表名
func (WorkerLock) TableName() string {
	return "worker_locks"
}
