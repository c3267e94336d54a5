package queue

import (
	"encoding/json"

	"github.com/netbill-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskSettlementRun 结算批次任务
	TaskSettlementRun = constants.TaskSettlementRun
	// TaskSettlementRetry 重试放行任务
	TaskSettlementRetry = constants.TaskSettlementRetry
	// TaskLockExpireStale 过期锁清理任务
	TaskLockExpireStale = constants.TaskLockExpireStale
	// TaskSettlementRequeue 滞留记录回收任务
	TaskSettlementRequeue = constants.TaskSettlementRequeue
)

// SettlementRunPayload 结算批次任务载荷
type SettlementRunPayload struct {
	Trigger string `json:"trigger"` // scheduler / manual
}

// SettlementRetryPayload 重试放行任务载荷
type SettlementRetryPayload struct {
	Trigger string `json:"trigger"`
}

// LockExpireStalePayload 过期锁清理任务载荷
type LockExpireStalePayload struct {
	LockName string `json:"lock_name"` // 为空时清理全部
}

// SettlementRequeuePayload 滞留记录回收任务载荷
type SettlementRequeuePayload struct {
	OlderThanMinutes int `json:"older_than_minutes"`
}

// NewSettlementRunTask 创建结算批次任务
func NewSettlementRunTask(payload SettlementRunPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementRun, body), nil
}

// NewSettlementRetryTask 创建重试放行任务
func NewSettlementRetryTask(payload SettlementRetryPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementRetry, body), nil
}

// NewLockExpireStaleTask 创建过期锁清理任务
func NewLockExpireStaleTask(payload LockExpireStalePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLockExpireStale, body), nil
}

// NewSettlementRequeueTask 创建滞留记录回收任务
func NewSettlementRequeueTask(payload SettlementRequeuePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementRequeue, body), nil
}
