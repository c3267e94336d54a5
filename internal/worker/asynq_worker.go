package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/netbill-next/internal/logger"
	"github.com/netbill-next/internal/provider"
	"github.com/netbill-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSettlementRun, c.handleSettlementRun)
	mux.HandleFunc(queue.TaskSettlementRetry, c.handleSettlementRetry)
	mux.HandleFunc(queue.TaskLockExpireStale, c.handleLockExpireStale)
	mux.HandleFunc(queue.TaskSettlementRequeue, c.handleSettlementRequeue)
}

func (c *Consumer) handleSettlementRun(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_settlement_run_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SettlementRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_settlement_run_unmarshal_failed", "error", err)
		return err
	}
	if c.SettlementService == nil {
		logger.Warnw("worker_settlement_run_skip_service_nil")
		return nil
	}
	result, err := c.SettlementService.RunOnce(ctx)
	if err != nil {
		logger.Warnw("worker_settlement_run_failed", "trigger", payload.Trigger, "error", err)
		return err
	}
	if !result.Ran {
		// 锁被占用不是失败，无需重试
		logger.Debugw("worker_settlement_run_skip_locked", "trigger", payload.Trigger)
	}
	return nil
}

func (c *Consumer) handleSettlementRetry(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_settlement_retry_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SettlementRetryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_settlement_retry_unmarshal_failed", "error", err)
		return err
	}
	if c.SettlementService == nil {
		logger.Warnw("worker_settlement_retry_skip_service_nil")
		return nil
	}
	count, err := c.SettlementService.RetryFailed()
	if err != nil {
		logger.Warnw("worker_settlement_retry_failed", "trigger", payload.Trigger, "error", err)
		return err
	}
	logger.Debugw("worker_settlement_retry_done", "trigger", payload.Trigger, "count", count)
	return nil
}

func (c *Consumer) handleLockExpireStale(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_lock_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.LockExpireStalePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_lock_expire_unmarshal_failed", "error", err)
		return err
	}
	if c.LockService == nil {
		logger.Warnw("worker_lock_expire_skip_service_nil")
		return nil
	}
	maxAge := time.Duration(c.Config.Settlement.LockMaxAgeMinutes) * time.Minute
	count, err := c.LockService.ExpireStale(payload.LockName, maxAge)
	if err != nil {
		logger.Warnw("worker_lock_expire_failed", "lock_name", payload.LockName, "error", err)
		return err
	}
	if count > 0 {
		logger.Infow("worker_lock_expired_stale", "lock_name", payload.LockName, "count", count)
	}
	return nil
}

func (c *Consumer) handleSettlementRequeue(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_settlement_requeue_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SettlementRequeuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_settlement_requeue_unmarshal_failed", "error", err)
		return err
	}
	if c.SettlementService == nil {
		logger.Warnw("worker_settlement_requeue_skip_service_nil")
		return nil
	}
	olderThan := time.Duration(payload.OlderThanMinutes) * time.Minute
	if olderThan <= 0 {
		olderThan = time.Duration(c.Config.Settlement.StuckThresholdMinutes) * time.Minute
	}
	count, err := c.SettlementService.RequeueStuck(olderThan)
	if err != nil {
		logger.Warnw("worker_settlement_requeue_failed", "error", err)
		return err
	}
	logger.Debugw("worker_settlement_requeue_done", "count", count)
	return nil
}
