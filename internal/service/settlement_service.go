package service

import (
	"context"
	"time"

	"github.com/netbill-next/internal/cache"
	"github.com/netbill-next/internal/constants"
	"github.com/netbill-next/internal/logger"
	"github.com/netbill-next/internal/models"
	"github.com/netbill-next/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	defaultBatchSize      = 200
	defaultStuckThreshold = 30 * time.Minute
	reconnectCallTimeout  = 10 * time.Second
)

// Reconnector 复机 API 接口
// 尽力而为的旁路调用，失败只记录 reconnect_status，绝不影响资金状态。
type Reconnector interface {
	Reconnect(ctx context.Context, accountNo string) error
}

// SettlementService 支付结算服务
// 说明：持 payment_worker 锁推进 pending_payments 状态机；
// 同一参考号的台账入账至多发生一次。
type SettlementService struct {
	paymentRepo repository.PaymentRepository
	lockSvc     *LockService
	ledger      Ledger
	reconnector Reconnector
	batchSize   int
	maxAttempts int
}

// SettlementResult 单次结算运行结果
// Ran 为 false 表示锁被其他实例持有，本次未做任何处理。
type SettlementResult struct {
	Ran       bool  `json:"ran"`
	Processed int64 `json:"processed"`
	Succeeded int64 `json:"succeeded"`
	Retried   int64 `json:"retried"`
	Failed    int64 `json:"failed"`
}

// SettlementStats 结算统计
type SettlementStats struct {
	Pending     int64 `json:"pending"`
	Queued      int64 `json:"queued"`
	Processing  int64 `json:"processing"`
	APIRetry    int64 `json:"api_retry"`
	PaidToday   int64 `json:"paid_today"`
	FailedToday int64 `json:"failed_today"`
}

// NewSettlementService 创建结算服务
func NewSettlementService(
	paymentRepo repository.PaymentRepository,
	lockSvc *LockService,
	ledger Ledger,
	reconnector Reconnector,
	batchSize int,
	maxAttempts int,
) *SettlementService {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &SettlementService{
		paymentRepo: paymentRepo,
		lockSvc:     lockSvc,
		ledger:      ledger,
		reconnector: reconnector,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}
}

// RunOnce 执行一次结算批次
// 拿不到锁立即返回 Ran=false；拿到锁后认领至多 batchSize 条
// queued 记录逐条推进，结束时无条件释放锁。
func (s *SettlementService) RunOnce(ctx context.Context) (*SettlementResult, error) {
	acquired, err := s.lockSvc.Acquire(constants.LockPaymentWorker)
	if err != nil {
		return nil, err
	}
	if !acquired {
		logger.Infow("settlement_skip_already_running", "lock_name", constants.LockPaymentWorker)
		return &SettlementResult{Ran: false}, nil
	}
	defer s.lockSvc.Release(constants.LockPaymentWorker)

	result := &SettlementResult{Ran: true}

	queued, err := s.paymentRepo.ListQueued(s.batchSize)
	if err != nil {
		return nil, err
	}

	for _, payment := range queued {
		select {
		case <-ctx.Done():
			logger.Warnw("settlement_run_canceled", "processed", result.Processed)
			return result, ctx.Err()
		default:
		}

		claimed, err := s.paymentRepo.ClaimQueued(payment.ID, time.Now())
		if err != nil {
			return result, err
		}
		if !claimed {
			// 已被其他路径认领，跳过
			continue
		}
		result.Processed++

		outcome := s.processOne(ctx, &payment)
		switch outcome {
		case constants.PaymentStatusPaid:
			result.Succeeded++
		case constants.PaymentStatusAPIRetry:
			result.Retried++
		case constants.PaymentStatusFailed:
			result.Failed++
		}
	}

	logger.Infow("settlement_run_finished",
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"retried", result.Retried,
		"failed", result.Failed,
	)
	return result, nil
}

// processOne 推进单条 processing 记录，返回终到状态
func (s *SettlementService) processOne(ctx context.Context, payment *models.PendingPayment) string {
	// 先查台账：上一轮入账成功但未及标记 paid 的记录走幂等路径
	applied, err := s.ledger.HasApplied(payment.ReferenceNo)
	if err != nil {
		return s.markRetry(payment, err)
	}

	if !applied {
		if err := s.validate(payment); err != nil {
			return s.markFailed(payment, err)
		}
		if err := s.ledger.Credit(payment.AccountNo, payment.Amount, payment.ReferenceNo); err != nil {
			if IsPermanentFailure(err) {
				return s.markFailed(payment, err)
			}
			return s.markRetry(payment, err)
		}
	} else {
		logger.Infow("settlement_already_applied",
			"payment_id", payment.ID,
			"reference_no", payment.ReferenceNo,
		)
	}

	// 入账成功后的复机为旁路调用，置于资金事务之外，失败不回滚
	reconnectStatus := s.attemptReconnect(ctx, payment)

	moved, err := s.paymentRepo.TransitionStatus(payment.ID,
		constants.PaymentStatusProcessing,
		constants.PaymentStatusPaid,
		map[string]interface{}{
			"reconnect_status": reconnectStatus,
			"last_error":       "",
		})
	if err != nil || !moved {
		logger.Errorw("settlement_mark_paid_failed",
			"payment_id", payment.ID,
			"reference_no", payment.ReferenceNo,
			"moved", moved,
			"error", err,
		)
	}
	return constants.PaymentStatusPaid
}

// validate 入账前校验，失败均为终态
func (s *SettlementService) validate(payment *models.PendingPayment) error {
	if payment.Amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if payment.AccountNo == "" {
		return ErrAccountNotFound
	}
	return nil
}

// attemptReconnect 尽力而为的复机调用
func (s *SettlementService) attemptReconnect(ctx context.Context, payment *models.PendingPayment) string {
	if s.reconnector == nil {
		return constants.ReconnectStatusNotAttempted
	}
	callCtx, cancel := context.WithTimeout(ctx, reconnectCallTimeout)
	defer cancel()
	if err := s.reconnector.Reconnect(callCtx, payment.AccountNo); err != nil {
		logger.Warnw("settlement_reconnect_failed",
			"payment_id", payment.ID,
			"account_no", payment.AccountNo,
			"error", err,
		)
		return constants.ReconnectStatusFailed
	}
	return constants.ReconnectStatusSuccess
}

// markRetry 瞬时失败转入 api_retry，台账保证未动
// 配置了尝试上限时，超限的记录直接终态失败，避免对坏掉的
// 下游无限热循环。
func (s *SettlementService) markRetry(payment *models.PendingPayment, cause error) string {
	if s.maxAttempts > 0 && payment.AttemptCount+1 >= s.maxAttempts {
		logger.Warnw("settlement_attempts_exhausted",
			"payment_id", payment.ID,
			"reference_no", payment.ReferenceNo,
			"attempts", payment.AttemptCount+1,
		)
		return s.markFailed(payment, cause)
	}
	moved, err := s.paymentRepo.TransitionStatus(payment.ID,
		constants.PaymentStatusProcessing,
		constants.PaymentStatusAPIRetry,
		map[string]interface{}{
			"last_error": cause.Error(),
		})
	if err != nil || !moved {
		logger.Errorw("settlement_mark_retry_failed", "payment_id", payment.ID, "moved", moved, "error", err)
	}
	logger.Warnw("settlement_transient_failure",
		"payment_id", payment.ID,
		"reference_no", payment.ReferenceNo,
		"error", cause,
	)
	return constants.PaymentStatusAPIRetry
}

// markFailed 终态失败，不触碰台账
func (s *SettlementService) markFailed(payment *models.PendingPayment, cause error) string {
	moved, err := s.paymentRepo.TransitionStatus(payment.ID,
		constants.PaymentStatusProcessing,
		constants.PaymentStatusFailed,
		map[string]interface{}{
			"last_error": cause.Error(),
		})
	if err != nil || !moved {
		logger.Errorw("settlement_mark_failed_failed", "payment_id", payment.ID, "moved", moved, "error", err)
	}
	logger.Warnw("settlement_permanent_failure",
		"payment_id", payment.ID,
		"reference_no", payment.ReferenceNo,
		"error", cause,
	)
	return constants.PaymentStatusFailed
}

// RetryFailed 批量重新入队 api_retry 记录
func (s *SettlementService) RetryFailed() (int64, error) {
	count, err := s.paymentRepo.RetryFailed(time.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.Infow("settlement_retry_admitted", "count", count)
	}
	return count, nil
}

// RequeueStuck 回收滞留的 processing 记录
// 锁过期只能让后续批次继续运行，遗留的 processing 行需要
// 这一独立巡检重新入队。
func (s *SettlementService) RequeueStuck(olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = defaultStuckThreshold
	}
	now := time.Now()
	count, err := s.paymentRepo.RequeueStaleProcessing(now.Add(-olderThan), now)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.Warnw("settlement_requeued_stuck", "count", count, "older_than", olderThan.String())
	}
	return count, nil
}

// Stats 结算统计（带短 TTL 缓存）
// pending/queued/processing/api_retry 为即时总数；
// paid_today/failed_today 以 last_attempt_at 的本地自然日为准。
func (s *SettlementService) Stats(ctx context.Context, forceRefresh bool) (*SettlementStats, error) {
	if !forceRefresh {
		if snapshot, hit, err := cache.GetSettlementStats(ctx); err == nil && hit && snapshot != nil {
			return &SettlementStats{
				Pending:     snapshot.Pending,
				Queued:      snapshot.Queued,
				Processing:  snapshot.Processing,
				APIRetry:    snapshot.APIRetry,
				PaidToday:   snapshot.PaidToday,
				FailedToday: snapshot.FailedToday,
			}, nil
		}
	}

	stats := &SettlementStats{}
	var err error
	if stats.Pending, err = s.paymentRepo.CountByStatus(constants.PaymentStatusPending); err != nil {
		return nil, err
	}
	if stats.Queued, err = s.paymentRepo.CountByStatus(constants.PaymentStatusQueued); err != nil {
		return nil, err
	}
	if stats.Processing, err = s.paymentRepo.CountByStatus(constants.PaymentStatusProcessing); err != nil {
		return nil, err
	}
	if stats.APIRetry, err = s.paymentRepo.CountByStatus(constants.PaymentStatusAPIRetry); err != nil {
		return nil, err
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	if stats.PaidToday, err = s.paymentRepo.CountAttemptedBetween(constants.PaymentStatusPaid, dayStart, dayEnd); err != nil {
		return nil, err
	}
	if stats.FailedToday, err = s.paymentRepo.CountAttemptedBetween(constants.PaymentStatusFailed, dayStart, dayEnd); err != nil {
		return nil, err
	}

	_ = cache.SetSettlementStats(ctx, &cache.SettlementStatsSnapshot{
		Pending:     stats.Pending,
		Queued:      stats.Queued,
		Processing:  stats.Processing,
		APIRetry:    stats.APIRetry,
		PaidToday:   stats.PaidToday,
		FailedToday: stats.FailedToday,
		GeneratedAt: now.Unix(),
	})
	return stats, nil
}
