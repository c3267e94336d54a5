package worker

import (
	"context"
	"errors"
	"time"

	"github.com/netbill-next/internal/config"
	"github.com/netbill-next/internal/constants"
	"github.com/netbill-next/internal/logger"
	"github.com/netbill-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务
// 除消费队列任务外，自带结算、清锁、滞留回收三个周期循环，
// 保证即使无人入队任务，结算也会按固定间隔推进。
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.SettlementService != nil {
		go s.runSettlementLoop(ctx)
		go s.runLockJanitorLoop(ctx)
		go s.runRequeueLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) settlementConfig() config.SettlementConfig {
	if s == nil || s.consumer == nil || s.consumer.Config == nil {
		return config.SettlementConfig{}
	}
	return s.consumer.Config.Settlement
}

func (s *Service) runSettlementLoop(ctx context.Context) {
	interval := time.Duration(s.settlementConfig().RunIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	runOnce := func() {
		result, err := s.consumer.SettlementService.RunOnce(ctx)
		if err != nil {
			logger.Warnw("worker_settlement_loop_failed", "error", err)
			return
		}
		if result.Ran && result.Processed > 0 {
			logger.Infow("worker_settlement_loop_done",
				"processed", result.Processed,
				"succeeded", result.Succeeded,
				"retried", result.Retried,
				"failed", result.Failed,
			)
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func (s *Service) runLockJanitorLoop(ctx context.Context) {
	cfg := s.settlementConfig()
	interval := time.Duration(cfg.JanitorIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	maxAge := time.Duration(cfg.LockMaxAgeMinutes) * time.Minute
	runOnce := func() {
		count, err := s.consumer.LockService.ExpireStale(constants.LockPaymentWorker, maxAge)
		if err != nil {
			logger.Warnw("worker_lock_janitor_failed", "error", err)
			return
		}
		if count > 0 {
			logger.Infow("worker_lock_janitor_expired", "count", count)
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func (s *Service) runRequeueLoop(ctx context.Context) {
	cfg := s.settlementConfig()
	interval := time.Duration(cfg.RequeueIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	olderThan := time.Duration(cfg.StuckThresholdMinutes) * time.Minute
	runOnce := func() {
		if _, err := s.consumer.SettlementService.RequeueStuck(olderThan); err != nil {
			logger.Warnw("worker_requeue_loop_failed", "error", err)
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
