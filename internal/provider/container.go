package provider

import (
	"github.com/netbill-next/internal/cache"
	"github.com/netbill-next/internal/config"
	"github.com/netbill-next/internal/logger"
	"github.com/netbill-next/internal/models"
	"github.com/netbill-next/internal/queue"
	"github.com/netbill-next/internal/reconnect"
	"github.com/netbill-next/internal/repository"
	"github.com/netbill-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	OperatorRepo repository.OperatorRepository
	PaymentRepo  repository.PaymentRepository
	LedgerRepo   repository.LedgerRepository
	LockRepo     repository.LockRepository

	// Services
	AuthService       *service.AuthService
	LockService       *service.LockService
	LedgerService     *service.LedgerService
	SettlementService *service.SettlementService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.OperatorRepo = repository.NewOperatorRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.LedgerRepo = repository.NewLedgerRepository(db)
	c.LockRepo = repository.NewLockRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.OperatorRepo)
	c.LockService = service.NewLockService(c.LockRepo)
	c.LedgerService = service.NewLedgerService(c.LedgerRepo)

	// 复机客户端未配置时保持 nil，结算流程记 not_attempted
	var reconnector service.Reconnector
	if c.Config.Reconnect.Enabled {
		client, err := reconnect.NewClient(reconnect.Config{
			BaseURL:   c.Config.Reconnect.BaseURL,
			AuthToken: c.Config.Reconnect.AuthToken,
			TimeoutMS: c.Config.Reconnect.TimeoutMS,
		})
		if err != nil {
			logger.Warnw("provider_init_reconnect_failed", "error", err)
		} else {
			reconnector = client
		}
	}

	c.SettlementService = service.NewSettlementService(
		c.PaymentRepo,
		c.LockService,
		c.LedgerService,
		reconnector,
		c.Config.Settlement.BatchSize,
		c.Config.Settlement.MaxAttempts,
	)
}
