package constants

// 支付结算状态常量
const (
	PaymentStatusPending    = "pending"
	PaymentStatusQueued     = "queued"
	PaymentStatusProcessing = "processing"
	PaymentStatusPaid       = "paid"
	PaymentStatusAPIRetry   = "api_retry"
	PaymentStatusFailed     = "failed"
)

// 复机状态常量
const (
	ReconnectStatusNotAttempted = "not_attempted"
	ReconnectStatusSuccess      = "success"
	ReconnectStatusFailed       = "failed"
)

// 工作锁名称常量
const (
	LockPaymentWorker = "payment_worker"
)

// 台账流水类型常量
const (
	LedgerEntryTypePaymentCredit = "payment_credit"
	LedgerEntryTypeAdminAdjust   = "admin_adjust"
)

// 台账流水方向常量
const (
	LedgerDirectionIn  = "in"
	LedgerDirectionOut = "out"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 异步任务类型常量
const (
	TaskSettlementRun     = "settlement:run"
	TaskSettlementRetry   = "settlement:retry_failed"
	TaskLockExpireStale   = "locks:expire_stale"
	TaskSettlementRequeue = "settlement:requeue_stuck"
)

// 账户状态常量
const (
	AccountStatusActive    = "active"
	AccountStatusSuspended = "suspended"
)
