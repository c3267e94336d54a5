package cache

import (
	"context"
	"time"
)

const settlementStatsCacheTTL = 30 * time.Second
const settlementStatsKey = "settlement:stats"

// SettlementStatsSnapshot 结算统计快照
// 仅用于服务端 Redis 缓存，避免高频统计查询打到数据库。
type SettlementStatsSnapshot struct {
	Pending     int64 `json:"pending"`
	Queued      int64 `json:"queued"`
	Processing  int64 `json:"processing"`
	APIRetry    int64 `json:"api_retry"`
	PaidToday   int64 `json:"paid_today"`
	FailedToday int64 `json:"failed_today"`
	GeneratedAt int64 `json:"generated_at"`
}

// GetSettlementStats 获取结算统计快照
func GetSettlementStats(ctx context.Context) (*SettlementStatsSnapshot, bool, error) {
	var snapshot SettlementStatsSnapshot
	hit, err := GetJSON(ctx, settlementStatsKey, &snapshot)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &snapshot, true, nil
}

// SetSettlementStats 写入结算统计快照
func SetSettlementStats(ctx context.Context, snapshot *SettlementStatsSnapshot) error {
	if snapshot == nil {
		return nil
	}
	return SetJSON(ctx, settlementStatsKey, snapshot, settlementStatsCacheTTL)
}

// DelSettlementStats 删除结算统计快照
func DelSettlementStats(ctx context.Context) error {
	return Del(ctx, settlementStatsKey)
}
