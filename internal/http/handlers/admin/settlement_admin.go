package admin

import (
	"strconv"
	"time"

	"github.com/netbill-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// RunSettlement 手动触发一次结算批次
// 锁被其他实例持有时返回 ran=false，不算错误。
func (h *Handler) RunSettlement(c *gin.Context) {
	result, err := h.SettlementService.RunOnce(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "结算批次执行失败", err)
		return
	}
	if !result.Ran {
		response.SuccessWithMsg(c, "结算正在其他实例运行", result)
		return
	}
	requestLog(c).Infow("manual_settlement_run",
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"retried", result.Retried,
		"failed", result.Failed,
	)
	response.Success(c, result)
}

// RetryFailedSettlements 批量放行 api_retry 记录
func (h *Handler) RetryFailedSettlements(c *gin.Context) {
	count, err := h.SettlementService.RetryFailed()
	if err != nil {
		respondError(c, response.CodeInternal, "重试放行失败", err)
		return
	}
	response.Success(c, gin.H{"requeued": count})
}

// RequeueStuckSettlements 回收滞留的 processing 记录
func (h *Handler) RequeueStuckSettlements(c *gin.Context) {
	olderThanMinutes, _ := strconv.Atoi(c.DefaultQuery("older_than_minutes", "0"))
	olderThan := time.Duration(olderThanMinutes) * time.Minute
	if olderThan <= 0 {
		olderThan = time.Duration(h.Config.Settlement.StuckThresholdMinutes) * time.Minute
	}
	count, err := h.SettlementService.RequeueStuck(olderThan)
	if err != nil {
		respondError(c, response.CodeInternal, "滞留记录回收失败", err)
		return
	}
	response.Success(c, gin.H{"requeued": count})
}

// GetSettlementStats 获取结算统计
func (h *Handler) GetSettlementStats(c *gin.Context) {
	forceRefresh := c.Query("refresh") == "1"
	stats, err := h.SettlementService.Stats(c.Request.Context(), forceRefresh)
	if err != nil {
		respondError(c, response.CodeInternal, "获取结算统计失败", err)
		return
	}
	response.Success(c, stats)
}
