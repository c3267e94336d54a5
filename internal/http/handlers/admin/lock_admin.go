package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/netbill-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetLocks 获取工作器锁列表
func (h *Handler) GetLocks(c *gin.Context) {
	locks, err := h.LockService.ListLocks()
	if err != nil {
		respondError(c, response.CodeInternal, "获取锁列表失败", err)
		return
	}
	response.Success(c, locks)
}

// ExpireStaleLocks 手动清理过期锁
// lock_name 为空时清理全部，max_age_minutes 缺省取配置值。
func (h *Handler) ExpireStaleLocks(c *gin.Context) {
	lockName := strings.TrimSpace(c.Query("lock_name"))
	maxAgeMinutes, _ := strconv.Atoi(c.DefaultQuery("max_age_minutes", "0"))
	maxAge := time.Duration(maxAgeMinutes) * time.Minute
	if maxAge <= 0 {
		maxAge = time.Duration(h.Config.Settlement.LockMaxAgeMinutes) * time.Minute
	}

	count, err := h.LockService.ExpireStale(lockName, maxAge)
	if err != nil {
		respondError(c, response.CodeInternal, "清理过期锁失败", err)
		return
	}
	response.Success(c, gin.H{"expired": count})
}
