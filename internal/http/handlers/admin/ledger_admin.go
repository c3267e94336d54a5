package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/netbill-next/internal/http/response"
	"github.com/netbill-next/internal/repository"
	"github.com/netbill-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetLedgerEntries 获取台账流水列表
func (h *Handler) GetLedgerEntries(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.LedgerEntryListFilter{
		AccountNo: strings.TrimSpace(c.Query("account_no")),
		Type:      strings.TrimSpace(c.Query("type")),
		Page:      page,
		PageSize:  pageSize,
	}

	entries, total, err := h.LedgerService.ListEntries(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取台账流水失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, entries, pagination)
}

// GetBillingAccount 获取计费账户详情
func (h *Handler) GetBillingAccount(c *gin.Context) {
	accountNo := strings.TrimSpace(c.Param("account_no"))
	if accountNo == "" {
		respondError(c, response.CodeBadRequest, "账号无效", nil)
		return
	}

	account, err := h.LedgerService.GetAccount(accountNo)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			respondError(c, response.CodeNotFound, "账户不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取账户失败", err)
		return
	}
	response.Success(c, account)
}
