package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/netbill-next/internal/http/response"
	"github.com/netbill-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetPayments 获取待结算支付列表
func (h *Handler) GetPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.PaymentListFilter{
		ReferenceNo: strings.TrimSpace(c.Query("reference_no")),
		AccountNo:   strings.TrimSpace(c.Query("account_no")),
		Status:      strings.TrimSpace(c.Query("status")),
		Page:        page,
		PageSize:    pageSize,
	}
	if from := strings.TrimSpace(c.Query("created_from")); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.CreatedFrom = &t
		}
	}
	if to := strings.TrimSpace(c.Query("created_to")); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			end := t.Add(24 * time.Hour)
			filter.CreatedTo = &end
		}
	}

	payments, total, err := h.PaymentRepo.ListAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取支付列表失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, payments, pagination)
}

// GetPayment 获取支付详情
func (h *Handler) GetPayment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "支付 ID 无效", nil)
		return
	}

	payment, err := h.PaymentRepo.GetByID(uint(id))
	if err != nil {
		respondError(c, response.CodeInternal, "获取支付详情失败", err)
		return
	}
	if payment == nil {
		respondError(c, response.CodeNotFound, "支付记录不存在", nil)
		return
	}
	response.Success(c, payment)
}
