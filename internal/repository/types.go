package repository

import "time"

// PaymentListFilter 支付记录查询过滤条件
type PaymentListFilter struct {
	ReferenceNo string
	AccountNo   string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// LedgerEntryListFilter 台账流水查询过滤条件
type LedgerEntryListFilter struct {
	AccountNo string
	Type      string
	Page      int
	PageSize  int
}
