package repository

import "gorm.io/gorm"

// 仓库层兜底上限，防止上层漏传导致全表拉取
const maxListPageSize = 500

// applyPagination 应用分页参数，统一处理非法页码与偏移量
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxListPageSize {
		pageSize = maxListPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
