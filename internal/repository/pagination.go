package repository

import "gorm.io/gorm"

const maxPageSize = 200

// applyPagination 应用分页参数；pageSize <= 0 表示不分页。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}

// countAndFind 先统计总数再按分页查询
func countAndFind(query *gorm.DB, page, pageSize int, order string, dest interface{}) (int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	if err := applyPagination(query, page, pageSize).Order(order).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}
