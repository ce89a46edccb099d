package repository

import (
	"strings"

	"github.com/petcare-next/internal/models"

	"gorm.io/gorm"
)

// AuthzAuditLogRepository 权限审计日志数据访问接口，日志只追加不修改
type AuthzAuditLogRepository interface {
	Create(log *models.AuthzAuditLog) error
	List(filter AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error)
}

// GormAuthzAuditLogRepository GORM 实现
type GormAuthzAuditLogRepository struct {
	db *gorm.DB
}

// NewAuthzAuditLogRepository 创建权限审计日志仓库
func NewAuthzAuditLogRepository(db *gorm.DB) *GormAuthzAuditLogRepository {
	return &GormAuthzAuditLogRepository{db: db}
}

// Create 追加一条审计日志
func (r *GormAuthzAuditLogRepository) Create(log *models.AuthzAuditLog) error {
	if log == nil {
		return nil
	}
	return r.db.Create(log).Error
}

// List 按条件分页查询，最新记录在前
func (r *GormAuthzAuditLogRepository) List(filter AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error) {
	query := filter.apply(r.db.Model(&models.AuthzAuditLog{}))
	logs := make([]models.AuthzAuditLog, 0)
	total, err := countAndFind(query, filter.Page, filter.PageSize, "id DESC", &logs)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// apply 把非零过滤条件转换为查询条件；ObjectPrefix 匹配某一路由前缀下的全部策略
func (f AuthzAuditLogListFilter) apply(db *gorm.DB) *gorm.DB {
	conditions := map[string]interface{}{}
	if f.OperatorAccountID != 0 {
		conditions["operator_account_id"] = f.OperatorAccountID
	}
	if action := strings.TrimSpace(f.Action); action != "" {
		conditions["action"] = action
	}
	if role := strings.TrimSpace(f.Role); role != "" {
		conditions["role"] = role
	}
	if requestID := strings.TrimSpace(f.RequestID); requestID != "" {
		conditions["request_id"] = requestID
	}
	if len(conditions) > 0 {
		db = db.Where(conditions)
	}
	if prefix := strings.TrimSpace(f.ObjectPrefix); prefix != "" {
		db = db.Where(`object LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	}
	if f.CreatedFrom != nil {
		db = db.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		db = db.Where("created_at <= ?", *f.CreatedTo)
	}
	return db
}

// escapeLike 转义 LIKE 通配符，路由中的 _ 按字面匹配
func escapeLike(raw string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(raw)
}
