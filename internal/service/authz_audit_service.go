package service

import (
	"strings"
	"time"

	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/repository"
)

// AuthzAuditRecordInput 权限审计记录输入
type AuthzAuditRecordInput struct {
	OperatorAccountID uint
	OperatorRole      string
	Action            string
	Role              string
	Object            string
	Method            string
	RequestID         string
}

// AuthzAuditService 权限审计服务
type AuthzAuditService struct {
	repo repository.AuthzAuditLogRepository
}

// NewAuthzAuditService 创建权限审计服务
func NewAuthzAuditService(repo repository.AuthzAuditLogRepository) *AuthzAuditService {
	return &AuthzAuditService{repo: repo}
}

// Record 记录权限审计日志，缺少操作人或动作时忽略
func (s *AuthzAuditService) Record(input AuthzAuditRecordInput) error {
	if s == nil || s.repo == nil {
		return nil
	}
	action := strings.TrimSpace(input.Action)
	if input.OperatorAccountID == 0 || action == "" {
		return nil
	}

	item := &models.AuthzAuditLog{
		OperatorAccountID: input.OperatorAccountID,
		OperatorRole:      strings.ToLower(strings.TrimSpace(input.OperatorRole)),
		Action:            action,
		Role:              strings.TrimSpace(input.Role),
		Object:            strings.TrimSpace(input.Object),
		Method:            strings.ToUpper(strings.TrimSpace(input.Method)),
		RequestID:         strings.TrimSpace(input.RequestID),
		CreatedAt:         time.Now(),
	}
	if err := s.repo.Create(item); err != nil {
		return err
	}
	logger.Infow("authz_audit_recorded",
		"operator_account_id", item.OperatorAccountID,
		"action", item.Action,
		"role", item.Role,
	)
	return nil
}

// List 查询权限审计日志
func (s *AuthzAuditService) List(filter repository.AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AuthzAuditLog{}, 0, nil
	}
	return s.repo.List(filter)
}
