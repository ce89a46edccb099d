package admin

import (
	"net/url"
	"strings"

	"github.com/petcare-next/internal/authz"
	"github.com/petcare-next/internal/http/handlers/shared"
	"github.com/petcare-next/internal/http/response"
	"github.com/petcare-next/internal/service"

	"github.com/gin-gonic/gin"
)

type authzRolePayload struct {
	Role string `json:"role" binding:"required"`
}

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

var authzErrorRules = []shared.MappedHandlerError{
	{Target: authz.ErrRoleRequired, Code: response.CodeBadRequest, Key: "error.authz_role_required"},
	{Target: authz.ErrReservedRole, Code: response.CodeBadRequest, Key: "error.authz_role_reserved"},
	{Target: authz.ErrBuiltinRole, Code: response.CodeUnprocessable, Key: "error.authz_role_builtin"},
	{Target: authz.ErrActionRequired, Code: response.CodeBadRequest, Key: "error.authz_action_required"},
	{Target: authz.ErrObjectScope, Code: response.CodeBadRequest, Key: "error.authz_object_scope"},
}

// GetAuthzMe 当前账号的角色与生效策略（含继承）
func (h *Handler) GetAuthzMe(c *gin.Context) {
	accountID, ok := getAdminID(c)
	if !ok {
		return
	}
	role := shared.GetAccountRole(c)
	subject, err := authz.SubjectForRole(role)
	if err != nil {
		respondError(c, response.CodeForbidden, "error.role_invalid", err)
		return
	}
	policies, err := h.AuthzService.GetEffectivePolicies(role)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal_error", err)
		return
	}
	response.Success(c, gin.H{
		"account_id": accountID,
		"role":       role,
		"subject":    subject,
		"policies":   policies,
	})
}

// ListAuthzRoles 获取角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal_error", err)
		return
	}
	items := make([]gin.H, 0, len(roles))
	for _, role := range roles {
		items = append(items, gin.H{"role": role, "builtin": authz.IsBuiltinRole(role)})
	}
	response.Success(c, items)
}

// CreateAuthzRole 创建自定义角色
func (h *Handler) CreateAuthzRole(c *gin.Context) {
	var req authzRolePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondWithMappedError(c, err, authzErrorRules, response.CodeInternal, "error.internal_error")
		return
	}
	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{Action: "role_create", Role: role})
	response.Success(c, gin.H{"role": role})
}

// DeleteAuthzRole 删除自定义角色
func (h *Handler) DeleteAuthzRole(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if err := h.AuthzService.DeleteRole(role); err != nil {
		respondWithMappedError(c, err, authzErrorRules, response.CodeInternal, "error.internal_error")
		return
	}
	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{Action: "role_delete", Role: role})
	response.Success(c, nil)
}

// GetAuthzRolePolicies 获取角色直接持有的策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	policies, err := h.AuthzService.GetRolePolicies(decodeRoleParam(c.Param("role")))
	if err != nil {
		respondWithMappedError(c, err, authzErrorRules, response.CodeInternal, "error.internal_error")
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy 授予角色路由权限
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	h.changeAuthzPolicy(c, "policy_grant", h.AuthzService.GrantRolePolicy)
}

// RevokeAuthzPolicy 撤销角色路由权限
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	h.changeAuthzPolicy(c, "policy_revoke", h.AuthzService.RevokeRolePolicy)
}

func (h *Handler) changeAuthzPolicy(c *gin.Context, action string, apply func(role, object, action string) error) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := apply(req.Role, req.Object, req.Action); err != nil {
		respondWithMappedError(c, err, authzErrorRules, response.CodeInternal, "error.internal_error")
		return
	}
	role, _ := authz.NormalizeRole(req.Role)
	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		Action: action,
		Role:   role,
		Object: authz.NormalizeObject(req.Object),
		Method: authz.NormalizeAction(req.Action),
	})
	response.Success(c, nil)
}

// recordAuthzAudit 补齐操作人后写入审计日志，写入失败不影响本次变更
func (h *Handler) recordAuthzAudit(c *gin.Context, input service.AuthzAuditRecordInput) {
	if h == nil || h.AuthzAuditService == nil {
		return
	}
	input.OperatorAccountID = currentAdminID(c)
	input.OperatorRole = shared.GetAccountRole(c)
	input.RequestID = c.GetString("request_id")
	if err := h.AuthzAuditService.Record(input); err != nil {
		requestLog(c).Warnw("admin_authz_audit_record_failed",
			"operator_account_id", input.OperatorAccountID,
			"action", input.Action,
			"role", input.Role,
			"error", err,
		)
	}
}

func decodeRoleParam(value string) string {
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(decoded)
}
