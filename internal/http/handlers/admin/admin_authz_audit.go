package admin

import (
	"strings"

	"github.com/petcare-next/internal/http/handlers/shared"
	"github.com/petcare-next/internal/http/response"
	"github.com/petcare-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAuthzAuditLogs 获取权限审计日志列表
func (h *Handler) ListAuthzAuditLogs(c *gin.Context) {
	page, pageSize := shared.ParsePageQuery(c)
	operatorAccountID, ok := shared.ParseUintQuery(c, "operator_account_id")
	if !ok {
		return
	}
	createdFrom, ok := shared.ParseTimeQuery(c, "created_from")
	if !ok {
		return
	}
	createdTo, ok := shared.ParseTimeQuery(c, "created_to")
	if !ok {
		return
	}

	items, total, err := h.AuthzAuditService.List(repository.AuthzAuditLogListFilter{
		Page:              page,
		PageSize:          pageSize,
		OperatorAccountID: operatorAccountID,
		Action:            strings.TrimSpace(c.Query("action")),
		Role:              strings.TrimSpace(c.Query("role")),
		ObjectPrefix:      strings.TrimSpace(c.Query("object_prefix")),
		RequestID:         strings.TrimSpace(c.Query("request_id")),
		CreatedFrom:       createdFrom,
		CreatedTo:         createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal_error", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}
