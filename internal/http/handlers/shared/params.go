package shared

import (
	"strconv"
	"strings"
	"time"

	"github.com/petcare-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ParseIDParam 解析路径中的正整数 ID，失败时直接写入错误响应。
func ParseIDParam(c *gin.Context, name string) (uint, bool) {
	parsed, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || parsed == 0 {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(parsed), true
}

// ParseUintQuery 解析可选的正整数查询参数，空值返回 0。
func ParseUintQuery(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(parsed), true
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ParsePageQuery 读取分页参数，非法值回落为第 1 页，每页条数限制在 1..100
func ParsePageQuery(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.Query("page_size"))
	switch {
	case err != nil || pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return page, pageSize
}

// ParseTimeNullable 解析 RFC3339 时间，空字符串返回 nil。
func ParseTimeNullable(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// ParseTimeQuery 解析可选的 RFC3339 查询参数。
func ParseTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	parsed, err := ParseTimeNullable(c.Query(name))
	if err != nil {
		RespondError(c, response.CodeBadRequest, "error.bad_request", err)
		return nil, false
	}
	return parsed, true
}
