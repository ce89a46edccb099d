package shared

import (
	"github.com/petcare-next/internal/http/response"
	"github.com/petcare-next/internal/i18n"
	"github.com/petcare-next/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 带 request_id 的日志实例
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString("request_id"); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// RespondError 按请求语言翻译 key 后写入错误响应。
// 服务端错误记 error 日志，带原始错误的客户端错误记 warn。
func RespondError(c *gin.Context, code int, key string, err error) {
	appErr := response.NewAppError(code, key, i18n.T(i18n.ResolveLocale(c), key), err)
	logAppError(c, appErr)
	response.Error(c, appErr.Code, appErr.Message)
}

func logAppError(c *gin.Context, appErr *response.AppError) {
	switch {
	case appErr.Internal():
		RequestLog(c).Errorw("handler_error", "code", appErr.Code, "key", appErr.Key, "path", c.FullPath(), "error", appErr.Err)
	case appErr.Err != nil:
		RequestLog(c).Warnw("handler_rejected", "code", appErr.Code, "key", appErr.Key, "path", c.FullPath(), "error", appErr.Err)
	}
}
