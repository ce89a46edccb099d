package response

import "fmt"

// AppError 已解析为业务码与文案的接口错误，Err 为原始错误（可为空）
type AppError struct {
	Code    int
	Key     string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d %s", e.Code, e.Key)
	}
	return fmt.Sprintf("%d %s: %v", e.Code, e.Key, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Internal 是否为服务端错误，服务端错误需记录原始错误
func (e *AppError) Internal() bool {
	return e.Code >= CodeInternal
}

// NewAppError 构造接口错误
func NewAppError(code int, key, message string, err error) *AppError {
	return &AppError{Code: code, Key: key, Message: message, Err: err}
}
