package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// jsonArrayContains 构建“JSON 数组包含某值”的条件及其参数，兼容 sqlite 与 postgres。
// value 为字符串或整数，需与数组元素的 JSON 类型一致。
func jsonArrayContains(db *gorm.DB, column string, value interface{}) (string, interface{}) {
	return jsonArrayContainsByDialect(dbDialectName(db), column, value)
}

func jsonArrayContainsByDialect(dialect, column string, value interface{}) (string, interface{}) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		// jsonb 包含运算，参数为单元素数组
		payload, _ := json.Marshal([]interface{}{value})
		return fmt.Sprintf("%s::jsonb @> ?::jsonb", column), string(payload)
	default:
		return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value = ?)", column), value
	}
}
