package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringArray 以 JSON 数组落库的字符串列表
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	body, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(body), nil
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	bytes, ok, err := scanBytes(value)
	if err != nil || !ok {
		*s = StringArray{}
		return err
	}
	return json.Unmarshal(bytes, s)
}

// Contains 判断是否包含指定值
func (s StringArray) Contains(value string) bool {
	for _, item := range s {
		if item == value {
			return true
		}
	}
	return false
}

// UintArray 以 JSON 数组落库的 ID 列表
type UintArray []uint

// Value 实现 driver.Valuer 接口
func (u UintArray) Value() (driver.Value, error) {
	if u == nil {
		return "[]", nil
	}
	body, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	return string(body), nil
}

// Scan 实现 sql.Scanner 接口
func (u *UintArray) Scan(value interface{}) error {
	bytes, ok, err := scanBytes(value)
	if err != nil || !ok {
		*u = UintArray{}
		return err
	}
	return json.Unmarshal(bytes, u)
}

func scanBytes(value interface{}) ([]byte, bool, error) {
	switch v := value.(type) {
	case nil:
		return nil, false, nil
	case []byte:
		return v, len(v) > 0, nil
	case string:
		return []byte(v), v != "", nil
	default:
		return nil, false, fmt.Errorf("unsupported json column type %T", value)
	}
}
