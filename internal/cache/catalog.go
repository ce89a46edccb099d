package cache

import (
	"context"
	"time"

	"github.com/petcare-next/internal/models"
)

const serviceTypeCacheTTL = 30 * time.Minute

// ServiceTypeSnapshot 服务类型价格快照
type ServiceTypeSnapshot struct {
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	BasePrice models.Money `json:"base_price"`
	CachedAt  int64        `json:"cached_at"`
}

func serviceTypeKey(code string) string {
	return "catalog:service_type:" + code
}

// BuildServiceTypeSnapshot 从模型构建快照
func BuildServiceTypeSnapshot(row *models.ServiceType) *ServiceTypeSnapshot {
	if row == nil {
		return nil
	}
	return &ServiceTypeSnapshot{
		Code:      row.Code.String(),
		Name:      row.Name,
		BasePrice: row.BasePrice,
		CachedAt:  time.Now().Unix(),
	}
}

// GetServiceTypeSnapshot 获取服务类型快照
func GetServiceTypeSnapshot(ctx context.Context, code string) (*ServiceTypeSnapshot, bool, error) {
	if code == "" {
		return nil, false, nil
	}
	var snapshot ServiceTypeSnapshot
	hit, err := GetJSON(ctx, serviceTypeKey(code), &snapshot)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &snapshot, true, nil
}

// SetServiceTypeSnapshot 写入服务类型快照
func SetServiceTypeSnapshot(ctx context.Context, snapshot *ServiceTypeSnapshot) error {
	if snapshot == nil || snapshot.Code == "" {
		return nil
	}
	return SetJSON(ctx, serviceTypeKey(snapshot.Code), snapshot, serviceTypeCacheTTL)
}

// DelServiceTypeSnapshot 删除服务类型快照
func DelServiceTypeSnapshot(ctx context.Context, code string) error {
	if code == "" {
		return nil
	}
	return Del(ctx, serviceTypeKey(code))
}

// ServiceTypeSnapshots 可注入的服务类型快照缓存，读写走当前 Redis 客户端
type ServiceTypeSnapshots struct{}

// NewServiceTypeSnapshots 创建服务类型快照缓存
func NewServiceTypeSnapshots() *ServiceTypeSnapshots {
	return &ServiceTypeSnapshots{}
}

// Get 获取快照
func (*ServiceTypeSnapshots) Get(ctx context.Context, code string) (*ServiceTypeSnapshot, bool, error) {
	return GetServiceTypeSnapshot(ctx, code)
}

// Set 写入快照
func (*ServiceTypeSnapshots) Set(ctx context.Context, snapshot *ServiceTypeSnapshot) error {
	return SetServiceTypeSnapshot(ctx, snapshot)
}

// Del 删除快照
func (*ServiceTypeSnapshots) Del(ctx context.Context, code string) error {
	return DelServiceTypeSnapshot(ctx, code)
}
