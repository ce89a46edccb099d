package cache

import (
	"context"
	"testing"

	"github.com/petcare-next/internal/config"
	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	if Enabled() {
		t.Fatalf("cache should be disabled")
	}
	ctx := context.Background()
	snapshot := BuildServiceTypeSnapshot(&models.ServiceType{
		Code:      constants.ServiceTypeMedicalExam,
		Name:      "Medical exam",
		BasePrice: models.NewMoneyFromInt(200000),
	})
	if err := SetServiceTypeSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("set on disabled cache want nil got %v", err)
	}
	got, hit, err := GetServiceTypeSnapshot(ctx, snapshot.Code)
	if err != nil || hit || got != nil {
		t.Fatalf("disabled cache must miss, got hit=%v err=%v", hit, err)
	}
	if err := DelServiceTypeSnapshot(ctx, snapshot.Code); err != nil {
		t.Fatalf("del on disabled cache want nil got %v", err)
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	UseClient(nil, "")
	if got := buildKey(serviceTypeKey("purchase")); got != "pc:catalog:service_type:purchase" {
		t.Fatalf("key want pc:catalog:service_type:purchase got %s", got)
	}
	if got := buildKey(" "); got != "pc" {
		t.Fatalf("blank key want pc got %s", got)
	}
}

func TestUnreachableRedisDegrades(t *testing.T) {
	err := InitRedis(&config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1})
	if err == nil {
		t.Fatalf("unreachable redis should report an error")
	}
	if Enabled() || Client() != nil {
		t.Fatalf("cache should stay disabled after failed ping")
	}
}
