package worker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/petcare-next/internal/config"
	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/queue"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

const (
	defaultReconcileCron     = "@daily"
	defaultReconcileLookback = 2
)

// Service 异步队列服务
type Service struct {
	name      string
	server    *asynq.Server
	mux       *asynq.ServeMux
	consumer  *Consumer
	scheduler *cron.Cron
	loyalty   config.LoyaltyConfig
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, loyalty config.LoyaltyConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
		loyalty:  loyalty,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	scheduler, err := newReconcileScheduler(s.loyalty, s.consumer)
	if err != nil {
		return err
	}
	s.scheduler = scheduler
	s.scheduler.Start()
	go func() {
		<-ctx.Done()
		s.stopScheduler()
	}()
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.stopScheduler()
	s.server.Shutdown()
	return nil
}

func (s *Service) stopScheduler() {
	if s == nil || s.scheduler == nil {
		return
	}
	<-s.scheduler.Stop().Done()
}

// newReconcileScheduler 注册积分对账定时任务
func newReconcileScheduler(cfg config.LoyaltyConfig, consumer *Consumer) (*cron.Cron, error) {
	expr := strings.TrimSpace(cfg.ReconcileCron)
	if expr == "" {
		expr = defaultReconcileCron
	}
	lookbackDays := cfg.ReconcileLookbackDays
	if lookbackDays <= 0 {
		lookbackDays = defaultReconcileLookback
	}
	lookback := time.Duration(lookbackDays) * 24 * time.Hour

	scheduler := cron.New()
	_, err := scheduler.AddFunc(expr, func() {
		processed, err := consumer.ReconcileLoyalty(time.Now(), lookback)
		if err != nil {
			logger.Warnw("worker_loyalty_reconcile_failed", "error", err)
			return
		}
		logger.Infow("worker_loyalty_reconcile_done", "customers", processed, "lookback_days", lookbackDays)
	})
	if err != nil {
		return nil, err
	}
	return scheduler, nil
}
