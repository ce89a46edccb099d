package app

import (
	"errors"
	"fmt"

	"github.com/petcare-next/internal/config"
	"github.com/petcare-next/internal/provider"
	"github.com/petcare-next/internal/router"
	"github.com/petcare-next/internal/worker"
)

// BuildRunner 按启动模式组装服务：api 只跑 HTTP，worker 只跑队列消费与积分对账，
// all 两者都跑，队列未启用时退化为只跑 HTTP
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	if mode == ModeWorker && !cfg.Queue.Enabled {
		return nil, errors.New("worker mode requires queue.enabled")
	}

	container := provider.NewContainer(cfg)
	services := make([]Service, 0, 2)
	if mode != ModeWorker {
		services = append(services, NewHTTPService(cfg.Server, router.SetupRouter(cfg, container)))
	}
	if mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled) {
		workerService, err := worker.NewService(&cfg.Queue, cfg.Loyalty, worker.NewConsumer(container))
		if err != nil {
			return nil, fmt.Errorf("init worker failed: %w", err)
		}
		services = append(services, workerService)
	}
	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}
	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode, "queue_enabled", opts.Config.Queue.Enabled)
	return RunWithOptions(runner, opts)
}
