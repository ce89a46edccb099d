package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/petcare-next/internal/app"
	"github.com/petcare-next/internal/config"
	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiGreen = "\033[32m"
	ansiCyan  = "\033[36m"
)

const minSecretLength = 32

// 常见的占位密钥片段，命中即视为未配置
var placeholderSecrets = []string{"change-me", "change-in-production", "your-secret-key", "petcare-dev"}

func main() {
	var rawMode string
	flag.StringVar(&rawMode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()
	mode, err := app.ParseMode(rawMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	printStartupBanner(mode)

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	release := cfg.Server.Mode == "release"

	if err := checkJWTSecret(cfg.JWT.SecretKey, release); err != nil {
		stdLog.Fatalf("%v", err)
	}
	if err := prepareDatabase(cfg.Database, stdLog); err != nil {
		stdLog.Fatalf("%v", err)
	}
	if release {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

// checkJWTSecret 令牌由账号系统签发，本服务只做校验；release 模式下弱密钥直接拒绝启动
func checkJWTSecret(secret string, release bool) error {
	if !isWeakSecret(secret) {
		return nil
	}
	if release {
		return fmt.Errorf("JWT secret 过弱或仍为默认值，请在生产环境中配置与账号系统一致的强随机密钥")
	}
	logger.Warnw("jwt_secret_weak", "min_length", minSecretLength)
	return nil
}

// prepareDatabase 连接数据库、迁移表结构并补齐服务类型目录
func prepareDatabase(cfg config.DatabaseConfig, stdLog *log.Logger) error {
	err := models.InitDB(models.DBOptions{
		Driver: cfg.Driver,
		DSN:    cfg.DSN,
		Debug:  cfg.Debug,
		Pool: models.DBPoolConfig{
			MaxOpenConns:           cfg.Pool.MaxOpenConns,
			MaxIdleConns:           cfg.Pool.MaxIdleConns,
			ConnMaxLifetimeSeconds: cfg.Pool.ConnMaxLifetimeSeconds,
			ConnMaxIdleTimeSeconds: cfg.Pool.ConnMaxIdleTimeSeconds,
		},
	})
	if err != nil {
		return fmt.Errorf("数据库初始化失败: %w", err)
	}
	if err := models.AutoMigrate(); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	if err := models.InitDefaultServiceTypes(); err != nil {
		stdLog.Printf("警告: 初始化服务类型失败: %v", err)
	}
	return nil
}

func printStartupBanner(mode string) {
	fmt.Println(ansiCyan + ansiBold + "PetCare-Next Billing API" + ansiReset + ansiDim + " (mode=" + mode + ")" + ansiReset)
	fmt.Println(ansiGreen + "• 计费 / 活动 / 账单 / 评价" + ansiReset)
	fmt.Println(ansiDim + strings.Repeat("-", 62) + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < minSecretLength {
		return true
	}
	normalized := strings.ToLower(secret)
	for _, marker := range placeholderSecrets {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
