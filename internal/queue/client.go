package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/petcare-next/internal/config"
	"github.com/petcare-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 高优先级队列
	CriticalQueue = constants.QueueCritical
)

// taskPolicy 单类任务的投递策略
type taskPolicy struct {
	queue    string
	maxRetry int
	unique   time.Duration
	timeout  time.Duration
	delay    time.Duration
}

func (p taskPolicy) options() []asynq.Option {
	opts := []asynq.Option{asynq.Queue(p.queue), asynq.MaxRetry(p.maxRetry), asynq.Timeout(p.timeout)}
	if p.unique > 0 {
		opts = append(opts, asynq.Unique(p.unique))
	}
	if p.delay > 0 {
		opts = append(opts, asynq.ProcessIn(p.delay))
	}
	return opts
}

// 积分重算延迟几秒投递，连续支付同一客户多张账单时合并为一次
var taskPolicies = map[string]taskPolicy{
	TaskLoyaltyRecompute: {
		queue:    DefaultQueue,
		maxRetry: 5,
		unique:   2 * time.Minute,
		timeout:  30 * time.Second,
		delay:    5 * time.Second,
	},
	TaskInvoiceRecomputeTotals: {
		queue:    CriticalQueue,
		maxRetry: 3,
		unique:   2 * time.Minute,
		timeout:  30 * time.Second,
	},
}

// Client 队列客户端封装，未启用时所有入队操作直接返回 nil
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(buildRedisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueLoyaltyRecompute 推送客户积分重算任务
func (c *Client) EnqueueLoyaltyRecompute(payload LoyaltyRecomputePayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewLoyaltyRecomputeTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, opts...)
}

// EnqueueInvoiceRecomputeTotals 推送账单重算任务
func (c *Client) EnqueueInvoiceRecomputeTotals(payload InvoiceRecomputeTotalsPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewInvoiceRecomputeTotalsTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, opts...)
}

// enqueue 按任务类型的默认策略投递，调用方 opts 覆盖默认值；重复任务视为成功
func (c *Client) enqueue(task *asynq.Task, opts ...asynq.Option) error {
	policy, ok := taskPolicies[task.Type()]
	if !ok {
		return fmt.Errorf("no delivery policy for task %s", task.Type())
	}
	_, err := c.client.Enqueue(task, append(policy.options(), opts...)...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// BuildServerConfig 生成队列服务配置，critical 队列权重高于 default
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{DefaultQueue: 3, CriticalQueue: 6},
	}
	if cfg != nil && cfg.Concurrency > 0 {
		serverCfg.Concurrency = cfg.Concurrency
	}
	if cfg != nil && len(cfg.Queues) > 0 {
		serverCfg.Queues = cfg.Queues
	}
	return buildRedisOpt(cfg), serverCfg
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
