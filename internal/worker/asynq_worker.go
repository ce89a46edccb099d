package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/provider"
	"github.com/petcare-next/internal/queue"
	"github.com/petcare-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskLoyaltyRecompute, c.handleLoyaltyRecompute)
	mux.HandleFunc(queue.TaskInvoiceRecomputeTotals, c.handleInvoiceRecomputeTotals)
}

func (c *Consumer) handleLoyaltyRecompute(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_loyalty_recompute_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.LoyaltyRecomputePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_loyalty_recompute_unmarshal_failed", "error", err)
		return err
	}
	if payload.CustomerID == 0 {
		logger.Debugw("worker_loyalty_recompute_skip_invalid_payload", "customer_id", payload.CustomerID)
		return nil
	}
	if c.LoyaltyService == nil {
		logger.Warnw("worker_loyalty_recompute_skip_service_nil", "customer_id", payload.CustomerID)
		return nil
	}
	if _, err := c.LoyaltyService.RecomputeCustomerLoyalty(payload.CustomerID); err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			logger.Debugw("worker_loyalty_recompute_skip_customer_not_found", "customer_id", payload.CustomerID)
			return nil
		}
		logger.Warnw("worker_loyalty_recompute_failed",
			"customer_id", payload.CustomerID,
			"reason", payload.Reason,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleInvoiceRecomputeTotals(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_invoice_recompute_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.InvoiceRecomputeTotalsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_invoice_recompute_unmarshal_failed", "error", err)
		return err
	}
	if payload.InvoiceID == 0 {
		logger.Debugw("worker_invoice_recompute_skip_invalid_payload", "invoice_id", payload.InvoiceID)
		return nil
	}
	if c.InvoiceService == nil {
		logger.Warnw("worker_invoice_recompute_skip_service_nil", "invoice_id", payload.InvoiceID)
		return nil
	}
	_, err := c.InvoiceService.RecomputeTotals(payload.InvoiceID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvoiceNotFound):
			logger.Debugw("worker_invoice_recompute_skip_not_found", "invoice_id", payload.InvoiceID)
			return nil
		case errors.Is(err, service.ErrInvoiceStatusInvalid):
			// 已支付或已取消的账单金额冻结
			logger.Debugw("worker_invoice_recompute_skip_settled", "invoice_id", payload.InvoiceID)
			return nil
		default:
			logger.Warnw("worker_invoice_recompute_failed",
				"invoice_id", payload.InvoiceID,
				"reason", payload.Reason,
				"error", err,
			)
			return err
		}
	}
	return nil
}

// ReconcileLoyalty 重算 lookback 窗口内有支付记录的客户积分，返回处理的客户数
func (c *Consumer) ReconcileLoyalty(now time.Time, lookback time.Duration) (int, error) {
	if c == nil || c.LoyaltyService == nil {
		return 0, nil
	}
	customerIDs, err := c.LoyaltyService.CustomersPaidSince(now.Add(-lookback))
	if err != nil {
		return 0, err
	}
	processed := 0
	for _, customerID := range customerIDs {
		if _, err := c.LoyaltyService.RecomputeCustomerLoyalty(customerID); err != nil {
			logger.Warnw("worker_loyalty_reconcile_customer_failed", "customer_id", customerID, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}
