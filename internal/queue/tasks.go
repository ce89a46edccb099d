package queue

import (
	"encoding/json"
	"fmt"

	"github.com/petcare-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskLoyaltyRecompute 客户积分重算任务
	TaskLoyaltyRecompute = constants.TaskLoyaltyRecompute
	// TaskInvoiceRecomputeTotals 待支付账单金额重算任务
	TaskInvoiceRecomputeTotals = constants.TaskInvoiceRecomputeTotals
)

// LoyaltyRecomputePayload 积分重算任务载荷
type LoyaltyRecomputePayload struct {
	CustomerID uint   `json:"customer_id"`
	Reason     string `json:"reason,omitempty"`
}

// InvoiceRecomputeTotalsPayload 账单重算任务载荷
type InvoiceRecomputeTotalsPayload struct {
	InvoiceID uint   `json:"invoice_id"`
	Reason    string `json:"reason,omitempty"`
}

// NewLoyaltyRecomputeTask 创建积分重算任务
func NewLoyaltyRecomputeTask(payload LoyaltyRecomputePayload) (*asynq.Task, error) {
	if payload.CustomerID == 0 {
		return nil, fmt.Errorf("loyalty recompute task requires customer id")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLoyaltyRecompute, body), nil
}

// NewInvoiceRecomputeTotalsTask 创建账单重算任务
func NewInvoiceRecomputeTotalsTask(payload InvoiceRecomputeTotalsPayload) (*asynq.Task, error) {
	if payload.InvoiceID == 0 {
		return nil, fmt.Errorf("invoice recompute task requires invoice id")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceRecomputeTotals, body), nil
}
