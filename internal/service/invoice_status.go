package service

import (
	"strings"

	"github.com/petcare-next/internal/constants"
)

// 账单状态只能从待支付流向终态
var invoiceStatusTransitions = map[string]map[string]bool{
	constants.InvoiceStatusPending: {
		constants.InvoiceStatusPaid:      true,
		constants.InvoiceStatusCancelled: true,
	},
	constants.InvoiceStatusPaid:      {},
	constants.InvoiceStatusCancelled: {},
}

var allowedPaymentMethods = map[string]bool{
	constants.PaymentMethodCash:     true,
	constants.PaymentMethodCard:     true,
	constants.PaymentMethodTransfer: true,
	constants.PaymentMethodEWallet:  true,
}

func canTransitInvoice(from, to string) bool {
	next, ok := invoiceStatusTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

func isInvoiceSettled(status string) bool {
	return status == constants.InvoiceStatusPaid || status == constants.InvoiceStatusCancelled
}

func normalizePaymentMethod(raw string) (string, error) {
	method := strings.ToLower(strings.TrimSpace(raw))
	method = strings.ReplaceAll(method, "-", "_")
	if method == "ewallet" {
		method = constants.PaymentMethodEWallet
	}
	if !allowedPaymentMethods[method] {
		return "", ErrPaymentMethodInvalid
	}
	return method, nil
}
