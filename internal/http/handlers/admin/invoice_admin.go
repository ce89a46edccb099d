package admin

import (
	"strings"

	"github.com/petcare-next/internal/http/handlers/shared"
	"github.com/petcare-next/internal/http/response"
	"github.com/petcare-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetAdminInvoices 获取账单列表（全部门店）
func (h *Handler) GetAdminInvoices(c *gin.Context) {
	page, pageSize := shared.ParsePageQuery(c)
	customerID, ok := shared.ParseUintQuery(c, "customer_id")
	if !ok {
		return
	}
	branchID, ok := shared.ParseUintQuery(c, "branch_id")
	if !ok {
		return
	}
	createdFrom, ok := shared.ParseTimeQuery(c, "created_from")
	if !ok {
		return
	}
	createdTo, ok := shared.ParseTimeQuery(c, "created_to")
	if !ok {
		return
	}

	invoices, total, err := h.InvoiceService.ListInvoices(repository.InvoiceListFilter{
		Page:        page,
		PageSize:    pageSize,
		CustomerID:  customerID,
		BranchID:    branchID,
		Status:      strings.TrimSpace(c.Query("status")),
		InvoiceNo:   strings.TrimSpace(c.Query("invoice_no")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.invoice_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, invoices, response.BuildPagination(page, pageSize, total))
}

// GetAdminInvoice 获取账单详情
func (h *Handler) GetAdminInvoice(c *gin.Context) {
	invoiceID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	invoice, err := h.InvoiceService.GetInvoice(invoiceID)
	if err != nil {
		respondWithMappedError(c, err, shared.InvoiceErrorRules, response.CodeInternal, "error.invoice_fetch_failed")
		return
	}
	response.Success(c, invoice)
}

// RecomputeInvoice 按当前活动与价格重算待支付账单
func (h *Handler) RecomputeInvoice(c *gin.Context) {
	invoiceID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	invoice, err := h.InvoiceService.RecomputeTotals(invoiceID)
	if err != nil {
		respondWithMappedError(c, err, shared.InvoiceErrorRules, response.CodeInternal, "error.invoice_save_failed")
		return
	}
	requestLog(c).Infow("admin_invoice_recomputed",
		"admin_id", currentAdminID(c),
		"invoice_id", invoice.ID,
		"total", invoice.TotalAmount.String(),
	)
	response.Success(c, invoice)
}

// RecomputeCustomerLoyalty 按已支付账单重算客户累计消费与积分
func (h *Handler) RecomputeCustomerLoyalty(c *gin.Context) {
	customerID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	customer, err := h.LoyaltyService.RecomputeCustomerLoyalty(customerID)
	if err != nil {
		respondWithMappedError(c, err, shared.InvoiceErrorRules, response.CodeInternal, "error.invoice_save_failed")
		return
	}
	response.Success(c, customer)
}
