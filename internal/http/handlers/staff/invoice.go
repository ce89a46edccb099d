package staff

import (
	"strings"

	"github.com/petcare-next/internal/http/handlers/shared"
	"github.com/petcare-next/internal/http/response"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/repository"
	"github.com/petcare-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ComposeInvoiceRequest 开具账单请求
type ComposeInvoiceRequest struct {
	CustomerID         uint                       `json:"customer_id" binding:"required"`
	BranchID           uint                       `json:"branch_id"`
	ServiceInstanceIDs []uint                     `json:"service_instance_ids"`
	ProductLines       []service.ProductLineInput `json:"product_lines"`
	PaymentMethod      string                     `json:"payment_method" binding:"required"`
}

// AppendInvoiceItemsRequest 追加账单明细请求
type AppendInvoiceItemsRequest struct {
	ServiceInstanceIDs []uint                     `json:"service_instance_ids"`
	ProductLines       []service.ProductLineInput `json:"product_lines"`
}

// PayInvoiceRequest 确认收款请求，支付方式为空时沿用开单时的选择
type PayInvoiceRequest struct {
	PaymentMethod string `json:"payment_method"`
}

var invoiceWriteRules = shared.ConcatMappedHandlerErrors(
	shared.InvoiceErrorRules,
	shared.ServiceInstanceErrorRules,
	shared.CatalogErrorRules,
)

// ListInvoices 分页查询本门店账单
func (h *Handler) ListInvoices(c *gin.Context) {
	page, pageSize := shared.ParsePageQuery(c)
	requested, ok := shared.ParseUintQuery(c, "branch_id")
	if !ok {
		return
	}
	branchID, ok := resolveBranchID(c, requested)
	if !ok {
		return
	}
	customerID, ok := shared.ParseUintQuery(c, "customer_id")
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

// ComposeInvoice 合并未开单服务与商品开具待支付账单
func (h *Handler) ComposeInvoice(c *gin.Context) {
	var req ComposeInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	branchID, ok := resolveBranchID(c, req.BranchID)
	if !ok {
		return
	}
	invoice, err := h.InvoiceService.Compose(service.ComposeInvoiceInput{
		CustomerID:         req.CustomerID,
		BranchID:           branchID,
		ServiceInstanceIDs: req.ServiceInstanceIDs,
		ProductLines:       req.ProductLines,
		PaymentMethod:      req.PaymentMethod,
	})
	if err != nil {
		respondWithMappedError(c, err, invoiceWriteRules, response.CodeInternal, "error.invoice_save_failed")
		return
	}
	response.Success(c, invoice)
}

// GetInvoice 获取账单详情
func (h *Handler) GetInvoice(c *gin.Context) {
	invoice, ok := h.loadScopedInvoice(c)
	if !ok {
		return
	}
	response.Success(c, invoice)
}

// AppendInvoiceItems 向待支付账单追加服务或商品
func (h *Handler) AppendInvoiceItems(c *gin.Context) {
	invoice, ok := h.loadScopedInvoice(c)
	if !ok {
		return
	}
	var req AppendInvoiceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	updated, err := h.InvoiceService.AppendItems(invoice.ID, service.AppendInvoiceItemsInput{
		ServiceInstanceIDs: req.ServiceInstanceIDs,
		ProductLines:       req.ProductLines,
	})
	if err != nil {
		respondWithMappedError(c, err, invoiceWriteRules, response.CodeInternal, "error.invoice_save_failed")
		return
	}
	response.Success(c, updated)
}

// PayInvoice 确认收款
func (h *Handler) PayInvoice(c *gin.Context) {
	invoice, ok := h.loadScopedInvoice(c)
	if !ok {
		return
	}
	var req PayInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	paid, err := h.InvoiceService.MarkPaid(invoice.ID, req.PaymentMethod)
	if err != nil {
		respondWithMappedError(c, err, shared.InvoiceErrorRules, response.CodeInternal, "error.invoice_save_failed")
		return
	}
	requestLog(c).Infow("staff_invoice_paid",
		"invoice_id", paid.ID,
		"branch_id", paid.BranchID,
		"payment_method", paid.PaymentMethod,
	)
	response.Success(c, paid)
}

// CancelInvoice 取消待支付账单
func (h *Handler) CancelInvoice(c *gin.Context) {
	invoice, ok := h.loadScopedInvoice(c)
	if !ok {
		return
	}
	cancelled, err := h.InvoiceService.Cancel(invoice.ID)
	if err != nil {
		respondWithMappedError(c, err, shared.InvoiceErrorRules, response.CodeInternal, "error.invoice_save_failed")
		return
	}
	response.Success(c, cancelled)
}

// loadScopedInvoice 读取路径中的账单，门店外的账单按不存在处理
func (h *Handler) loadScopedInvoice(c *gin.Context) (*models.Invoice, bool) {
	invoiceID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	invoice, err := h.InvoiceService.GetInvoice(invoiceID)
	if err != nil {
		respondWithMappedError(c, err, shared.InvoiceErrorRules, response.CodeInternal, "error.invoice_fetch_failed")
		return nil, false
	}
	if !inBranchScope(c, invoice.BranchID) {
		respondError(c, response.CodeNotFound, "error.invoice_not_found", nil)
		return nil, false
	}
	return invoice, true
}
