package customer

import (
	"strings"

	"github.com/petcare-next/internal/http/handlers/shared"
	"github.com/petcare-next/internal/http/response"
	"github.com/petcare-next/internal/repository"
	"github.com/petcare-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RateServiceRequest 客户评价请求
type RateServiceRequest struct {
	Quality      int    `json:"quality"`
	Attitude     int    `json:"attitude"`
	Satisfaction int    `json:"satisfaction"`
	Comment      string `json:"comment"`
}

// GetProfile 获取客户资料（会员等级、累计消费、积分）
func (h *Handler) GetProfile(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	customer, err := h.CustomerRepo.GetByID(customerID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal_error", err)
		return
	}
	if customer == nil {
		respondError(c, response.CodeNotFound, "error.customer_not_found", nil)
		return
	}
	response.Success(c, customer)
}

// ListInvoices 获取本人账单列表
func (h *Handler) ListInvoices(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePageQuery(c)
	invoices, total, err := h.InvoiceService.ListInvoices(repository.InvoiceListFilter{
		Page:       page,
		PageSize:   pageSize,
		CustomerID: customerID,
		Status:     strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.invoice_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, invoices, response.BuildPagination(page, pageSize, total))
}

// GetInvoice 获取本人账单详情
func (h *Handler) GetInvoice(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	invoiceID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	invoice, err := h.InvoiceService.GetCustomerInvoice(invoiceID, customerID)
	if err != nil {
		respondWithMappedError(c, err, shared.InvoiceErrorRules, response.CodeInternal, "error.invoice_fetch_failed")
		return
	}
	response.Success(c, invoice)
}

// ListServiceInstances 获取本人服务记录
func (h *Handler) ListServiceInstances(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePageQuery(c)
	items, total, err := h.ServiceInstanceService.List(repository.ServiceInstanceListFilter{
		Page:        page,
		PageSize:    pageSize,
		CustomerID:  customerID,
		ServiceType: strings.TrimSpace(c.Query("service_type")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.service_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// RateServiceInstance 评价本人的一次服务，每项服务只能评价一次
func (h *Handler) RateServiceInstance(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	instanceID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req RateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.RatingService.RateServiceInstance(service.RateServiceInput{
		ServiceInstanceID: instanceID,
		CustomerID:        customerID,
		Quality:           req.Quality,
		Attitude:          req.Attitude,
		Satisfaction:      req.Satisfaction,
		Comment:           req.Comment,
	})
	if err != nil {
		respondWithMappedError(c, err, shared.RatingErrorRules, response.CodeInternal, "error.rating_failed")
		return
	}
	response.Success(c, result)
}
