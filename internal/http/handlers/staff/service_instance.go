package staff

import (
	"strings"

	"github.com/petcare-next/internal/http/handlers/shared"
	"github.com/petcare-next/internal/http/response"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/repository"
	"github.com/petcare-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RecordServiceRequest 登记服务请求
type RecordServiceRequest struct {
	CustomerID  uint   `json:"customer_id" binding:"required"`
	BranchID    uint   `json:"branch_id"`
	ServiceType string `json:"service_type" binding:"required"`
	PerformedAt string `json:"performed_at"`
	VaccineID   *uint  `json:"vaccine_id"`
	PackageID   *uint  `json:"package_id"`
}

// UpdateServiceCostsRequest 修正附加费用请求
type UpdateServiceCostsRequest struct {
	VaccineCost *decimal.Decimal `json:"vaccine_cost"`
	PackageCost *decimal.Decimal `json:"package_cost"`
}

// FrontDeskRatingRequest 前台代客户提交评价请求
type FrontDeskRatingRequest struct {
	Quality      int    `json:"quality"`
	Attitude     int    `json:"attitude"`
	Satisfaction int    `json:"satisfaction"`
	Comment      string `json:"comment"`
}

var serviceInstanceWriteRules = shared.ConcatMappedHandlerErrors(
	shared.ServiceInstanceErrorRules,
	shared.CatalogErrorRules,
	shared.InvoiceErrorRules,
)

// ListServiceInstances 分页查询服务记录
func (h *Handler) ListServiceInstances(c *gin.Context) {
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
	staffID, ok := shared.ParseUintQuery(c, "staff_id")
	if !ok {
		return
	}
	performedFrom, ok := shared.ParseTimeQuery(c, "performed_from")
	if !ok {
		return
	}
	performedTo, ok := shared.ParseTimeQuery(c, "performed_to")
	if !ok {
		return
	}

	items, total, err := h.ServiceInstanceService.List(repository.ServiceInstanceListFilter{
		Page:          page,
		PageSize:      pageSize,
		CustomerID:    customerID,
		BranchID:      branchID,
		StaffID:       staffID,
		ServiceType:   strings.TrimSpace(c.Query("service_type")),
		OnlyUnbilled:  c.Query("unbilled") == "true",
		PerformedFrom: performedFrom,
		PerformedTo:   performedTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.service_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// RecordServiceInstance 登记一次服务
func (h *Handler) RecordServiceInstance(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	var req RecordServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	branchID, ok := resolveBranchID(c, req.BranchID)
	if !ok {
		return
	}
	performedAt, err := shared.ParseTimeNullable(req.PerformedAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	input := service.RecordServiceInput{
		CustomerID:  req.CustomerID,
		BranchID:    branchID,
		StaffID:     staffID,
		ServiceType: req.ServiceType,
		VaccineID:   req.VaccineID,
		PackageID:   req.PackageID,
	}
	if performedAt != nil {
		input.PerformedAt = *performedAt
	}
	instance, err := h.ServiceInstanceService.Record(input)
	if err != nil {
		respondWithMappedError(c, err, serviceInstanceWriteRules, response.CodeInternal, "error.service_record_failed")
		return
	}
	response.Success(c, instance)
}

// GetServiceInstance 获取服务记录详情
func (h *Handler) GetServiceInstance(c *gin.Context) {
	instance, ok := h.loadScopedInstance(c)
	if !ok {
		return
	}
	response.Success(c, instance)
}

// UpdateServiceCosts 修正疫苗或套餐费用
func (h *Handler) UpdateServiceCosts(c *gin.Context) {
	instance, ok := h.loadScopedInstance(c)
	if !ok {
		return
	}
	var req UpdateServiceCostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	updated, err := h.ServiceInstanceService.UpdateCosts(instance.ID, service.UpdateServiceCostsInput{
		VaccineCost: req.VaccineCost,
		PackageCost: req.PackageCost,
	})
	if err != nil {
		respondWithMappedError(c, err, serviceInstanceWriteRules, response.CodeInternal, "error.service_record_failed")
		return
	}
	requestLog(c).Infow("staff_service_costs_updated",
		"service_instance_id", updated.ID,
		"branch_id", updated.BranchID,
	)
	response.Success(c, updated)
}

// QuoteServiceInstance 按当前活动预览服务计费
func (h *Handler) QuoteServiceInstance(c *gin.Context) {
	instance, ok := h.loadScopedInstance(c)
	if !ok {
		return
	}
	quote, err := h.PricingService.PriceServiceInstance(instance.ID)
	if err != nil {
		respondWithMappedError(c, err, serviceInstanceWriteRules, response.CodeInternal, "error.quote_failed")
		return
	}
	response.Success(c, quote)
}

// RateServiceInstance 前台代客户提交评价
func (h *Handler) RateServiceInstance(c *gin.Context) {
	instance, ok := h.loadScopedInstance(c)
	if !ok {
		return
	}
	var req FrontDeskRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.RatingService.RateServiceInstance(service.RateServiceInput{
		ServiceInstanceID: instance.ID,
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

// loadScopedInstance 读取路径中的服务记录，门店外的记录按不存在处理
func (h *Handler) loadScopedInstance(c *gin.Context) (*models.ServiceInstance, bool) {
	instanceID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	instance, err := h.ServiceInstanceService.Get(instanceID)
	if err != nil {
		respondWithMappedError(c, err, shared.ServiceInstanceErrorRules, response.CodeInternal, "error.service_fetch_failed")
		return nil, false
	}
	if !inBranchScope(c, instance.BranchID) {
		respondError(c, response.CodeNotFound, "error.service_instance_not_found", nil)
		return nil, false
	}
	return instance, true
}
