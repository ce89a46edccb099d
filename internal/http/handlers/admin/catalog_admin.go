package admin

import (
	"github.com/petcare-next/internal/http/handlers/shared"
	"github.com/petcare-next/internal/http/response"
	"github.com/petcare-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// UpsertServiceTypeRequest 设置服务类型基础价请求
type UpsertServiceTypeRequest struct {
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
}

// CreateVaccineRequest 新增疫苗请求
type CreateVaccineRequest struct {
	Name  string          `json:"name" binding:"required"`
	Price decimal.Decimal `json:"price"`
}

// CreateVaccinePackageRequest 新增疫苗套餐请求
type CreateVaccinePackageRequest struct {
	Name       string          `json:"name" binding:"required"`
	Price      decimal.Decimal `json:"price"`
	VaccineIDs []uint          `json:"vaccine_ids"`
}

// ListServiceTypes 获取服务类型价格表
func (h *Handler) ListServiceTypes(c *gin.Context) {
	items, err := h.CatalogService.ListServiceTypes()
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, items)
}

// UpsertServiceType 设置服务类型基础价
func (h *Handler) UpsertServiceType(c *gin.Context) {
	var req UpsertServiceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	item, err := h.CatalogService.UpsertServiceType(service.UpsertServiceTypeInput{
		Code:      c.Param("code"),
		Name:      req.Name,
		BasePrice: req.BasePrice,
	})
	if err != nil {
		respondWithMappedError(c, err, shared.CatalogErrorRules, response.CodeInternal, "error.catalog_update_failed")
		return
	}
	requestLog(c).Infow("admin_service_type_upserted",
		"admin_id", currentAdminID(c),
		"code", item.Code,
		"base_price", item.BasePrice.String(),
	)
	response.Success(c, item)
}

// ListVaccines 获取疫苗列表
func (h *Handler) ListVaccines(c *gin.Context) {
	items, err := h.CatalogService.ListVaccines()
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, items)
}

// CreateVaccine 新增疫苗
func (h *Handler) CreateVaccine(c *gin.Context) {
	var req CreateVaccineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	item, err := h.CatalogService.CreateVaccine(service.CreateVaccineInput{
		Name:  req.Name,
		Price: req.Price,
	})
	if err != nil {
		respondWithMappedError(c, err, shared.CatalogErrorRules, response.CodeInternal, "error.catalog_update_failed")
		return
	}
	response.Success(c, item)
}

// ListVaccinePackages 获取疫苗套餐列表
func (h *Handler) ListVaccinePackages(c *gin.Context) {
	items, err := h.CatalogService.ListPackages()
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, items)
}

// CreateVaccinePackage 新增疫苗套餐
func (h *Handler) CreateVaccinePackage(c *gin.Context) {
	var req CreateVaccinePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	item, err := h.CatalogService.CreatePackage(service.CreatePackageInput{
		Name:       req.Name,
		Price:      req.Price,
		VaccineIDs: req.VaccineIDs,
	})
	if err != nil {
		respondWithMappedError(c, err, shared.CatalogErrorRules, response.CodeInternal, "error.catalog_update_failed")
		return
	}
	response.Success(c, item)
}
