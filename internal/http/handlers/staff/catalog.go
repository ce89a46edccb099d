package staff

import (
	"strings"
	"time"

	"github.com/petcare-next/internal/http/handlers/shared"
	"github.com/petcare-next/internal/http/response"
	"github.com/petcare-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListServiceTypes 获取服务类型价格表
func (h *Handler) ListServiceTypes(c *gin.Context) {
	items, err := h.CatalogService.ListServiceTypes()
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, items)
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

// ListVaccinePackages 获取疫苗套餐列表
func (h *Handler) ListVaccinePackages(c *gin.Context) {
	items, err := h.CatalogService.ListPackages()
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, items)
}

// ResolvePromotion 查询门店某服务类型对会员等级的最优折扣
func (h *Handler) ResolvePromotion(c *gin.Context) {
	requested, ok := shared.ParseUintQuery(c, "branch_id")
	if !ok {
		return
	}
	branchID, ok := resolveBranchID(c, requested)
	if !ok {
		return
	}
	if branchID == 0 {
		respondError(c, response.CodeBadRequest, "error.promotion_branch_required", nil)
		return
	}
	code, err := service.ParseServiceTypeCode(c.Query("service_type"))
	if err != nil {
		respondWithMappedError(c, err, shared.PromotionErrorRules, response.CodeInternal, "error.promotion_fetch_failed")
		return
	}
	at, ok := shared.ParseTimeQuery(c, "at")
	if !ok {
		return
	}
	var asOf time.Time
	if at != nil {
		asOf = *at
	}

	resolution, err := h.PromotionService.Resolve(branchID, code, strings.TrimSpace(c.Query("tier")), asOf)
	if err != nil {
		respondWithMappedError(c, err, shared.PromotionErrorRules, response.CodeInternal, "error.promotion_fetch_failed")
		return
	}
	response.Success(c, gin.H{
		"branch_id":    branchID,
		"service_type": code,
		"rate":         resolution.Rate,
		"promotion_id": resolution.PromotionID(),
		"promotion":    resolution.Promotion,
	})
}
