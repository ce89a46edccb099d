package admin

import (
	"strings"
	"time"

	"github.com/petcare-next/internal/http/handlers/shared"
	"github.com/petcare-next/internal/http/response"
	"github.com/petcare-next/internal/repository"
	"github.com/petcare-next/internal/service"

	"github.com/gin-gonic/gin"
)

// BranchPromotionRequest 创建或更新分店活动请求
type BranchPromotionRequest struct {
	BranchID     uint     `json:"branch_id" binding:"required"`
	Description  string   `json:"description"`
	Audience     string   `json:"audience"`
	ServiceTypes []string `json:"service_types"`
	DiscountRate int      `json:"discount_rate"`
	StartsAt     string   `json:"starts_at"`
	EndsAt       string   `json:"ends_at"`
}

func (req BranchPromotionRequest) toInput() (service.BranchPromotionInput, error) {
	startsAt, err := shared.ParseTimeNullable(req.StartsAt)
	if err != nil {
		return service.BranchPromotionInput{}, err
	}
	endsAt, err := shared.ParseTimeNullable(req.EndsAt)
	if err != nil {
		return service.BranchPromotionInput{}, err
	}
	input := service.BranchPromotionInput{
		BranchID:     req.BranchID,
		Description:  req.Description,
		Audience:     req.Audience,
		ServiceTypes: req.ServiceTypes,
		DiscountRate: req.DiscountRate,
	}
	if startsAt != nil {
		input.StartsAt = *startsAt
	}
	if endsAt != nil {
		input.EndsAt = *endsAt
	}
	return input, nil
}

// CreatePromotion 创建分店活动
func (h *Handler) CreatePromotion(c *gin.Context) {
	var req BranchPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	promotion, err := h.PromotionAdminService.Create(input)
	if err != nil {
		respondWithMappedError(c, err, shared.PromotionErrorRules, response.CodeInternal, "error.promotion_save_failed")
		return
	}
	promotion.Active = promotion.IsActive(time.Now())
	response.Success(c, promotion)
}

// UpdatePromotion 更新分店活动
func (h *Handler) UpdatePromotion(c *gin.Context) {
	promotionID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req BranchPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	promotion, err := h.PromotionAdminService.Update(promotionID, input)
	if err != nil {
		respondWithMappedError(c, err, shared.PromotionErrorRules, response.CodeInternal, "error.promotion_save_failed")
		return
	}
	promotion.Active = promotion.IsActive(time.Now())
	response.Success(c, promotion)
}

// DeletePromotion 删除分店活动
func (h *Handler) DeletePromotion(c *gin.Context) {
	promotionID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.PromotionAdminService.Delete(promotionID); err != nil {
		respondWithMappedError(c, err, shared.PromotionErrorRules, response.CodeInternal, "error.promotion_save_failed")
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}

// GetPromotion 获取分店活动详情
func (h *Handler) GetPromotion(c *gin.Context) {
	promotionID, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	promotion, err := h.PromotionAdminService.Get(promotionID)
	if err != nil {
		respondWithMappedError(c, err, shared.PromotionErrorRules, response.CodeInternal, "error.promotion_fetch_failed")
		return
	}
	promotion.Active = promotion.IsActive(time.Now())
	response.Success(c, promotion)
}

// GetAdminPromotions 获取分店活动列表
func (h *Handler) GetAdminPromotions(c *gin.Context) {
	page, pageSize := shared.ParsePageQuery(c)
	id, ok := shared.ParseUintQuery(c, "id")
	if !ok {
		return
	}
	branchID, ok := shared.ParseUintQuery(c, "branch_id")
	if !ok {
		return
	}
	activeAt, ok := shared.ParseTimeQuery(c, "active_at")
	if !ok {
		return
	}

	promotions, total, err := h.PromotionAdminService.List(repository.BranchPromotionListFilter{
		Page:        page,
		PageSize:    pageSize,
		ID:          id,
		BranchID:    branchID,
		ServiceType: strings.TrimSpace(c.Query("service_type")),
		Audience:    strings.TrimSpace(c.Query("audience")),
		ActiveAt:    activeAt,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.promotion_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, promotions, response.BuildPagination(page, pageSize, total))
}
