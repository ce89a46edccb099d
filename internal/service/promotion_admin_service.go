package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/queue"
	"github.com/petcare-next/internal/repository"
)

// invoiceRecomputer 活动变更后重算待支付账单
type invoiceRecomputer interface {
	RecomputeTotals(invoiceID uint) (*models.Invoice, error)
}

// PromotionAdminService 分店活动管理服务
type PromotionAdminService struct {
	repo        repository.BranchPromotionRepository
	invoiceRepo repository.InvoiceRepository
	queueClient *queue.Client
	recomputer  invoiceRecomputer
}

// NewPromotionAdminService 创建分店活动管理服务
func NewPromotionAdminService(repo repository.BranchPromotionRepository, invoiceRepo repository.InvoiceRepository, queueClient *queue.Client, recomputer invoiceRecomputer) *PromotionAdminService {
	return &PromotionAdminService{
		repo:        repo,
		invoiceRepo: invoiceRepo,
		queueClient: queueClient,
		recomputer:  recomputer,
	}
}

// BranchPromotionInput 创建或更新分店活动的输入
type BranchPromotionInput struct {
	BranchID     uint
	Description  string
	Audience     string
	ServiceTypes []string
	DiscountRate int
	StartsAt     time.Time
	EndsAt       time.Time
}

// Create 创建分店活动
func (s *PromotionAdminService) Create(input BranchPromotionInput) (*models.BranchPromotion, error) {
	promotion := &models.BranchPromotion{}
	if err := applyPromotionInput(promotion, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(promotion); err != nil {
		return nil, err
	}
	logger.Infow("branch_promotion_created",
		"promotion_id", promotion.ID,
		"branch_id", promotion.BranchID,
		"discount_rate", promotion.DiscountRate,
		"audience", promotion.Audience,
	)
	s.schedulePendingRecompute("promotion_created", promotion.BranchID)
	return promotion, nil
}

// Update 更新分店活动；已被已支付账单引用的活动只允许修改描述与结束时间
func (s *PromotionAdminService) Update(id uint, input BranchPromotionInput) (*models.BranchPromotion, error) {
	if id == 0 {
		return nil, ErrPromotionNotFound
	}
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrPromotionNotFound
	}
	updated := *existing
	if err := applyPromotionInput(&updated, input); err != nil {
		return nil, err
	}
	if changesPromotionIdentity(existing, &updated) {
		if err := s.ensureUnreferenced(id); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(&updated); err != nil {
		return nil, err
	}
	logger.Infow("branch_promotion_updated",
		"promotion_id", updated.ID,
		"branch_id", updated.BranchID,
		"discount_rate", updated.DiscountRate,
	)
	s.schedulePendingRecompute("promotion_updated", existing.BranchID, updated.BranchID)
	return &updated, nil
}

// Delete 删除分店活动，已被已支付账单引用的活动不可删除
func (s *PromotionAdminService) Delete(id uint) error {
	if id == 0 {
		return ErrPromotionNotFound
	}
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrPromotionNotFound
	}
	if err := s.ensureUnreferenced(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	logger.Infow("branch_promotion_deleted", "promotion_id", id, "branch_id", existing.BranchID)
	s.schedulePendingRecompute("promotion_deleted", existing.BranchID)
	return nil
}

// ensureUnreferenced 已支付账单的折扣已按活动结算，活动本身不能再变
func (s *PromotionAdminService) ensureUnreferenced(id uint) error {
	if s.invoiceRepo == nil {
		return nil
	}
	count, err := s.invoiceRepo.CountByAppliedPromotion(id, constants.InvoiceStatusPaid)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Warnw("branch_promotion_change_rejected", "promotion_id", id, "paid_invoice_count", count)
		return ErrPromotionInUse
	}
	return nil
}

// changesPromotionIdentity 分店、受众、折扣率、服务类型或开始时间任一变化即视为改变活动本身
func changesPromotionIdentity(before, after *models.BranchPromotion) bool {
	if before.BranchID != after.BranchID ||
		before.Audience != after.Audience ||
		before.DiscountRate != after.DiscountRate ||
		!before.StartsAt.Equal(after.StartsAt) {
		return true
	}
	if len(before.ServiceTypes) != len(after.ServiceTypes) {
		return true
	}
	for _, code := range after.ServiceTypes {
		if !before.ServiceTypes.Contains(code) {
			return true
		}
	}
	return false
}

// Get 获取分店活动
func (s *PromotionAdminService) Get(id uint) (*models.BranchPromotion, error) {
	promotion, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if promotion == nil {
		return nil, ErrPromotionNotFound
	}
	return promotion, nil
}

// List 获取分店活动列表
func (s *PromotionAdminService) List(filter repository.BranchPromotionListFilter) ([]models.BranchPromotion, int64, error) {
	promotions, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	now := time.Now()
	for i := range promotions {
		promotions[i].Active = promotions[i].IsActive(now)
	}
	return promotions, total, nil
}

// applyPromotionInput 校验输入并写入活动，时间统一存为 UTC
func applyPromotionInput(promotion *models.BranchPromotion, input BranchPromotionInput) error {
	if input.BranchID == 0 {
		return ErrPromotionBranchRequired
	}
	description := strings.TrimSpace(input.Description)
	if utf8.RuneCountInString(description) > constants.DescriptionMaxLength {
		return ErrDescriptionTooLong
	}
	audience, err := NormalizeAudience(input.Audience)
	if err != nil {
		return err
	}
	serviceTypes, err := normalizePromotionServiceTypes(input.ServiceTypes)
	if err != nil {
		return err
	}
	if input.DiscountRate < constants.PromotionRateMin || input.DiscountRate > constants.PromotionRateMax {
		return ErrPromotionRateInvalid
	}
	if input.StartsAt.IsZero() || input.EndsAt.IsZero() || input.EndsAt.Before(input.StartsAt) {
		return ErrPromotionWindowInvalid
	}

	promotion.BranchID = input.BranchID
	promotion.Description = description
	promotion.Audience = audience
	promotion.ServiceTypes = serviceTypes
	promotion.DiscountRate = input.DiscountRate
	promotion.StartsAt = input.StartsAt.UTC()
	promotion.EndsAt = input.EndsAt.UTC()
	return nil
}

// normalizePromotionServiceTypes 去重并校验服务类型，至少一项
func normalizePromotionServiceTypes(raw []string) (models.StringArray, error) {
	result := make(models.StringArray, 0, len(raw))
	seen := make(map[constants.ServiceTypeCode]struct{}, len(raw))
	for _, item := range raw {
		code, err := ParseServiceTypeCode(item)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		result = append(result, code.String())
	}
	if len(result) == 0 {
		return nil, ErrPromotionServiceTypes
	}
	return result, nil
}

// schedulePendingRecompute 活动变更后重算相关分店的待支付账单；队列不可用时同步执行
func (s *PromotionAdminService) schedulePendingRecompute(reason string, branchIDs ...uint) {
	if s.invoiceRepo == nil {
		return
	}
	visited := make(map[uint]struct{}, len(branchIDs))
	for _, branchID := range branchIDs {
		if _, ok := visited[branchID]; ok {
			continue
		}
		visited[branchID] = struct{}{}
		invoiceIDs, err := s.invoiceRepo.ListPendingIDsByBranch(branchID)
		if err != nil {
			logger.Warnw("promotion_list_pending_invoices_failed", "branch_id", branchID, "error", err)
			continue
		}
		for _, invoiceID := range invoiceIDs {
			s.recomputeInvoice(invoiceID, reason)
		}
	}
}

func (s *PromotionAdminService) recomputeInvoice(invoiceID uint, reason string) {
	if s.queueClient != nil && s.queueClient.Enabled() {
		err := s.queueClient.EnqueueInvoiceRecomputeTotals(queue.InvoiceRecomputeTotalsPayload{
			InvoiceID: invoiceID,
			Reason:    reason,
		})
		if err == nil {
			return
		}
		logger.Warnw("promotion_enqueue_invoice_recompute_failed", "invoice_id", invoiceID, "error", err)
	}
	if s.recomputer == nil {
		return
	}
	if _, err := s.recomputer.RecomputeTotals(invoiceID); err != nil {
		logger.Warnw("promotion_invoice_recompute_failed", "invoice_id", invoiceID, "reason", reason, "error", err)
	}
}
