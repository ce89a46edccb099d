package service

import (
	"strings"
	"time"

	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/pkg/clock"
	"github.com/petcare-next/internal/repository"

	"gorm.io/gorm"
)

var membershipTierRank = map[string]int{
	constants.MembershipTierBasic: 1,
	constants.MembershipTierLoyal: 2,
	constants.MembershipTierVIP:   3,
}

var audienceRequiredRank = map[string]int{
	constants.AudienceAll:       1,
	constants.AudienceLoyalPlus: 2,
	constants.AudienceVIPPlus:   3,
}

// DiscountResolution 折扣解析结果，Promotion 为空表示无适用活动
type DiscountResolution struct {
	Rate      int                     `json:"rate"`
	Promotion *models.BranchPromotion `json:"promotion,omitempty"`
}

// PromotionID 命中活动ID
func (r DiscountResolution) PromotionID() *uint {
	if r.Promotion == nil {
		return nil
	}
	id := r.Promotion.ID
	return &id
}

// PromotionService 分店活动折扣解析
type PromotionService struct {
	promotionRepo repository.BranchPromotionRepository
	clock         clock.Clock
}

// NewPromotionService 创建折扣解析服务
func NewPromotionService(promotionRepo repository.BranchPromotionRepository, clk clock.Clock) *PromotionService {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &PromotionService{
		promotionRepo: promotionRepo,
		clock:         clk,
	}
}

// withTx 返回绑定事务的解析器
func (s *PromotionService) withTx(tx *gorm.DB) *PromotionService {
	if tx == nil {
		return s
	}
	return &PromotionService{
		promotionRepo: s.promotionRepo.WithTx(tx),
		clock:         s.clock,
	}
}

// NormalizeMembershipTier 归一化会员等级，空值视为 basic
func NormalizeMembershipTier(raw string) (string, error) {
	tier := strings.ToLower(strings.TrimSpace(raw))
	if tier == "" {
		return constants.MembershipTierBasic, nil
	}
	if _, ok := membershipTierRank[tier]; !ok {
		return "", ErrMembershipTierInvalid
	}
	return tier, nil
}

// NormalizeAudience 归一化活动受众，接受 All / Loyal+ / VIP+ 展示写法
func NormalizeAudience(raw string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.ReplaceAll(value, " ", "")
	switch value {
	case "all", "":
		return constants.AudienceAll, nil
	case "loyal+", "loyal_plus", "loyalplus":
		return constants.AudienceLoyalPlus, nil
	case "vip+", "vip_plus", "vipplus":
		return constants.AudienceVIPPlus, nil
	default:
		return "", ErrPromotionAudience
	}
}

// audienceAdmits 会员等级是否满足受众要求（等级秩比较）
func audienceAdmits(audience, tier string) bool {
	required, ok := audienceRequiredRank[audience]
	if !ok {
		return false
	}
	return membershipTierRank[tier] >= required
}

// Resolve 返回 asOf 时刻分店对该服务类型与会员等级的最优折扣
func (s *PromotionService) Resolve(branchID uint, serviceType constants.ServiceTypeCode, tier string, asOf time.Time) (DiscountResolution, error) {
	if !serviceType.Valid() {
		return DiscountResolution{}, ErrServiceTypeInvalid
	}
	normalizedTier, err := NormalizeMembershipTier(tier)
	if err != nil {
		return DiscountResolution{}, err
	}
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	promotions, err := s.promotionRepo.ListActiveByBranch(branchID, asOf)
	if err != nil {
		return DiscountResolution{}, err
	}
	best := selectBestPromotion(promotions, serviceType, normalizedTier, asOf)
	if best == nil {
		return DiscountResolution{}, nil
	}
	return DiscountResolution{
		Rate:      clampDiscountRate(best.DiscountRate, best.ID),
		Promotion: best,
	}, nil
}

// selectBestPromotion 选出最大折扣率的适用活动；同折扣取最新创建，再取最大ID
func selectBestPromotion(promotions []models.BranchPromotion, serviceType constants.ServiceTypeCode, tier string, asOf time.Time) *models.BranchPromotion {
	var best *models.BranchPromotion
	for i := range promotions {
		candidate := &promotions[i]
		if !candidate.HasValidWindow() {
			logger.Warnw("promotion_resolve_skip_invalid_window",
				"promotion_id", candidate.ID,
				"branch_id", candidate.BranchID,
				"starts_at", candidate.StartsAt,
				"ends_at", candidate.EndsAt,
			)
			continue
		}
		if !candidate.IsActive(asOf) {
			continue
		}
		if !candidate.ServiceTypes.Contains(serviceType.String()) {
			continue
		}
		audience, err := NormalizeAudience(candidate.Audience)
		if err != nil {
			logger.Warnw("promotion_resolve_skip_unknown_audience",
				"promotion_id", candidate.ID,
				"audience", candidate.Audience,
			)
			continue
		}
		if !audienceAdmits(audience, tier) {
			continue
		}
		if best == nil || outranks(candidate, best) {
			best = candidate
		}
	}
	return best
}

func outranks(candidate, current *models.BranchPromotion) bool {
	if candidate.DiscountRate != current.DiscountRate {
		return candidate.DiscountRate > current.DiscountRate
	}
	if !candidate.CreatedAt.Equal(current.CreatedAt) {
		return candidate.CreatedAt.After(current.CreatedAt)
	}
	return candidate.ID > current.ID
}
