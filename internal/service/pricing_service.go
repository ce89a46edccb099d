package service

import (
	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// ChargeResult 单项计费结果
type ChargeResult struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	Rate        int             `json:"rate"`
	PromotionID *uint           `json:"promotion_id,omitempty"`
}

// ServiceInstanceQuote 服务计费预览
type ServiceInstanceQuote struct {
	ServiceInstanceID uint                      `json:"service_instance_id"`
	ServiceType       constants.ServiceTypeCode `json:"service_type"`
	MembershipTier    string                    `json:"membership_tier"`
	BasePrice         models.Money              `json:"base_price"`
	VaccineCost       models.Money              `json:"vaccine_cost"`
	PackageCost       models.Money              `json:"package_cost"`
	Subtotal          models.Money              `json:"subtotal"`
	Discount          models.Money              `json:"discount"`
	Total             models.Money              `json:"total"`
	DiscountRate      int                       `json:"discount_rate"`
	PromotionID       *uint                     `json:"promotion_id,omitempty"`
}

// PricingService 单项服务计费
type PricingService struct {
	resolver     *PromotionService
	instanceRepo repository.ServiceInstanceRepository
	customerRepo repository.CustomerRepository
}

// NewPricingService 创建计费服务
func NewPricingService(resolver *PromotionService, instanceRepo repository.ServiceInstanceRepository, customerRepo repository.CustomerRepository) *PricingService {
	return &PricingService{
		resolver:     resolver,
		instanceRepo: instanceRepo,
		customerRepo: customerRepo,
	}
}

// withTx 返回绑定事务的计费服务，事务内计费不再占用额外连接
func (s *PricingService) withTx(tx *gorm.DB) *PricingService {
	if tx == nil {
		return s
	}
	return &PricingService{
		resolver:     s.resolver.withTx(tx),
		instanceRepo: s.instanceRepo.WithTx(tx),
		customerRepo: s.customerRepo.WithTx(tx),
	}
}

// Charge 按服务日期解析折扣并计算单项金额，不落库
func (s *PricingService) Charge(instance *models.ServiceInstance, tier string) (ChargeResult, error) {
	if instance == nil {
		return ChargeResult{}, ErrServiceInstanceNotFound
	}
	subtotal, err := chargeableSubtotal(instance)
	if err != nil {
		return ChargeResult{}, err
	}
	resolution, err := s.resolver.Resolve(instance.BranchID, instance.ServiceType, tier, instance.PerformedAt)
	if err != nil {
		return ChargeResult{}, err
	}
	result := ComputeCharge(subtotal, resolution.Rate)
	result.PromotionID = resolution.PromotionID()
	return result, nil
}

// PriceServiceInstance 读取服务记录与客户等级后给出计费预览
func (s *PricingService) PriceServiceInstance(instanceID uint) (*ServiceInstanceQuote, error) {
	instance, err := s.instanceRepo.GetByID(instanceID)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, ErrServiceInstanceNotFound
	}
	customer, err := s.customerRepo.GetByID(instance.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	charge, err := s.Charge(instance, customer.MembershipTier)
	if err != nil {
		return nil, err
	}
	return &ServiceInstanceQuote{
		ServiceInstanceID: instance.ID,
		ServiceType:       instance.ServiceType,
		MembershipTier:    customer.MembershipTier,
		BasePrice:         instance.BasePrice,
		VaccineCost:       instance.VaccineCost,
		PackageCost:       instance.PackageCost,
		Subtotal:          models.NewMoneyFromDecimal(charge.Subtotal),
		Discount:          models.NewMoneyFromDecimal(charge.Discount),
		Total:             models.NewMoneyFromDecimal(charge.Total),
		DiscountRate:      charge.Rate,
		PromotionID:       charge.PromotionID,
	}, nil
}

// ComputeCharge 纯计算：discount = subtotal × rate / 100，total = subtotal − discount
func ComputeCharge(subtotal decimal.Decimal, rate int) ChargeResult {
	rate = clampDiscountRate(rate, 0)
	subtotal = normalizeAmount(subtotal)
	discount := normalizeAmount(subtotal.Mul(decimal.NewFromInt(int64(rate))).Div(hundred))
	return ChargeResult{
		Subtotal: subtotal,
		Discount: discount,
		Total:    normalizeAmount(subtotal.Sub(discount)),
		Rate:     rate,
	}
}

// chargeableSubtotal 折前金额 = 基础价 + 疫苗费用 + 套餐费用
func chargeableSubtotal(instance *models.ServiceInstance) (decimal.Decimal, error) {
	if instance.BasePrice.IsNegative() || instance.VaccineCost.IsNegative() || instance.PackageCost.IsNegative() {
		return decimal.Zero, ErrPriceInvalid
	}
	switch instance.ServiceType {
	case constants.ServiceTypePurchase,
		constants.ServiceTypeMedicalExam,
		constants.ServiceTypeSingleVaccine,
		constants.ServiceTypeVaccinePackage:
		return instance.GrossAmount(), nil
	default:
		return decimal.Zero, ErrServiceTypeInvalid
	}
}

// clampDiscountRate 折扣率限制在 [0,100]，越界只记录告警
func clampDiscountRate(rate int, promotionID uint) int {
	switch {
	case rate < 0:
		logger.Warnw("pricing_rate_clamped", "rate", rate, "clamped", 0, "promotion_id", promotionID)
		return 0
	case rate > 100:
		logger.Warnw("pricing_rate_clamped", "rate", rate, "clamped", 100, "promotion_id", promotionID)
		return 100
	default:
		return rate
	}
}

// normalizeAmount 金额保留两位小数且不为负
func normalizeAmount(amount decimal.Decimal) decimal.Decimal {
	normalized := amount.Round(2)
	if normalized.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return normalized
}
