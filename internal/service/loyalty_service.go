package service

import (
	"time"

	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultLoyaltyPointUnit = 100000

// LoyaltyService 积分按累计已付金额滚动计算
type LoyaltyService struct {
	invoiceRepo  repository.InvoiceRepository
	customerRepo repository.CustomerRepository
	pointUnit    decimal.Decimal
}

// NewLoyaltyService 创建积分服务，pointUnit 为每积分对应金额
func NewLoyaltyService(invoiceRepo repository.InvoiceRepository, customerRepo repository.CustomerRepository, pointUnit int64) *LoyaltyService {
	if pointUnit <= 0 {
		pointUnit = defaultLoyaltyPointUnit
	}
	return &LoyaltyService{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		pointUnit:    decimal.NewFromInt(pointUnit),
	}
}

// PointsFor floor(amount / unit)
func (s *LoyaltyService) PointsFor(amount decimal.Decimal) int64 {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	return amount.Div(s.pointUnit).Floor().IntPart()
}

// ProjectEarnedPoints 假设该账单按 total 支付后客户新增的积分；invoiceRepo 由调用方绑定事务
func (s *LoyaltyService) ProjectEarnedPoints(invoiceRepo repository.InvoiceRepository, customerID uint, total decimal.Decimal) (int64, error) {
	paidBefore, err := invoiceRepo.SumPaidTotalByCustomer(customerID)
	if err != nil {
		return 0, err
	}
	return s.PointsFor(paidBefore.Add(total)) - s.PointsFor(paidBefore), nil
}

// RecomputeCustomerLoyalty 按全部已支付账单重算客户累计消费与积分
func (s *LoyaltyService) RecomputeCustomerLoyalty(customerID uint) (*models.Customer, error) {
	var customer *models.Customer
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		customer, err = s.recomputeCustomerLoyaltyTx(tx, customerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *LoyaltyService) recomputeCustomerLoyaltyTx(tx *gorm.DB, customerID uint) (*models.Customer, error) {
	customerRepo := s.customerRepo.WithTx(tx)
	invoiceRepo := s.invoiceRepo.WithTx(tx)

	customer, err := customerRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	lifetime, err := invoiceRepo.SumPaidTotalByCustomer(customerID)
	if err != nil {
		return nil, err
	}
	points := s.PointsFor(lifetime)
	if lifetime.Equal(customer.LifetimePaidTotal.Decimal) && points == customer.LoyaltyPoints {
		return customer, nil
	}
	if err := customerRepo.UpdateLoyalty(customerID, lifetime, points); err != nil {
		return nil, err
	}
	logger.Infow("customer_loyalty_recomputed",
		"customer_id", customerID,
		"lifetime_paid_total", lifetime.StringFixed(2),
		"loyalty_points", points,
		"previous_points", customer.LoyaltyPoints,
	)
	customer.LifetimePaidTotal = models.NewMoneyFromDecimal(lifetime)
	customer.LoyaltyPoints = points
	return customer, nil
}

// CustomersPaidSince 返回 since 之后有支付记录的客户
func (s *LoyaltyService) CustomersPaidSince(since time.Time) ([]uint, error) {
	return s.invoiceRepo.ListCustomerIDsPaidSince(since)
}
