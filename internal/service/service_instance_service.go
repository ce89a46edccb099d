package service

import (
	"time"

	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/pkg/clock"
	"github.com/petcare-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ServiceInstanceService 服务记录登记与费用修正
type ServiceInstanceService struct {
	instanceRepo repository.ServiceInstanceRepository
	invoiceRepo  repository.InvoiceRepository
	customerRepo repository.CustomerRepository
	catalog      *CatalogService
	recomputer   pendingInvoiceRecomputer
	clock        clock.Clock
}

// pendingInvoiceRecomputer 在调用方事务内重算待支付账单
type pendingInvoiceRecomputer interface {
	RecomputeTotalsTx(tx *gorm.DB, invoiceID uint) error
}

// NewServiceInstanceService 创建服务记录服务
func NewServiceInstanceService(
	instanceRepo repository.ServiceInstanceRepository,
	invoiceRepo repository.InvoiceRepository,
	customerRepo repository.CustomerRepository,
	catalog *CatalogService,
	recomputer pendingInvoiceRecomputer,
	clk clock.Clock,
) *ServiceInstanceService {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &ServiceInstanceService{
		instanceRepo: instanceRepo,
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		catalog:      catalog,
		recomputer:   recomputer,
		clock:        clk,
	}
}

// RecordServiceInput 登记服务输入
type RecordServiceInput struct {
	CustomerID  uint
	BranchID    uint
	StaffID     uint
	ServiceType string
	PerformedAt time.Time
	VaccineID   *uint
	PackageID   *uint
}

// UpdateServiceCostsInput 修正附加费用，nil 表示不修改
type UpdateServiceCostsInput struct {
	VaccineCost *decimal.Decimal
	PackageCost *decimal.Decimal
}

// Record 登记一次服务，基础价与附加费用在登记时快照
func (s *ServiceInstanceService) Record(input RecordServiceInput) (*models.ServiceInstance, error) {
	if input.CustomerID == 0 || input.BranchID == 0 || input.StaffID == 0 {
		return nil, ErrServiceInstanceInvalid
	}
	code, err := ParseServiceTypeCode(input.ServiceType)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.GetByID(input.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	basePrice, err := s.catalog.BasePriceOf(code)
	if err != nil {
		return nil, err
	}

	instance := &models.ServiceInstance{
		CustomerID:  input.CustomerID,
		BranchID:    input.BranchID,
		StaffID:     input.StaffID,
		ServiceType: code,
		BasePrice:   models.NewMoneyFromDecimal(basePrice),
		VaccineCost: models.ZeroMoney(),
		PackageCost: models.ZeroMoney(),
	}
	switch code {
	case constants.ServiceTypeSingleVaccine:
		if input.VaccineID == nil || input.PackageID != nil {
			return nil, ErrAddOnNotAllowed
		}
		cost, err := s.catalog.VaccineCostOf(*input.VaccineID)
		if err != nil {
			return nil, err
		}
		instance.VaccineID = input.VaccineID
		instance.VaccineCost = models.NewMoneyFromDecimal(cost)
	case constants.ServiceTypeVaccinePackage:
		if input.PackageID == nil || input.VaccineID != nil {
			return nil, ErrAddOnNotAllowed
		}
		cost, err := s.catalog.PackageCostOf(*input.PackageID)
		if err != nil {
			return nil, err
		}
		instance.PackageID = input.PackageID
		instance.PackageCost = models.NewMoneyFromDecimal(cost)
	case constants.ServiceTypeMedicalExam, constants.ServiceTypePurchase:
		if input.VaccineID != nil || input.PackageID != nil {
			return nil, ErrAddOnNotAllowed
		}
	default:
		return nil, ErrServiceTypeInvalid
	}

	performedAt := input.PerformedAt
	if performedAt.IsZero() {
		performedAt = s.clock.Now()
	}
	instance.PerformedAt = performedAt.UTC()

	if err := s.instanceRepo.Create(instance); err != nil {
		return nil, err
	}
	logger.Infow("service_instance_recorded",
		"service_instance_id", instance.ID,
		"customer_id", instance.CustomerID,
		"branch_id", instance.BranchID,
		"staff_id", instance.StaffID,
		"service_type", instance.ServiceType,
		"gross_amount", instance.GrossAmount().StringFixed(2),
	)
	return instance, nil
}

// UpdateCosts 修正附加费用；已结算账单下的服务不可修改，待支付账单在同一事务内重算
func (s *ServiceInstanceService) UpdateCosts(id uint, input UpdateServiceCostsInput) (*models.ServiceInstance, error) {
	instance, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	fields, err := costFields(instance.ServiceType, input)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return instance, nil
	}

	var invoiceID *uint
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		instanceRepo := s.instanceRepo.WithTx(tx)

		locked, err := instanceRepo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrServiceInstanceNotFound
		}
		invoiceID = locked.InvoiceID
		if locked.IsInvoiced() {
			invoice, err := s.invoiceRepo.WithTx(tx).GetByIDForUpdate(*locked.InvoiceID)
			if err != nil {
				return err
			}
			if invoice == nil {
				return ErrInvoiceNotFound
			}
			if invoice.Status != constants.InvoiceStatusPending {
				return ErrServiceInstanceLocked
			}
		}
		if err := instanceRepo.UpdateFields(locked.ID, fields); err != nil {
			return err
		}
		if locked.IsInvoiced() && s.recomputer != nil {
			return s.recomputer.RecomputeTotalsTx(tx, *locked.InvoiceID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("service_instance_costs_updated", "service_instance_id", id, "invoice_id", invoiceID)
	return s.Get(id)
}

// costFields 校验附加费用与服务类型匹配，返回待写入字段
func costFields(serviceType constants.ServiceTypeCode, input UpdateServiceCostsInput) (map[string]interface{}, error) {
	fields := make(map[string]interface{}, 2)
	if input.VaccineCost != nil {
		if serviceType != constants.ServiceTypeSingleVaccine {
			return nil, ErrAddOnNotAllowed
		}
		if input.VaccineCost.IsNegative() {
			return nil, ErrPriceInvalid
		}
		fields["vaccine_cost"] = models.NewMoneyFromDecimal(*input.VaccineCost)
	}
	if input.PackageCost != nil {
		if serviceType != constants.ServiceTypeVaccinePackage {
			return nil, ErrAddOnNotAllowed
		}
		if input.PackageCost.IsNegative() {
			return nil, ErrPriceInvalid
		}
		fields["package_cost"] = models.NewMoneyFromDecimal(*input.PackageCost)
	}
	return fields, nil
}

// Get 获取服务记录
func (s *ServiceInstanceService) Get(id uint) (*models.ServiceInstance, error) {
	instance, err := s.instanceRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, ErrServiceInstanceNotFound
	}
	return instance, nil
}

// List 分页查询服务记录
func (s *ServiceInstanceService) List(filter repository.ServiceInstanceListFilter) ([]models.ServiceInstance, int64, error) {
	return s.instanceRepo.List(filter)
}
