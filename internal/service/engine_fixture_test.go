package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/pkg/clock"
	"github.com/petcare-next/internal/queue"
	"github.com/petcare-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	testNow        = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	promotionStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	promotionEnd   = time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	insideWindow   = time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	beforeWindow   = time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	testBranchID   = uint(1)
	otherBranchID  = uint(2)
	testStaffID    = uint(7)
	testTaxRate    = decimal.RequireFromString("0.10")
	testPointUnit  = int64(100000)
)

type engineFixture struct {
	db    *gorm.DB
	clock *clock.MockClock

	serviceTypeRepo *repository.GormServiceTypeRepository
	catalogRepo     *repository.GormCatalogRepository
	promotionRepo   *repository.GormBranchPromotionRepository
	instanceRepo    *repository.GormServiceInstanceRepository
	invoiceRepo     *repository.GormInvoiceRepository
	customerRepo    *repository.GormCustomerRepository
	productRepo     *repository.GormProductRepository

	catalog    *CatalogService
	resolver   *PromotionService
	pricing    *PricingService
	loyalty    *LoyaltyService
	invoices   *InvoiceService
	ratings    *RatingService
	instances  *ServiceInstanceService
	promotions *PromotionAdminService
}

func setupEngineTest(t *testing.T, taxBase string) *engineFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:engine_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// 单连接让并发事务串行执行
	sqlDB.SetMaxOpenConns(1)
	models.DB = db
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}

	f := &engineFixture{
		db:              db,
		clock:           clock.NewMockClock(testNow),
		serviceTypeRepo: repository.NewServiceTypeRepository(db),
		catalogRepo:     repository.NewCatalogRepository(db),
		promotionRepo:   repository.NewBranchPromotionRepository(db),
		instanceRepo:    repository.NewServiceInstanceRepository(db),
		invoiceRepo:     repository.NewInvoiceRepository(db),
		customerRepo:    repository.NewCustomerRepository(db),
		productRepo:     repository.NewProductRepository(db),
	}
	f.catalog = NewCatalogService(f.serviceTypeRepo, f.catalogRepo, nil)
	f.resolver = NewPromotionService(f.promotionRepo, f.clock)
	f.pricing = NewPricingService(f.resolver, f.instanceRepo, f.customerRepo)
	f.loyalty = NewLoyaltyService(f.invoiceRepo, f.customerRepo, testPointUnit)
	f.invoices = NewInvoiceService(
		f.invoiceRepo,
		f.instanceRepo,
		f.customerRepo,
		f.productRepo,
		f.pricing,
		f.resolver,
		f.loyalty,
		queueClient,
		f.clock,
		InvoiceOptions{TaxRate: testTaxRate, TaxBase: taxBase, InvoiceNoPrefix: "PC"},
	)
	f.ratings = NewRatingService(f.instanceRepo, f.invoiceRepo, f.clock)
	f.instances = NewServiceInstanceService(f.instanceRepo, f.invoiceRepo, f.customerRepo, f.catalog, f.invoices, f.clock)
	f.promotions = NewPromotionAdminService(f.promotionRepo, f.invoiceRepo, queueClient, f.invoices)

	prices := map[constants.ServiceTypeCode]int64{
		constants.ServiceTypePurchase:       0,
		constants.ServiceTypeMedicalExam:    200000,
		constants.ServiceTypeSingleVaccine:  100000,
		constants.ServiceTypeVaccinePackage: 300000,
	}
	for _, code := range constants.AllServiceTypes {
		if err := f.serviceTypeRepo.Save(&models.ServiceType{
			Code:      code,
			Name:      code.String(),
			BasePrice: models.NewMoneyFromInt(prices[code]),
		}); err != nil {
			t.Fatalf("seed service type %s failed: %v", code, err)
		}
	}
	return f
}

func (f *engineFixture) createCustomer(t *testing.T, tier string) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		Name:              "customer-" + tier,
		MembershipTier:    tier,
		LifetimePaidTotal: models.ZeroMoney(),
	}
	if err := f.customerRepo.Create(customer); err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	return customer
}

func (f *engineFixture) createInstance(t *testing.T, customerID, branchID uint, code constants.ServiceTypeCode, basePrice int64, performedAt time.Time) *models.ServiceInstance {
	t.Helper()
	instance := &models.ServiceInstance{
		CustomerID:  customerID,
		BranchID:    branchID,
		StaffID:     testStaffID,
		ServiceType: code,
		PerformedAt: performedAt.UTC(),
		BasePrice:   models.NewMoneyFromInt(basePrice),
		VaccineCost: models.ZeroMoney(),
		PackageCost: models.ZeroMoney(),
	}
	if err := f.instanceRepo.Create(instance); err != nil {
		t.Fatalf("create service instance failed: %v", err)
	}
	return instance
}

func (f *engineFixture) createPromotion(t *testing.T, branchID uint, rate int, audience string, codes ...constants.ServiceTypeCode) *models.BranchPromotion {
	t.Helper()
	serviceTypes := make(models.StringArray, 0, len(codes))
	for _, code := range codes {
		serviceTypes = append(serviceTypes, code.String())
	}
	promotion := &models.BranchPromotion{
		BranchID:     branchID,
		Description:  fmt.Sprintf("%d%% off", rate),
		Audience:     audience,
		ServiceTypes: serviceTypes,
		DiscountRate: rate,
		StartsAt:     promotionStart,
		EndsAt:       promotionEnd,
	}
	if err := f.promotionRepo.Create(promotion); err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}
	return promotion
}

func (f *engineFixture) createProduct(t *testing.T, sku string, price int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		SKU:           sku,
		Name:          "product-" + sku,
		Price:         models.NewMoneyFromInt(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	if err := f.productRepo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func assertMoney(t *testing.T, field string, got models.Money, want int64) {
	t.Helper()
	if !got.Decimal.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("%s want %d got %s", field, want, got.String())
	}
}

func intValue(value *int) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%d", *value)
}

// interleavingInstanceRepo 在事务外的读取之后插入一次并发操作
type interleavingInstanceRepo struct {
	*repository.GormServiceInstanceRepository
	afterListByIDs func()
	afterGetByID   func()
}

func (r *interleavingInstanceRepo) ListByIDs(ids []uint) ([]models.ServiceInstance, error) {
	rows, err := r.GormServiceInstanceRepository.ListByIDs(ids)
	if hook := r.afterListByIDs; hook != nil {
		r.afterListByIDs = nil
		hook()
	}
	return rows, err
}

func (r *interleavingInstanceRepo) GetByID(id uint) (*models.ServiceInstance, error) {
	row, err := r.GormServiceInstanceRepository.GetByID(id)
	if hook := r.afterGetByID; hook != nil {
		r.afterGetByID = nil
		hook()
	}
	return row, err
}

func (f *engineFixture) invoiceServiceWith(instanceRepo repository.ServiceInstanceRepository) *InvoiceService {
	queueClient, _ := queue.NewClient(nil)
	return NewInvoiceService(
		f.invoiceRepo,
		instanceRepo,
		f.customerRepo,
		f.productRepo,
		f.pricing,
		f.resolver,
		f.loyalty,
		queueClient,
		f.clock,
		InvoiceOptions{TaxRate: testTaxRate, TaxBase: constants.TaxBaseGross, InvoiceNoPrefix: "PC"},
	)
}
