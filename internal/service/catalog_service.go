package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/petcare-next/internal/cache"
	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/repository"

	"github.com/shopspring/decimal"
)

// ServiceTypeCache 服务类型价格快照缓存
type ServiceTypeCache interface {
	Get(ctx context.Context, code string) (*cache.ServiceTypeSnapshot, bool, error)
	Set(ctx context.Context, snapshot *cache.ServiceTypeSnapshot) error
	Del(ctx context.Context, code string) error
}

// CatalogService 服务类型与疫苗目录（计费只读来源）
type CatalogService struct {
	serviceTypeRepo repository.ServiceTypeRepository
	catalogRepo     repository.CatalogRepository
	snapshots       ServiceTypeCache
}

// NewCatalogService 创建目录服务，snapshots 为 nil 时直读数据库
func NewCatalogService(serviceTypeRepo repository.ServiceTypeRepository, catalogRepo repository.CatalogRepository, snapshots ServiceTypeCache) *CatalogService {
	return &CatalogService{
		serviceTypeRepo: serviceTypeRepo,
		catalogRepo:     catalogRepo,
		snapshots:       snapshots,
	}
}

// UpsertServiceTypeInput 配置服务类型的输入
type UpsertServiceTypeInput struct {
	Code      string
	Name      string
	BasePrice decimal.Decimal
}

// ParseServiceTypeCode 解析服务类型编码，兼容中划线写法
func ParseServiceTypeCode(raw string) (constants.ServiceTypeCode, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	code := constants.ServiceTypeCode(normalized)
	if !code.Valid() {
		return "", ErrServiceTypeInvalid
	}
	return code, nil
}

// BasePriceOf 返回服务类型的基础价格；purchase 恒为 0
func (s *CatalogService) BasePriceOf(code constants.ServiceTypeCode) (decimal.Decimal, error) {
	if !code.Valid() {
		return decimal.Zero, ErrServiceTypeInvalid
	}
	if s.snapshots != nil {
		snapshot, hit, err := s.snapshots.Get(context.Background(), code.String())
		if err != nil {
			logger.Warnw("catalog_cache_read_failed", "code", code, "error", err)
		} else if hit {
			return basePriceForCode(code, snapshot.BasePrice.Decimal), nil
		}
	}

	row, err := s.serviceTypeRepo.GetByCode(code)
	if err != nil {
		return decimal.Zero, err
	}
	if row == nil {
		return decimal.Zero, ErrServiceTypeNotFound
	}
	if s.snapshots != nil {
		if err := s.snapshots.Set(context.Background(), cache.BuildServiceTypeSnapshot(row)); err != nil {
			logger.Warnw("catalog_cache_write_failed", "code", code, "error", err)
		}
	}
	return basePriceForCode(code, row.BasePrice.Decimal), nil
}

func basePriceForCode(code constants.ServiceTypeCode, price decimal.Decimal) decimal.Decimal {
	if code == constants.ServiceTypePurchase {
		return decimal.Zero
	}
	return price
}

// GetServiceType 获取服务类型
func (s *CatalogService) GetServiceType(code constants.ServiceTypeCode) (*models.ServiceType, error) {
	if !code.Valid() {
		return nil, ErrServiceTypeInvalid
	}
	row, err := s.serviceTypeRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrServiceTypeNotFound
	}
	return row, nil
}

// ListServiceTypes 获取全部服务类型
func (s *CatalogService) ListServiceTypes() ([]models.ServiceType, error) {
	return s.serviceTypeRepo.List()
}

// UpsertServiceType 配置服务类型价格，purchase 只允许 0
func (s *CatalogService) UpsertServiceType(input UpsertServiceTypeInput) (*models.ServiceType, error) {
	code, err := ParseServiceTypeCode(input.Code)
	if err != nil {
		return nil, err
	}
	if input.BasePrice.IsNegative() {
		return nil, ErrPriceInvalid
	}
	if code == constants.ServiceTypePurchase && !input.BasePrice.IsZero() {
		return nil, ErrPurchasePriceNonZero
	}

	row, err := s.serviceTypeRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if row == nil {
		row = &models.ServiceType{Code: code}
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		row.Name = name
	}
	if row.Name == "" {
		row.Name = code.String()
	}
	row.BasePrice = models.NewMoneyFromDecimal(input.BasePrice)
	if err := s.serviceTypeRepo.Save(row); err != nil {
		return nil, err
	}
	if s.snapshots != nil {
		if err := s.snapshots.Del(context.Background(), code.String()); err != nil {
			logger.Warnw("catalog_cache_invalidate_failed", "code", code, "error", err)
		}
	}
	logger.Infow("service_type_saved", "code", code, "base_price", row.BasePrice.String())
	return row, nil
}

// VaccineCostOf 返回可用疫苗的单价
func (s *CatalogService) VaccineCostOf(id uint) (decimal.Decimal, error) {
	vaccine, err := s.catalogRepo.GetVaccineByID(id)
	if err != nil {
		return decimal.Zero, err
	}
	if vaccine == nil || !vaccine.IsActive {
		return decimal.Zero, ErrVaccineNotFound
	}
	return vaccine.Price.Decimal, nil
}

// PackageCostOf 返回可用疫苗套餐的价格
func (s *CatalogService) PackageCostOf(id uint) (decimal.Decimal, error) {
	pkg, err := s.catalogRepo.GetPackageByID(id)
	if err != nil {
		return decimal.Zero, err
	}
	if pkg == nil || !pkg.IsActive {
		return decimal.Zero, ErrVaccinePackageNotFound
	}
	return pkg.Price.Decimal, nil
}

// ListVaccines 获取可用疫苗
func (s *CatalogService) ListVaccines() ([]models.Vaccine, error) {
	return s.catalogRepo.ListVaccines(true)
}

// ListPackages 获取可用套餐
func (s *CatalogService) ListPackages() ([]models.VaccinePackage, error) {
	return s.catalogRepo.ListPackages(true)
}

// CreateVaccineInput 新增疫苗的输入
type CreateVaccineInput struct {
	Name  string
	Price decimal.Decimal
}

// CreateVaccine 新增单剂疫苗
func (s *CatalogService) CreateVaccine(input CreateVaccineInput) (*models.Vaccine, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: vaccine name is required", ErrValidation)
	}
	if input.Price.IsNegative() {
		return nil, ErrPriceInvalid
	}
	vaccine := &models.Vaccine{
		Name:     name,
		Price:    models.NewMoneyFromDecimal(input.Price),
		IsActive: true,
	}
	if err := s.catalogRepo.CreateVaccine(vaccine); err != nil {
		return nil, err
	}
	logger.Infow("vaccine_created", "vaccine_id", vaccine.ID, "price", vaccine.Price.String())
	return vaccine, nil
}

// CreatePackageInput 新增疫苗套餐的输入
type CreatePackageInput struct {
	Name       string
	Price      decimal.Decimal
	VaccineIDs []uint
}

// CreatePackage 新增疫苗套餐，包含的疫苗必须都可用
func (s *CatalogService) CreatePackage(input CreatePackageInput) (*models.VaccinePackage, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: package name is required", ErrValidation)
	}
	if input.Price.IsNegative() {
		return nil, ErrPriceInvalid
	}
	vaccineIDs := make(models.UintArray, 0, len(input.VaccineIDs))
	seen := make(map[uint]struct{}, len(input.VaccineIDs))
	for _, id := range input.VaccineIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, err := s.VaccineCostOf(id); err != nil {
			return nil, err
		}
		vaccineIDs = append(vaccineIDs, id)
	}
	pkg := &models.VaccinePackage{
		Name:       name,
		Price:      models.NewMoneyFromDecimal(input.Price),
		VaccineIDs: vaccineIDs,
		IsActive:   true,
	}
	if err := s.catalogRepo.CreatePackage(pkg); err != nil {
		return nil, err
	}
	logger.Infow("vaccine_package_created", "package_id", pkg.ID, "price", pkg.Price.String())
	return pkg, nil
}
