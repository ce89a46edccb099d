package service

import (
	"strings"

	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 零售商品管理服务
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// ProductInput 创建/更新商品输入
type ProductInput struct {
	SKU           string
	Name          string
	Price         decimal.Decimal
	StockQuantity int
	IsActive      *bool
}

// ListAdmin 管理端商品列表
func (s *ProductService) ListAdmin(search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   search,
	})
}

// GetAdminByID 获取商品详情
func (s *ProductService) GetAdminByID(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(input ProductInput) (*models.Product, error) {
	product := &models.Product{IsActive: true}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}
	if err := s.ensureSKUAvailable(product.SKU, 0); err != nil {
		return nil, err
	}
	inactive := !product.IsActive
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}
	// is_active 带数据库默认值，零值在创建时会被跳过
	if inactive {
		product.IsActive = false
		if err := s.repo.Update(product); err != nil {
			return nil, err
		}
	}
	logger.Infow("product_created", "product_id", product.ID, "sku", product.SKU)
	return product, nil
}

// Update 更新商品
func (s *ProductService) Update(id uint, input ProductInput) (*models.Product, error) {
	product, err := s.GetAdminByID(id)
	if err != nil {
		return nil, err
	}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}
	if err := s.ensureSKUAvailable(product.SKU, product.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// ensureSKUAvailable 商品编码唯一，selfID 为当前商品时允许保留原编码
func (s *ProductService) ensureSKUAvailable(sku string, selfID uint) error {
	existing, err := s.repo.GetBySKU(sku)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return ErrProductSKUExists
	}
	return nil
}

func applyProductInput(product *models.Product, input ProductInput) error {
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	if sku == "" || name == "" {
		return ErrValidation
	}
	if input.Price.IsNegative() {
		return ErrPriceInvalid
	}
	if input.StockQuantity < 0 {
		return ErrProductQuantityInvalid
	}
	product.SKU = sku
	product.Name = name
	product.Price = models.NewMoneyFromDecimal(input.Price)
	product.StockQuantity = input.StockQuantity
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	return nil
}
