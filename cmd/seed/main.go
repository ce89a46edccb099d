package main

import (
	"errors"
	"time"

	"github.com/petcare-next/internal/config"
	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/provider"
	"github.com/petcare-next/internal/service"

	"github.com/shopspring/decimal"
)

// 演示数据所在分店
const demoBranchID uint = 1

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(models.DBOptions{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Pool: models.DBPoolConfig{
			MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
			MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
			ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
			ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
		},
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}
	c := provider.NewContainer(cfg)

	// 服务类型基础价
	basePrices := map[constants.ServiceTypeCode]int64{
		constants.ServiceTypePurchase:       0,
		constants.ServiceTypeSingleVaccine:  60,
		constants.ServiceTypeVaccinePackage: 0,
		constants.ServiceTypeMedicalExam:    80,
	}
	for _, code := range constants.AllServiceTypes {
		row, err := c.CatalogService.UpsertServiceType(service.UpsertServiceTypeInput{
			Code:      code.String(),
			BasePrice: decimal.NewFromInt(basePrices[code]),
		})
		if err != nil {
			stdLog.Printf("Failed to upsert service type %s: %v", code, err)
			continue
		}
		stdLog.Printf("Service type ready: %s base=%s", row.Code, row.BasePrice.String())
	}

	// 疫苗与套餐
	vaccines, err := c.CatalogService.ListVaccines()
	if err != nil {
		stdLog.Fatalf("Failed to load vaccines: %v", err)
	}
	if len(vaccines) == 0 {
		var ids []uint
		for _, item := range []struct {
			name  string
			price int64
		}{
			{name: "Rabies", price: 25},
			{name: "DHPP", price: 30},
			{name: "Leptospirosis", price: 20},
		} {
			vaccine, err := c.CatalogService.CreateVaccine(service.CreateVaccineInput{Name: item.name, Price: decimal.NewFromInt(item.price)})
			if err != nil {
				stdLog.Printf("Failed to create vaccine %s: %v", item.name, err)
				continue
			}
			ids = append(ids, vaccine.ID)
			stdLog.Printf("Created vaccine: %s", vaccine.Name)
		}
		if len(ids) > 0 {
			pkg, err := c.CatalogService.CreatePackage(service.CreatePackageInput{
				Name:       "Puppy core series",
				Price:      decimal.NewFromInt(65),
				VaccineIDs: ids,
			})
			if err != nil {
				stdLog.Printf("Failed to create vaccine package: %v", err)
			} else {
				stdLog.Printf("Created vaccine package: %s", pkg.Name)
			}
		}
	} else {
		stdLog.Printf("Vaccines already exist: %d", len(vaccines))
	}

	// 零售商品
	products := []service.ProductInput{
		{SKU: "FOOD-ADULT-2KG", Name: "Adult dog food 2kg", Price: decimal.NewFromInt(18), StockQuantity: 40},
		{SKU: "TOY-ROPE", Name: "Rope chew toy", Price: decimal.RequireFromString("4.50"), StockQuantity: 100},
		{SKU: "SHAMPOO-OAT", Name: "Oatmeal shampoo", Price: decimal.NewFromInt(9), StockQuantity: 25},
	}
	for _, input := range products {
		if _, err := c.ProductService.Create(input); errors.Is(err, service.ErrProductSKUExists) {
			stdLog.Printf("Product already exists: %s", input.SKU)
			continue
		} else if err != nil {
			stdLog.Printf("Failed to create product %s: %v", input.SKU, err)
			continue
		}
		stdLog.Printf("Created product: %s", input.SKU)
	}

	// 客户
	customers := []models.Customer{
		{Name: "Alice Basic", Phone: "13800000001", MembershipTier: constants.MembershipTierBasic},
		{Name: "Bob Loyal", Phone: "13800000002", MembershipTier: constants.MembershipTierLoyal},
		{Name: "Carol VIP", Phone: "13800000003", MembershipTier: constants.MembershipTierVIP},
	}
	customerIDs := make([]uint, 0, len(customers))
	for _, customer := range customers {
		var existing models.Customer
		if err := models.DB.Where("phone = ?", customer.Phone).First(&existing).Error; err == nil {
			stdLog.Printf("Customer already exists: %s", customer.Name)
			customerIDs = append(customerIDs, existing.ID)
			continue
		}
		row := customer
		if err := c.CustomerRepo.Create(&row); err != nil {
			stdLog.Printf("Failed to create customer %s: %v", customer.Name, err)
			continue
		}
		customerIDs = append(customerIDs, row.ID)
		stdLog.Printf("Created customer: %s", row.Name)
	}

	// 分店活动
	var promotionCount int64
	if err := models.DB.Model(&models.BranchPromotion{}).Where("branch_id = ?", demoBranchID).Count(&promotionCount).Error; err != nil {
		stdLog.Printf("Failed to check promotions: %v", err)
	} else if promotionCount == 0 {
		now := time.Now()
		promotions := []service.BranchPromotionInput{
			{
				BranchID:     demoBranchID,
				Description:  "Checkup week",
				Audience:     "All",
				ServiceTypes: []string{string(constants.ServiceTypeMedicalExam)},
				DiscountRate: 5,
				StartsAt:     now.AddDate(0, 0, -1),
				EndsAt:       now.AddDate(0, 0, 30),
			},
			{
				BranchID:     demoBranchID,
				Description:  "Members vaccine month",
				Audience:     "Loyal+",
				ServiceTypes: []string{string(constants.ServiceTypeSingleVaccine), string(constants.ServiceTypeVaccinePackage)},
				DiscountRate: 10,
				StartsAt:     now.AddDate(0, 0, -1),
				EndsAt:       now.AddDate(0, 1, 0),
			},
		}
		for _, input := range promotions {
			promotion, err := c.PromotionAdminService.Create(input)
			if err != nil {
				stdLog.Printf("Failed to create promotion %s: %v", input.Description, err)
				continue
			}
			stdLog.Printf("Created promotion: %s (%d%%)", promotion.Description, promotion.DiscountRate)
		}
	}

	// 开发用令牌
	auth := service.NewAuthService(cfg.JWT)
	identities := []service.AccountIdentity{
		{AccountID: 1, Role: constants.RoleAdmin},
		{AccountID: 101, Role: constants.RoleVeterinarian, BranchID: demoBranchID},
		{AccountID: 102, Role: constants.RoleReceptionist, BranchID: demoBranchID},
		{AccountID: 103, Role: constants.RoleSales, BranchID: demoBranchID},
	}
	for _, id := range customerIDs {
		identities = append(identities, service.AccountIdentity{AccountID: id, Role: constants.RoleCustomer})
	}
	for _, identity := range identities {
		token, expiresAt, err := auth.GenerateJWT(identity)
		if err != nil {
			stdLog.Printf("Failed to issue token for %s#%d: %v", identity.Role, identity.AccountID, err)
			continue
		}
		stdLog.Printf("Token %s#%d (expires %s): %s", identity.Role, identity.AccountID, expiresAt.Format(time.RFC3339), token)
	}

	stdLog.Println("Seed data created successfully!")
}
