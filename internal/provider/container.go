package provider

import (
	"github.com/petcare-next/internal/authz"
	"github.com/petcare-next/internal/cache"
	"github.com/petcare-next/internal/config"
	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/pkg/clock"
	"github.com/petcare-next/internal/queue"
	"github.com/petcare-next/internal/repository"
	"github.com/petcare-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Clock       clock.Clock

	// Repositories
	ServiceTypeRepo     repository.ServiceTypeRepository
	CatalogRepo         repository.CatalogRepository
	PromotionRepo       repository.BranchPromotionRepository
	ServiceInstanceRepo repository.ServiceInstanceRepository
	InvoiceRepo         repository.InvoiceRepository
	CustomerRepo        repository.CustomerRepository
	ProductRepo         repository.ProductRepository
	AuthzAuditLogRepo   repository.AuthzAuditLogRepository

	// Services
	AuthzService           *authz.Service
	AuthzAuditService      *service.AuthzAuditService
	CatalogService         *service.CatalogService
	ProductService         *service.ProductService
	PromotionService       *service.PromotionService
	PromotionAdminService  *service.PromotionAdminService
	PricingService         *service.PricingService
	LoyaltyService         *service.LoyaltyService
	InvoiceService         *service.InvoiceService
	ServiceInstanceService *service.ServiceInstanceService
	RatingService          *service.RatingService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Clock:       clock.NewRealClock(),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.ServiceTypeRepo = repository.NewServiceTypeRepository(db)
	c.CatalogRepo = repository.NewCatalogRepository(db)
	c.PromotionRepo = repository.NewBranchPromotionRepository(db)
	c.ServiceInstanceRepo = repository.NewServiceInstanceRepository(db)
	c.InvoiceRepo = repository.NewInvoiceRepository(db)
	c.CustomerRepo = repository.NewCustomerRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)

	c.CatalogService = service.NewCatalogService(c.ServiceTypeRepo, c.CatalogRepo, cache.NewServiceTypeSnapshots())
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.PromotionService = service.NewPromotionService(c.PromotionRepo, c.Clock)
	c.PricingService = service.NewPricingService(c.PromotionService, c.ServiceInstanceRepo, c.CustomerRepo)
	c.LoyaltyService = service.NewLoyaltyService(c.InvoiceRepo, c.CustomerRepo, c.Config.Invoice.LoyaltyPointUnit)
	c.InvoiceService = service.NewInvoiceService(
		c.InvoiceRepo,
		c.ServiceInstanceRepo,
		c.CustomerRepo,
		c.ProductRepo,
		c.PricingService,
		c.PromotionService,
		c.LoyaltyService,
		c.QueueClient,
		c.Clock,
		service.InvoiceOptions{
			TaxRate:         c.Config.Invoice.TaxRateDecimal(),
			TaxBase:         c.Config.Invoice.NormalizedTaxBase(),
			InvoiceNoPrefix: c.Config.Invoice.InvoiceNoPrefix,
		},
	)
	c.PromotionAdminService = service.NewPromotionAdminService(c.PromotionRepo, c.InvoiceRepo, c.QueueClient, c.InvoiceService)
	c.ServiceInstanceService = service.NewServiceInstanceService(c.ServiceInstanceRepo, c.InvoiceRepo, c.CustomerRepo, c.CatalogService, c.InvoiceService, c.Clock)
	c.RatingService = service.NewRatingService(c.ServiceInstanceRepo, c.InvoiceRepo, c.Clock)
}
