package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petcare-next/internal/authz"
	"github.com/petcare-next/internal/cache"
	"github.com/petcare-next/internal/config"
	"github.com/petcare-next/internal/constants"
	adminhandlers "github.com/petcare-next/internal/http/handlers/admin"
	customerhandlers "github.com/petcare-next/internal/http/handlers/customer"
	staffhandlers "github.com/petcare-next/internal/http/handlers/staff"
	"github.com/petcare-next/internal/http/response"
	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按客户/门店/后台分组）
	customerHandler := customerhandlers.New(c)
	staffHandler := staffhandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "pc"
	}
	redisClient := cache.Client()
	ratingRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:rating", redisPrefix),
		WindowSeconds: cfg.Security.RatingRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RatingRateLimit.MaxRequests,
		MessageKey:    "error.rate_limited",
	}
	writeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:write", redisPrefix),
		WindowSeconds: cfg.Security.WriteRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.WriteRateLimit.MaxRequests,
		MessageKey:    "error.rate_limited",
		FailOpen:      true,
	}
	writeLimit := RateLimitMiddleware(redisClient, writeRule, KeyByAccount)

	// 中间件
	r.Use(RecoveryMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	secret := cfg.JWT.SecretKey
	issuer := cfg.JWT.Issuer

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 客户接口
		customer := apiV1.Group("/customer")
		customer.Use(JWTAuthMiddleware(secret, issuer, constants.RoleCustomer), RoleRBACMiddleware(c.AuthzService))
		{
			customer.GET("/profile", customerHandler.GetProfile)
			customer.GET("/invoices", customerHandler.ListInvoices)
			customer.GET("/invoices/:id", customerHandler.GetInvoice)
			customer.GET("/service-instances", customerHandler.ListServiceInstances)
			customer.POST("/service-instances/:id/rating", RateLimitMiddleware(redisClient, ratingRule, KeyByAccountAndParam("id")), customerHandler.RateServiceInstance)
		}

		// 门店员工接口
		staff := apiV1.Group("/staff")
		staff.Use(
			JWTAuthMiddleware(secret, issuer, constants.RoleVeterinarian, constants.RoleReceptionist, constants.RoleSales, constants.RoleAdmin),
			RoleRBACMiddleware(c.AuthzService),
		)
		{
			staff.GET("/catalog/service-types", staffHandler.ListServiceTypes)
			staff.GET("/catalog/vaccines", staffHandler.ListVaccines)
			staff.GET("/catalog/vaccine-packages", staffHandler.ListVaccinePackages)
			staff.GET("/promotions/resolve", staffHandler.ResolvePromotion)

			staff.GET("/service-instances", staffHandler.ListServiceInstances)
			staff.POST("/service-instances", writeLimit, staffHandler.RecordServiceInstance)
			staff.GET("/service-instances/:id", staffHandler.GetServiceInstance)
			staff.PATCH("/service-instances/:id/costs", writeLimit, staffHandler.UpdateServiceCosts)
			staff.GET("/service-instances/:id/quote", staffHandler.QuoteServiceInstance)
			staff.POST("/service-instances/:id/rating", RateLimitMiddleware(redisClient, ratingRule, KeyByAccountAndParam("id")), staffHandler.RateServiceInstance)

			staff.GET("/invoices", staffHandler.ListInvoices)
			staff.POST("/invoices", writeLimit, staffHandler.ComposeInvoice)
			staff.GET("/invoices/:id", staffHandler.GetInvoice)
			staff.POST("/invoices/:id/items", writeLimit, staffHandler.AppendInvoiceItems)
			staff.POST("/invoices/:id/pay", writeLimit, staffHandler.PayInvoice)
			staff.POST("/invoices/:id/cancel", writeLimit, staffHandler.CancelInvoice)
		}

		// 后台接口
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(secret, issuer, constants.RoleAdmin), RoleRBACMiddleware(c.AuthzService))
		{
			// 服务目录
			admin.GET("/service-types", adminHandler.ListServiceTypes)
			admin.PUT("/service-types/:code", adminHandler.UpsertServiceType)
			admin.GET("/vaccines", adminHandler.ListVaccines)
			admin.POST("/vaccines", adminHandler.CreateVaccine)
			admin.GET("/vaccine-packages", adminHandler.ListVaccinePackages)
			admin.POST("/vaccine-packages", adminHandler.CreateVaccinePackage)

			// 零售商品
			admin.GET("/products", adminHandler.GetAdminProducts)
			admin.GET("/products/:id", adminHandler.GetAdminProduct)
			admin.POST("/products", adminHandler.CreateProduct)
			admin.PUT("/products/:id", adminHandler.UpdateProduct)

			// 分店活动
			admin.GET("/promotions", adminHandler.GetAdminPromotions)
			admin.GET("/promotions/:id", adminHandler.GetPromotion)
			admin.POST("/promotions", adminHandler.CreatePromotion)
			admin.PUT("/promotions/:id", adminHandler.UpdatePromotion)
			admin.DELETE("/promotions/:id", adminHandler.DeletePromotion)

			// 账单与积分
			admin.GET("/invoices", adminHandler.GetAdminInvoices)
			admin.GET("/invoices/:id", adminHandler.GetAdminInvoice)
			admin.POST("/invoices/:id/recompute", adminHandler.RecomputeInvoice)
			admin.POST("/customers/:id/loyalty/recompute", adminHandler.RecomputeCustomerLoyalty)

			// 权限管理
			admin.GET("/authz/me", adminHandler.GetAuthzMe)
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.GET("/authz/audit-logs", adminHandler.ListAuthzAuditLogs)
			admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
			admin.POST("/authz/roles", adminHandler.CreateAuthzRole)
			admin.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") && !strings.HasPrefix(item.Path, "/api/v1/staff/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" && segments[0] != "staff" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
