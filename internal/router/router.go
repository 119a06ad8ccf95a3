package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/revendahub/revendahub/internal/authz"
	"github.com/revendahub/revendahub/internal/cache"
	"github.com/revendahub/revendahub/internal/config"
	adminhandlers "github.com/revendahub/revendahub/internal/http/handlers/admin"
	publichandlers "github.com/revendahub/revendahub/internal/http/handlers/public"
	"github.com/revendahub/revendahub/internal/http/response"
	"github.com/revendahub/revendahub/internal/logger"
	"github.com/revendahub/revendahub/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter builds the gin engine with all middleware and routes.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "rvd"
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many checkout attempts",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// Storefront endpoints, no auth.
		public := apiV1.Group("/public")
		{
			public.GET("/gateway-options", publicHandler.GetGatewayOptions)
			public.POST("/payments", RateLimitMiddleware(redisClient, checkoutRule, KeyByIPAndJSONField("customer_email")), publicHandler.CreatePayment)
			public.GET("/payments/:order_no/status", publicHandler.GetPaymentStatus)
			public.POST("/callbacks/ipag", publicHandler.IpagCallback)
		}

		admin := apiV1.Group("/admin")
		{
			admin.GET("/captcha", adminHandler.GetCaptcha)
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.Login)

			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/dashboard/overview", adminHandler.GetDashboard)
				authorized.PUT("/password", adminHandler.UpdatePassword)

				authorized.GET("/billing-companies", adminHandler.ListBillingCompanies)
				authorized.GET("/billing-companies/:id", adminHandler.GetBillingCompany)
				authorized.POST("/billing-companies", adminHandler.CreateBillingCompany)
				authorized.PUT("/billing-companies/:id", adminHandler.UpdateBillingCompany)
				authorized.DELETE("/billing-companies/:id", adminHandler.DeleteBillingCompany)

				authorized.GET("/gateways", adminHandler.ListGateways)
				authorized.GET("/gateways/:id", adminHandler.GetGateway)
				authorized.POST("/gateways", adminHandler.CreateGateway)
				authorized.PUT("/gateways/:id", adminHandler.UpdateGateway)
				authorized.DELETE("/gateways/:id", adminHandler.DeleteGateway)

				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.POST("/orders/cleanup-duplicates", adminHandler.CleanupDuplicateOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.PUT("/orders/:id/status", adminHandler.UpdateOrderStatus)
				authorized.PUT("/orders/:id/tracking", adminHandler.UpdateOrderTracking)
				authorized.GET("/orders/:id/danfe", adminHandler.DownloadOrderDanfe)

				authorized.GET("/users", adminHandler.ListUsers)
				authorized.GET("/users/:id", adminHandler.GetUser)
				authorized.POST("/users", adminHandler.CreateUser)
				authorized.PUT("/users/:id", adminHandler.UpdateUser)
				authorized.DELETE("/users/:id", adminHandler.DeleteUser)

				authorized.GET("/carts", adminHandler.ListCarts)
				authorized.GET("/carts/:id", adminHandler.GetCart)
				authorized.POST("/carts/:id/recover", adminHandler.TriggerCartRecovery)
				authorized.POST("/carts/:id/expire", adminHandler.MarkCartExpired)

				authorized.GET("/integrations", adminHandler.ListIntegrations)
				authorized.GET("/integrations/:type", adminHandler.GetIntegration)
				authorized.PUT("/integrations/:type", adminHandler.SaveIntegration)
				authorized.POST("/integrations/:type/test", adminHandler.TestIntegration)
				authorized.DELETE("/integrations/:type", adminHandler.DeleteIntegration)

				authorized.GET("/webhook-endpoints", adminHandler.ListWebhookEndpoints)
				authorized.POST("/webhook-endpoints", adminHandler.CreateWebhookEndpoint)
				authorized.PUT("/webhook-endpoints/:id", adminHandler.UpdateWebhookEndpoint)
				authorized.DELETE("/webhook-endpoints/:id", adminHandler.DeleteWebhookEndpoint)

				authorized.GET("/settings/:key", adminHandler.GetSetting)
				authorized.PUT("/settings/:key", adminHandler.UpdateSetting)

				authorized.POST("/sweeps/tokens", adminHandler.TriggerTokenSweep)
				authorized.POST("/sweeps/orders", adminHandler.TriggerOrderPoll)

				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

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
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" || item.Path == "/api/v1/admin/captcha" {
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
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
