package provider

import (
	"github.com/revendahub/revendahub/internal/authz"
	"github.com/revendahub/revendahub/internal/cache"
	"github.com/revendahub/revendahub/internal/config"
	"github.com/revendahub/revendahub/internal/integration/bling"
	"github.com/revendahub/revendahub/internal/logger"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/queue"
	"github.com/revendahub/revendahub/internal/repository"
	"github.com/revendahub/revendahub/internal/service"
)

// Container dependency injection container
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	BlingClient *bling.Client

	// Repositories
	AdminRepo           repository.AdminRepository
	UserRepo            repository.UserRepository
	BillingCompanyRepo  repository.BillingCompanyRepository
	PaymentGatewayRepo  repository.PaymentGatewayRepository
	OrderRepo           repository.OrderRepository
	CartRepo            repository.AbandonedCartRepository
	IntegrationRepo     repository.IntegrationRepository
	WebhookEndpointRepo repository.WebhookEndpointRepository
	SettingRepo         repository.SettingRepository
	DashboardRepo       repository.DashboardRepository

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	CaptchaService     *service.CaptchaService
	BillingService     *service.BillingService
	TokenService       *service.TokenService
	WebhookService     *service.WebhookService
	OrderService       *service.OrderService
	PaymentService     *service.PaymentService
	CartService        *service.CartService
	IntegrationService *service.IntegrationService
	FiscalService      *service.FiscalService
	DashboardService   *service.DashboardService
}

// NewContainer builds the container
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

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
		BlingClient: bling.NewClient(cfg.Bling.TokenURL, cfg.Bling.APIURL),
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.BillingCompanyRepo = repository.NewBillingCompanyRepository(db)
	c.PaymentGatewayRepo = repository.NewPaymentGatewayRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CartRepo = repository.NewAbandonedCartRepository(db)
	c.IntegrationRepo = repository.NewIntegrationRepository(db)
	c.WebhookEndpointRepo = repository.NewWebhookEndpointRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
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

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.BillingService = service.NewBillingService(c.BillingCompanyRepo, c.PaymentGatewayRepo)
	c.TokenService = service.NewTokenService(c.BillingCompanyRepo, c.PaymentGatewayRepo, c.BlingClient, c.Config.Sweep.TokenRefreshWindowMinutes)
	c.WebhookService = service.NewWebhookService(c.WebhookEndpointRepo, c.QueueClient, c.Config.Webhook.TimeoutMS)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.WebhookService)
	c.PaymentService = service.NewPaymentService(c.Config, c.BillingService, c.TokenService, c.OrderRepo, c.WebhookService)
	c.CartService = service.NewCartService(c.CartRepo, c.QueueClient, c.WebhookService)
	c.IntegrationService = service.NewIntegrationService(c.IntegrationRepo)
	c.FiscalService = service.NewFiscalService(c.OrderRepo, c.BillingCompanyRepo, c.TokenService, c.BlingClient, c.Config.Bling.DanfeDir)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo)
}
