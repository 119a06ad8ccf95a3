package main

import (
	"fmt"
	"time"

	"github.com/revendahub/revendahub/internal/config"
	"github.com/revendahub/revendahub/internal/constants"
	"github.com/revendahub/revendahub/internal/logger"
	"github.com/revendahub/revendahub/internal/models"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	companies := []models.BillingCompany{
		{
			Name:      "RevendaHub Matriz LTDA",
			CNPJ:      "12.345.678/0001-90",
			States:    models.StringArray{"SP", "RJ", "MG", "ES"},
			IsDefault: true,
			IsActive:  true,
			BlingJSON: models.JSON{
				"client_id":     "demo-bling-client",
				"client_secret": "demo-bling-secret",
			},
		},
		{
			Name:     "RevendaHub Sul LTDA",
			CNPJ:     "98.765.432/0001-10",
			States:   models.StringArray{"PR", "SC", "RS"},
			IsActive: true,
		},
	}

	companyIDs := map[string]uint{}
	for _, company := range companies {
		var existing models.BillingCompany
		if err := models.DB.Where("cnpj = ?", company.CNPJ).First(&existing).Error; err != nil {
			if err := models.DB.Create(&company).Error; err != nil {
				stdLog.Printf("Failed to create billing company %s: %v", company.Name, err)
				continue
			}
			stdLog.Printf("Created billing company: %s", company.Name)
			companyIDs[company.CNPJ] = company.ID
			continue
		}
		stdLog.Printf("Billing company already exists: %s", existing.Name)
		companyIDs[existing.CNPJ] = existing.ID
	}

	gateways := []models.PaymentGateway{
		{
			CompanyID:        companyIDs["12.345.678/0001-90"],
			Name:             "iPag Matriz",
			GatewayType:      constants.GatewayTypeIpag,
			SupportedMethods: models.StringArray{constants.PaymentMethodCreditCard, constants.PaymentMethodPix},
			Priority:         10,
			IsActive:         true,
			Sandbox:          true,
			CredentialsJSON: models.JSON{
				"api_id":  "demo-ipag-id",
				"api_key": "demo-ipag-key",
			},
		},
		{
			CompanyID:        companyIDs["12.345.678/0001-90"],
			Name:             "Mercado Pago Matriz",
			GatewayType:      constants.GatewayTypeMercadoPago,
			SupportedMethods: models.StringArray{constants.PaymentMethodPix},
			Priority:         5,
			IsActive:         true,
			Sandbox:          true,
			CredentialsJSON: models.JSON{
				"access_token": "TEST-demo-mp-token",
			},
		},
		{
			CompanyID:        companyIDs["98.765.432/0001-10"],
			Name:             "iPag Sul",
			GatewayType:      constants.GatewayTypeIpag,
			SupportedMethods: models.StringArray{constants.PaymentMethodCreditCard, constants.PaymentMethodPix},
			Priority:         10,
			IsActive:         true,
			Sandbox:          true,
			CredentialsJSON: models.JSON{
				"api_id":  "demo-ipag-sul-id",
				"api_key": "demo-ipag-sul-key",
			},
		},
	}

	for _, gateway := range gateways {
		if gateway.CompanyID == 0 {
			continue
		}
		var existing models.PaymentGateway
		if err := models.DB.Where("company_id = ? AND name = ?", gateway.CompanyID, gateway.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&gateway).Error; err != nil {
				stdLog.Printf("Failed to create gateway %s: %v", gateway.Name, err)
				continue
			}
			stdLog.Printf("Created gateway: %s", gateway.Name)
			continue
		}
		stdLog.Printf("Gateway already exists: %s", existing.Name)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("customer123"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}

	users := []models.User{
		{
			Name:         "Maria Souza",
			Email:        "maria@example.com",
			Phone:        "+55 11 98888-0001",
			CPF:          "123.456.789-00",
			State:        "SP",
			PasswordHash: string(hash),
			IsActive:     true,
		},
		{
			Name:         "João Pereira",
			Email:        "joao@example.com",
			Phone:        "+55 41 97777-0002",
			CPF:          "987.654.321-00",
			State:        "PR",
			PasswordHash: string(hash),
			IsActive:     true,
		},
	}

	userIDs := map[string]uint{}
	for _, user := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", user.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("Failed to create user %s: %v", user.Email, err)
				continue
			}
			stdLog.Printf("Created user: %s", user.Email)
			userIDs[user.Email] = user.ID
			continue
		}
		stdLog.Printf("User already exists: %s", existing.Email)
		userIDs[existing.Email] = existing.ID
	}

	paidAt := time.Now().Add(-48 * time.Hour)
	orders := []models.Order{
		{
			OrderNo:       fmt.Sprintf("RVD-%d-0001", time.Now().Year()),
			UserID:        userIDs["maria@example.com"],
			Status:        constants.OrderStatusPaid,
			PaymentMethod: constants.PaymentMethodPix,
			Total:         models.NewMoneyFromCents(24990),
			CompanyID:     companyIDs["12.345.678/0001-90"],
			TransactionID: "demo-tid-0001",
			PaidAt:        &paidAt,
			DetailsJSON: models.JSON{
				"customer_name":  "Maria Souza",
				"customer_email": "maria@example.com",
			},
		},
		{
			OrderNo:       fmt.Sprintf("RVD-%d-0002", time.Now().Year()),
			UserID:        userIDs["joao@example.com"],
			Status:        constants.OrderStatusPending,
			PaymentMethod: constants.PaymentMethodCreditCard,
			Installments:  3,
			Total:         models.NewMoneyFromCents(89900),
			CompanyID:     companyIDs["98.765.432/0001-10"],
			DetailsJSON: models.JSON{
				"customer_name":  "João Pereira",
				"customer_email": "joao@example.com",
			},
		},
	}

	for _, order := range orders {
		var existing models.Order
		if err := models.DB.Where("order_no = ?", order.OrderNo).First(&existing).Error; err != nil {
			if err := models.DB.Create(&order).Error; err != nil {
				stdLog.Printf("Failed to create order %s: %v", order.OrderNo, err)
				continue
			}
			stdLog.Printf("Created order: %s", order.OrderNo)
			continue
		}
		stdLog.Printf("Order already exists: %s", existing.OrderNo)
	}

	cart := models.AbandonedCart{
		UserID: userIDs["joao@example.com"],
		Status: constants.CartStatusAbandoned,
		ItemsJSON: models.JSON{
			"items": []map[string]interface{}{
				{"sku": "KIT-REVENDA-01", "qty": 2, "unit_price": "149.90"},
			},
		},
	}
	var existingCart models.AbandonedCart
	if err := models.DB.Where("user_id = ? AND status = ?", cart.UserID, cart.Status).First(&existingCart).Error; err != nil {
		if err := models.DB.Create(&cart).Error; err != nil {
			stdLog.Printf("Failed to create abandoned cart: %v", err)
		} else {
			stdLog.Printf("Created abandoned cart for user %d", cart.UserID)
		}
	} else {
		stdLog.Printf("Abandoned cart already exists for user %d", existingCart.UserID)
	}

	endpoint := models.WebhookEndpoint{
		Name:         "n8n demo flow",
		URL:          "http://localhost:5678/webhook/revendahub",
		SecretHeader: "demo-webhook-secret",
		Events: models.StringArray{
			constants.WebhookEventOrderCreated,
			constants.WebhookEventOrderPaid,
			constants.WebhookEventCartRecovery,
		},
		IsActive: true,
	}
	var existingEndpoint models.WebhookEndpoint
	if err := models.DB.Where("url = ?", endpoint.URL).First(&existingEndpoint).Error; err != nil {
		if err := models.DB.Create(&endpoint).Error; err != nil {
			stdLog.Printf("Failed to create webhook endpoint: %v", err)
		} else {
			stdLog.Printf("Created webhook endpoint: %s", endpoint.Name)
		}
	} else {
		stdLog.Printf("Webhook endpoint already exists: %s", existingEndpoint.Name)
	}

	stdLog.Printf("Seed finished")
}
