package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/revendahub/revendahub/internal/constants"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupBillingServiceTest(t *testing.T) (*BillingService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:billing_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.BillingCompany{}, &models.PaymentGateway{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewBillingService(
		repository.NewBillingCompanyRepository(db),
		repository.NewPaymentGatewayRepository(db),
	)
	return svc, db
}

func seedCompany(t *testing.T, db *gorm.DB, company models.BillingCompany) models.BillingCompany {
	t.Helper()
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}
	return company
}

func seedGateway(t *testing.T, db *gorm.DB, gateway models.PaymentGateway) models.PaymentGateway {
	t.Helper()
	if err := db.Create(&gateway).Error; err != nil {
		t.Fatalf("create gateway failed: %v", err)
	}
	return gateway
}

func TestResolveForStateFirstMatchWins(t *testing.T) {
	svc, db := setupBillingServiceTest(t)

	first := seedCompany(t, db, models.BillingCompany{Name: "Sudeste A", CNPJ: "1", States: models.StringArray{"SP", "RJ"}, IsActive: true})
	seedCompany(t, db, models.BillingCompany{Name: "Sudeste B", CNPJ: "2", States: models.StringArray{"SP"}, IsActive: true})

	company, err := svc.ResolveForState("sp")
	if err != nil {
		t.Fatalf("ResolveForState failed: %v", err)
	}
	if company == nil || company.ID != first.ID {
		t.Fatalf("expected first matching company, got %+v", company)
	}
}

func TestResolveForStateFallsBackToDefault(t *testing.T) {
	svc, db := setupBillingServiceTest(t)

	seedCompany(t, db, models.BillingCompany{Name: "Sul", CNPJ: "1", States: models.StringArray{"RS"}, IsActive: true})
	fallback := seedCompany(t, db, models.BillingCompany{Name: "Matriz", CNPJ: "2", States: models.StringArray{"SP"}, IsDefault: true, IsActive: true})

	company, err := svc.ResolveForState("AM")
	if err != nil {
		t.Fatalf("ResolveForState failed: %v", err)
	}
	if company == nil || company.ID != fallback.ID {
		t.Fatalf("expected default company, got %+v", company)
	}
}

func TestResolveForStateIgnoresInactive(t *testing.T) {
	svc, db := setupBillingServiceTest(t)

	seedCompany(t, db, models.BillingCompany{Name: "Desativada", CNPJ: "1", States: models.StringArray{"SP"}, IsDefault: true, IsActive: false})

	company, err := svc.ResolveForState("SP")
	if err != nil {
		t.Fatalf("ResolveForState failed: %v", err)
	}
	if company != nil {
		t.Fatalf("expected nil company, got %+v", company)
	}
}

func TestGatewayOptionsPicksHighestPriorityPerMethod(t *testing.T) {
	svc, db := setupBillingServiceTest(t)

	company := seedCompany(t, db, models.BillingCompany{Name: "Matriz", CNPJ: "1", IsActive: true})
	ipag := seedGateway(t, db, models.PaymentGateway{
		CompanyID:        company.ID,
		Name:             "iPag",
		GatewayType:      constants.GatewayTypeIpag,
		SupportedMethods: models.StringArray{constants.PaymentMethodCreditCard, constants.PaymentMethodPix},
		Priority:         10,
		IsActive:         true,
	})
	mp := seedGateway(t, db, models.PaymentGateway{
		CompanyID:        company.ID,
		Name:             "Mercado Pago",
		GatewayType:      constants.GatewayTypeMercadoPago,
		SupportedMethods: models.StringArray{constants.PaymentMethodPix},
		Priority:         20,
		IsActive:         true,
	})

	options, err := svc.GatewayOptions(&company)
	if err != nil {
		t.Fatalf("GatewayOptions failed: %v", err)
	}
	byMethod := make(map[string]uint, len(options))
	for _, option := range options {
		byMethod[option.Method] = option.Gateway.ID
	}
	if byMethod[constants.PaymentMethodPix] != mp.ID {
		t.Fatalf("pix should map to the higher-priority gateway")
	}
	if byMethod[constants.PaymentMethodCreditCard] != ipag.ID {
		t.Fatalf("credit_card should map to the ipag gateway")
	}
}

func TestSelectGatewayNoMethodMatch(t *testing.T) {
	svc, db := setupBillingServiceTest(t)

	company := seedCompany(t, db, models.BillingCompany{Name: "Matriz", CNPJ: "1", IsActive: true})
	seedGateway(t, db, models.PaymentGateway{
		CompanyID:        company.ID,
		Name:             "Só PIX",
		GatewayType:      constants.GatewayTypeMercadoPago,
		SupportedMethods: models.StringArray{constants.PaymentMethodPix},
		Priority:         1,
		IsActive:         true,
	})

	_, err := svc.SelectGateway(company.ID, constants.PaymentMethodCreditCard)
	if !errors.Is(err, ErrNoGatewayForMethod) {
		t.Fatalf("expected ErrNoGatewayForMethod, got %v", err)
	}
}
