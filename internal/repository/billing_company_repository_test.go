package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/revendahub/revendahub/internal/constants"
	"github.com/revendahub/revendahub/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCompanyRepositoryTest(t *testing.T) (*GormBillingCompanyRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:company_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.BillingCompany{},
		&models.PaymentGateway{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewBillingCompanyRepository(db), db
}

func TestBillingCompanyRepositoryListActiveOrdersByID(t *testing.T) {
	repo, db := setupCompanyRepositoryTest(t)

	companies := []models.BillingCompany{
		{Name: "Matriz SP", CNPJ: "11111111000111", States: models.StringArray{"SP"}, IsActive: true},
		{Name: "Filial Sul", CNPJ: "22222222000122", States: models.StringArray{"RS", "SC", "PR"}, IsActive: true},
		{Name: "Desativada", CNPJ: "33333333000133", States: models.StringArray{"RJ"}, IsActive: false},
	}
	for i := range companies {
		if err := db.Create(&companies[i]).Error; err != nil {
			t.Fatalf("create company failed: %v", err)
		}
	}

	active, err := repo.ListActive()
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active companies, got %d", len(active))
	}
	if active[0].Name != "Matriz SP" || active[1].Name != "Filial Sul" {
		t.Fatalf("unexpected order: %s, %s", active[0].Name, active[1].Name)
	}
}

func TestBillingCompanyRepositoryGetDefault(t *testing.T) {
	repo, db := setupCompanyRepositoryTest(t)

	inactive := models.BillingCompany{Name: "Padrão Inativa", CNPJ: "1", IsDefault: true, IsActive: false}
	fallback := models.BillingCompany{Name: "Padrão", CNPJ: "2", IsDefault: true, IsActive: true}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}
	if err := db.Create(&fallback).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}

	company, err := repo.GetDefault()
	if err != nil {
		t.Fatalf("GetDefault failed: %v", err)
	}
	if company == nil || company.Name != "Padrão" {
		t.Fatalf("expected active default company, got %+v", company)
	}
}

func TestBillingCompanyRepositoryListFiltersByState(t *testing.T) {
	repo, db := setupCompanyRepositoryTest(t)

	companies := []models.BillingCompany{
		{Name: "Sudeste", CNPJ: "1", States: models.StringArray{"SP", "MG"}, IsActive: true},
		{Name: "Sul", CNPJ: "2", States: models.StringArray{"RS"}, IsActive: true},
	}
	for i := range companies {
		if err := db.Create(&companies[i]).Error; err != nil {
			t.Fatalf("create company failed: %v", err)
		}
	}

	rows, total, err := repo.List(BillingCompanyListFilter{Page: 1, PageSize: 10, State: "MG"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Name != "Sudeste" {
		t.Fatalf("unexpected result: total=%d rows=%d", total, len(rows))
	}
}

func TestBillingCompanyRepositoryCreateKeepsInactiveFlag(t *testing.T) {
	repo, db := setupCompanyRepositoryTest(t)

	company := models.BillingCompany{Name: "Desativada", CNPJ: "44444444000144", IsActive: false}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}
	gateway := models.PaymentGateway{CompanyID: company.ID, Name: "Desligado", GatewayType: constants.GatewayTypeIpag, IsActive: false}
	if err := db.Create(&gateway).Error; err != nil {
		t.Fatalf("create gateway failed: %v", err)
	}

	stored, err := repo.GetByID(company.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored == nil || stored.IsActive {
		t.Fatalf("inactive company should persist as inactive, got %+v", stored)
	}

	var storedGateway models.PaymentGateway
	if err := db.First(&storedGateway, gateway.ID).Error; err != nil {
		t.Fatalf("load gateway failed: %v", err)
	}
	if storedGateway.IsActive {
		t.Fatalf("inactive gateway should persist as inactive")
	}
}

func TestPaymentGatewayRepositoryListFiltersByMethod(t *testing.T) {
	_, db := setupCompanyRepositoryTest(t)
	gatewayRepo := NewPaymentGatewayRepository(db)

	company := models.BillingCompany{Name: "Matriz", CNPJ: "1", IsActive: true}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}
	gateways := []models.PaymentGateway{
		{CompanyID: company.ID, Name: "Cartão", GatewayType: constants.GatewayTypeIpag, SupportedMethods: models.StringArray{"credit_card"}, IsActive: true},
		{CompanyID: company.ID, Name: "Pix", GatewayType: constants.GatewayTypeMercadoPago, SupportedMethods: models.StringArray{"pix"}, IsActive: true},
	}
	for i := range gateways {
		if err := db.Create(&gateways[i]).Error; err != nil {
			t.Fatalf("create gateway failed: %v", err)
		}
	}

	rows, total, err := gatewayRepo.List(PaymentGatewayListFilter{Page: 1, PageSize: 10, Method: "pix"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Name != "Pix" {
		t.Fatalf("unexpected result: total=%d rows=%d", total, len(rows))
	}
}

func TestBillingCompanyRepositoryGetByIDMissingReturnsNil(t *testing.T) {
	repo, _ := setupCompanyRepositoryTest(t)

	company, err := repo.GetByID(999)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if company != nil {
		t.Fatalf("expected nil for missing company, got %+v", company)
	}
}

func TestPaymentGatewayRepositoryListByCompanyPriorityOrder(t *testing.T) {
	_, db := setupCompanyRepositoryTest(t)
	gatewayRepo := NewPaymentGatewayRepository(db)

	company := models.BillingCompany{Name: "Matriz", CNPJ: "1", IsActive: true}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}
	gateways := []models.PaymentGateway{
		{CompanyID: company.ID, Name: "iPag Principal", GatewayType: constants.GatewayTypeIpag, SupportedMethods: models.StringArray{"credit_card", "pix"}, Priority: 10, IsActive: true},
		{CompanyID: company.ID, Name: "MP Reserva", GatewayType: constants.GatewayTypeMercadoPago, SupportedMethods: models.StringArray{"pix"}, Priority: 5, IsActive: true},
		{CompanyID: company.ID, Name: "Desligado", GatewayType: constants.GatewayTypeStripe, SupportedMethods: models.StringArray{"credit_card"}, Priority: 20, IsActive: false},
	}
	for i := range gateways {
		if err := db.Create(&gateways[i]).Error; err != nil {
			t.Fatalf("create gateway failed: %v", err)
		}
	}

	rows, err := gatewayRepo.ListByCompany(company.ID, true)
	if err != nil {
		t.Fatalf("ListByCompany failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 active gateways, got %d", len(rows))
	}
	if rows[0].Name != "iPag Principal" || rows[1].Name != "MP Reserva" {
		t.Fatalf("unexpected priority order: %s, %s", rows[0].Name, rows[1].Name)
	}
}
