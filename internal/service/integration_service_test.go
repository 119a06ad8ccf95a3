package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/revendahub/revendahub/internal/constants"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupIntegrationServiceTest(t *testing.T) *IntegrationService {
	t.Helper()
	dsn := fmt.Sprintf("file:integration_svc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Integration{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewIntegrationService(repository.NewIntegrationRepository(db))
}

func TestIntegrationServiceSaveMasksSecrets(t *testing.T) {
	svc := setupIntegrationServiceTest(t)

	view, err := svc.Save(constants.IntegrationTypeWooCommerce, map[string]interface{}{
		"store_url":       "https://loja.example.com",
		"consumer_key":    "ck_abc123",
		"consumer_secret": "cs_supersecret9876",
	}, true)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secret, _ := view.Credentials["consumer_secret"].(string)
	if secret != "••••9876" {
		t.Fatalf("expected masked secret, got %q", secret)
	}
	if key, _ := view.Credentials["consumer_key"].(string); key != "ck_abc123" {
		t.Fatalf("consumer_key should not be masked, got %q", key)
	}
}

func TestIntegrationServiceSaveKeepsSecretWhenMaskedValueResubmitted(t *testing.T) {
	svc := setupIntegrationServiceTest(t)

	if _, err := svc.Save(constants.IntegrationTypeSMTP, map[string]interface{}{
		"host":     "smtp.example.com",
		"port":     "587",
		"username": "mailer",
		"password": "original-password",
	}, true); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	// simulate the admin panel sending back the masked projection unchanged
	view, err := svc.Save(constants.IntegrationTypeSMTP, map[string]interface{}{
		"host":     "smtp2.example.com",
		"port":     "587",
		"username": "mailer",
		"password": "••••word",
	}, true)
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if host, _ := view.Credentials["host"].(string); host != "smtp2.example.com" {
		t.Fatalf("host should update, got %q", host)
	}

	stored, err := svc.integrationRepo.GetByType(constants.IntegrationTypeSMTP)
	if err != nil || stored == nil {
		t.Fatalf("GetByType failed: %v", err)
	}
	if stored.CredentialsJSON["password"] != "original-password" {
		t.Fatalf("stored password changed: %v", stored.CredentialsJSON["password"])
	}
}

func TestIntegrationServiceSaveRejectsMissingRequiredField(t *testing.T) {
	svc := setupIntegrationServiceTest(t)

	_, err := svc.Save(constants.IntegrationTypeBling, map[string]interface{}{
		"client_id": "bling-client",
	}, true)
	if !errors.Is(err, ErrIntegrationIncomplete) {
		t.Fatalf("expected ErrIntegrationIncomplete, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "client_secret") {
		t.Fatalf("error should name the missing field, got %v", err)
	}
}

func TestIntegrationServiceSaveRejectsUnknownType(t *testing.T) {
	svc := setupIntegrationServiceTest(t)

	if _, err := svc.Save("telegram", map[string]interface{}{"token": "x"}, true); !errors.Is(err, ErrIntegrationUnknown) {
		t.Fatalf("expected ErrIntegrationUnknown, got %v", err)
	}
}

func TestIntegrationServiceTestWooCommerceRecordsOutcome(t *testing.T) {
	svc := setupIntegrationServiceTest(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/wp-json/wc/v3/products") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	if _, err := svc.Save(constants.IntegrationTypeWooCommerce, map[string]interface{}{
		"store_url":       srv.URL,
		"consumer_key":    "ck_abc",
		"consumer_secret": "cs_def",
	}, true); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ok, err := svc.Test(context.Background(), constants.IntegrationTypeWooCommerce)
	if err != nil || !ok {
		t.Fatalf("Test should pass: ok=%v err=%v", ok, err)
	}

	stored, err := svc.integrationRepo.GetByType(constants.IntegrationTypeWooCommerce)
	if err != nil || stored == nil {
		t.Fatalf("GetByType failed: %v", err)
	}
	if !stored.LastTestOK || stored.LastTestAt == nil {
		t.Fatalf("test outcome not recorded: ok=%v at=%v", stored.LastTestOK, stored.LastTestAt)
	}
}

func TestIntegrationServiceTestBlingWithoutTokensFails(t *testing.T) {
	svc := setupIntegrationServiceTest(t)

	if _, err := svc.Save(constants.IntegrationTypeBling, map[string]interface{}{
		"client_id":     "bling-client",
		"client_secret": "bling-secret",
	}, true); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ok, err := svc.Test(context.Background(), constants.IntegrationTypeBling)
	if ok || !errors.Is(err, ErrIntegrationIncomplete) {
		t.Fatalf("expected incomplete error, got ok=%v err=%v", ok, err)
	}

	stored, _ := svc.integrationRepo.GetByType(constants.IntegrationTypeBling)
	if stored.LastTestOK {
		t.Fatalf("failed test should record ok=false")
	}
}
