package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/revendahub/revendahub/internal/integration/bling"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTokenServiceTest(t *testing.T, tokenURL string, sweepWindowMinutes int) (*TokenService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:token_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.BillingCompany{}, &models.PaymentGateway{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewTokenService(
		repository.NewBillingCompanyRepository(db),
		repository.NewPaymentGatewayRepository(db),
		bling.NewClient(tokenURL, ""),
		sweepWindowMinutes,
	)
	return svc, db
}

func blingBlob(t *testing.T, refreshToken string, expiresAt time.Time) models.JSON {
	t.Helper()
	return models.JSON{
		"client_id":        "cid",
		"client_secret":    "cs",
		"access_token":     "stale-token",
		"refresh_token":    refreshToken,
		"token_expires_at": expiresAt.Unix(),
	}
}

func TestBlingAccessTokenRefreshesNearExpiry(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "fresh-token",
			"refresh_token": "fresh-rt",
			"expires_in":    21600,
		})
	}))
	defer server.Close()

	svc, db := setupTokenServiceTest(t, server.URL, 60)
	company := models.BillingCompany{
		Name:      "Matriz",
		CNPJ:      "1",
		IsActive:  true,
		BlingJSON: blingBlob(t, "rt", time.Now().Add(3*time.Minute)),
	}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}

	token, err := svc.BlingAccessToken(context.Background(), &company)
	if err != nil {
		t.Fatalf("BlingAccessToken failed: %v", err)
	}
	if token != "fresh-token" {
		t.Fatalf("token = %q", token)
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("expected exactly one refresh call, got %d", got)
	}

	var reloaded models.BillingCompany
	if err := db.First(&reloaded, company.ID).Error; err != nil {
		t.Fatalf("reload company failed: %v", err)
	}
	creds, err := bling.ParseCredentials(reloaded.BlingJSON)
	if err != nil {
		t.Fatalf("parse persisted credentials failed: %v", err)
	}
	if creds.AccessToken != "fresh-token" || creds.RefreshToken != "fresh-rt" {
		t.Fatalf("persisted credentials not updated: %+v", creds)
	}
	if time.Unix(creds.TokenExpiresAt, 0).Before(time.Now().Add(5 * time.Hour)) {
		t.Fatalf("expiry should be about six hours out, got %d", creds.TokenExpiresAt)
	}
}

func TestBlingAccessTokenRefreshKeepsUnrelatedBlobKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "fresh-token",
			"refresh_token": "fresh-rt",
			"expires_in":    21600,
		})
	}))
	defer server.Close()

	svc, db := setupTokenServiceTest(t, server.URL, 60)
	blob := blingBlob(t, "rt", time.Now().Add(3*time.Minute))
	blob["store_id"] = "loja-42"
	company := models.BillingCompany{
		Name:      "Matriz",
		CNPJ:      "1",
		IsActive:  true,
		BlingJSON: blob,
	}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}

	if _, err := svc.BlingAccessToken(context.Background(), &company); err != nil {
		t.Fatalf("BlingAccessToken failed: %v", err)
	}

	var reloaded models.BillingCompany
	if err := db.First(&reloaded, company.ID).Error; err != nil {
		t.Fatalf("reload company failed: %v", err)
	}
	if reloaded.BlingJSON["store_id"] != "loja-42" {
		t.Fatalf("refresh must not drop unrelated keys, blob = %v", reloaded.BlingJSON)
	}
	creds, err := bling.ParseCredentials(reloaded.BlingJSON)
	if err != nil {
		t.Fatalf("parse persisted credentials failed: %v", err)
	}
	if creds.AccessToken != "fresh-token" {
		t.Fatalf("refreshed token not persisted, got %q", creds.AccessToken)
	}
}

func TestBlingAccessTokenSkipsRefreshWhenFresh(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer server.Close()

	svc, db := setupTokenServiceTest(t, server.URL, 60)
	company := models.BillingCompany{
		Name:      "Matriz",
		CNPJ:      "1",
		IsActive:  true,
		BlingJSON: blingBlob(t, "rt", time.Now().Add(2*time.Hour)),
	}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}

	token, err := svc.BlingAccessToken(context.Background(), &company)
	if err != nil {
		t.Fatalf("BlingAccessToken failed: %v", err)
	}
	if token != "stale-token" {
		t.Fatalf("token = %q", token)
	}
	if got := atomic.LoadInt64(&calls); got != 0 {
		t.Fatalf("fresh token must not trigger a refresh, got %d calls", got)
	}
}

func TestBlingAccessTokenMissingRefreshTokenNoCalls(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer server.Close()

	svc, db := setupTokenServiceTest(t, server.URL, 60)
	company := models.BillingCompany{
		Name:     "Matriz",
		CNPJ:     "1",
		IsActive: true,
		BlingJSON: models.JSON{
			"client_id":     "cid",
			"client_secret": "cs",
		},
	}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}

	_, err := svc.BlingAccessToken(context.Background(), &company)
	if !errors.Is(err, ErrTokenIncomplete) {
		t.Fatalf("expected ErrTokenIncomplete, got %v", err)
	}
	if got := atomic.LoadInt64(&calls); got != 0 {
		t.Fatalf("incomplete credentials must not reach the network, got %d calls", got)
	}
}

func TestBlingAccessTokenRefreshFailureKeepsStaleBlob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc, db := setupTokenServiceTest(t, server.URL, 60)
	company := models.BillingCompany{
		Name:      "Matriz",
		CNPJ:      "1",
		IsActive:  true,
		BlingJSON: blingBlob(t, "rt", time.Now().Add(1*time.Minute)),
	}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}

	_, err := svc.BlingAccessToken(context.Background(), &company)
	if !errors.Is(err, bling.ErrRequestFailed) {
		t.Fatalf("expected provider error, got %v", err)
	}

	var reloaded models.BillingCompany
	if err := db.First(&reloaded, company.ID).Error; err != nil {
		t.Fatalf("reload company failed: %v", err)
	}
	creds, err := bling.ParseCredentials(reloaded.BlingJSON)
	if err != nil {
		t.Fatalf("parse persisted credentials failed: %v", err)
	}
	if creds.AccessToken != "stale-token" || creds.RefreshToken != "rt" {
		t.Fatalf("failed refresh must keep the stored blob, got %+v", creds)
	}
}

func TestSweepExpiringIsolatesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("refresh_token") == "broken-rt" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "fresh-token",
			"refresh_token": "fresh-rt",
			"expires_in":    21600,
		})
	}))
	defer server.Close()

	svc, db := setupTokenServiceTest(t, server.URL, 60)
	soon := time.Now().Add(30 * time.Minute)
	companies := []models.BillingCompany{
		{Name: "Quebrada", CNPJ: "1", IsActive: true, BlingJSON: blingBlob(t, "broken-rt", soon)},
		{Name: "Saudável", CNPJ: "2", IsActive: true, BlingJSON: blingBlob(t, "ok-rt", soon)},
		{Name: "Distante", CNPJ: "3", IsActive: true, BlingJSON: blingBlob(t, "far-rt", time.Now().Add(6*time.Hour))},
	}
	for i := range companies {
		if err := db.Create(&companies[i]).Error; err != nil {
			t.Fatalf("create company failed: %v", err)
		}
	}

	result, err := svc.SweepExpiring(context.Background())
	if err != nil {
		t.Fatalf("SweepExpiring failed: %v", err)
	}
	if result.Checked != 2 {
		t.Fatalf("checked = %d, want 2", result.Checked)
	}
	if result.Refreshed != 1 || result.Failed != 1 {
		t.Fatalf("refreshed=%d failed=%d, want 1/1", result.Refreshed, result.Failed)
	}

	var healthy models.BillingCompany
	if err := db.Where("cnpj = ?", "2").First(&healthy).Error; err != nil {
		t.Fatalf("reload company failed: %v", err)
	}
	creds, err := bling.ParseCredentials(healthy.BlingJSON)
	if err != nil {
		t.Fatalf("parse persisted credentials failed: %v", err)
	}
	if creds.AccessToken != "fresh-token" {
		t.Fatalf("healthy company should be refreshed, got %q", creds.AccessToken)
	}
}
