package bling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseCredentials(t *testing.T) {
	creds, err := ParseCredentials(map[string]interface{}{
		"client_id":        " cid ",
		"client_secret":    "csecret",
		"access_token":     "at",
		"refresh_token":    "rt",
		"token_expires_at": float64(1700000000),
	})
	if err != nil {
		t.Fatalf("ParseCredentials error: %v", err)
	}
	if creds.ClientID != "cid" {
		t.Fatalf("client id not trimmed: %q", creds.ClientID)
	}
	if creds.TokenExpiresAt != 1700000000 {
		t.Fatalf("token_expires_at = %d", creds.TokenExpiresAt)
	}
	if !creds.CanRefresh() {
		t.Fatalf("expected refreshable credentials")
	}
}

func TestCanRefreshIncomplete(t *testing.T) {
	creds := &Credentials{ClientID: "cid", ClientSecret: "cs"}
	if creds.CanRefresh() {
		t.Fatalf("missing refresh_token should not be refreshable")
	}
}

func TestExpiresWithin(t *testing.T) {
	now := time.Now()
	creds := &Credentials{AccessToken: "at", TokenExpiresAt: now.Add(3 * time.Minute).Unix()}
	if !creds.ExpiresWithin(5*time.Minute, now) {
		t.Fatalf("token 3min from expiry should be inside 5min window")
	}
	creds.TokenExpiresAt = now.Add(30 * time.Minute).Unix()
	if creds.ExpiresWithin(5*time.Minute, now) {
		t.Fatalf("token 30min from expiry should be outside 5min window")
	}
}

func TestBuildRefreshRequest(t *testing.T) {
	client := NewClient("https://token.example/oauth/token", "")
	req, err := client.BuildRefreshRequest(context.Background(), &Credentials{
		ClientID:     "cid",
		ClientSecret: "csecret",
		RefreshToken: "rt-123",
	})
	if err != nil {
		t.Fatalf("BuildRefreshRequest error: %v", err)
	}
	user, pass, ok := req.BasicAuth()
	if !ok || user != "cid" || pass != "csecret" {
		t.Fatalf("basic auth = %q:%q", user, pass)
	}
	body := req.Body
	buf := make([]byte, 256)
	n, _ := body.Read(buf)
	got := string(buf[:n])
	if !strings.Contains(got, "grant_type=refresh_token") || !strings.Contains(got, "refresh_token=rt-123") {
		t.Fatalf("unexpected form body: %s", got)
	}
}

func TestBuildRefreshRequestIncompleteCredentials(t *testing.T) {
	client := NewClient("", "")
	_, err := client.BuildRefreshRequest(context.Background(), &Credentials{ClientID: "cid"})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestRefreshTokenAndApply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "new-at",
			"refresh_token": "new-rt",
			"expires_in":    21600,
			"token_type":    "bearer",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	creds := &Credentials{ClientID: "cid", ClientSecret: "cs", RefreshToken: "old-rt"}
	result, err := client.RefreshToken(context.Background(), creds)
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	now := time.Now()
	creds.Apply(result, now)
	if creds.AccessToken != "new-at" || creds.RefreshToken != "new-rt" {
		t.Fatalf("credentials not applied: %+v", creds)
	}
	want := now.Add(21600 * time.Second).Unix()
	if creds.TokenExpiresAt != want {
		t.Fatalf("token_expires_at = %d, want %d", creds.TokenExpiresAt, want)
	}
}

func TestRefreshTokenKeepsOldRefreshToken(t *testing.T) {
	creds := &Credentials{RefreshToken: "old-rt"}
	creds.Apply(&RefreshResult{AccessToken: "at", ExpiresIn: 3600}, time.Now())
	if creds.RefreshToken != "old-rt" {
		t.Fatalf("absent refresh_token should keep previous value, got %q", creds.RefreshToken)
	}
}

func TestDanfePathTraversalRejected(t *testing.T) {
	dir := t.TempDir()
	cases := []string{
		"../../etc/passwd",
		"..",
		"....//....//etc",
		"danfe/../../escape",
		"   ",
	}
	for _, orderID := range cases {
		if _, err := DanfePath(dir, orderID); !errors.Is(err, ErrUnsafePath) {
			t.Fatalf("order id %q: expected ErrUnsafePath, got %v", orderID, err)
		}
	}
}

func TestDanfePathSanitizesOrderID(t *testing.T) {
	dir := t.TempDir()
	path, err := DanfePath(dir, "PED 2024#001")
	if err != nil {
		t.Fatalf("DanfePath error: %v", err)
	}
	if filepath.Base(path) != "danfe_PED2024001.pdf" {
		t.Fatalf("unexpected filename: %s", filepath.Base(path))
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("file not under storage dir: %s", path)
	}
}

func TestDownloadDanfeRejectsTraversalBeforeRequest(t *testing.T) {
	requested := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer server.Close()

	client := NewClient("", "")
	dir := t.TempDir()
	_, err := client.DownloadDanfe(context.Background(), "at", "../../etc/passwd", server.URL, dir)
	if !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("expected ErrUnsafePath, got %v", err)
	}
	if requested {
		t.Fatalf("traversal order id must be rejected before any request")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("no file should be written, found %d entries", len(entries))
	}
}

func TestDownloadDanfeWritesFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer at" {
			t.Fatalf("authorization = %q", got)
		}
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer server.Close()

	client := NewClient("", "")
	dir := t.TempDir()
	path, err := client.DownloadDanfe(context.Background(), "at", "PED1001", server.URL, dir)
	if err != nil {
		t.Fatalf("DownloadDanfe error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "%PDF-1.4 fake" {
		t.Fatalf("unexpected file content: %s", data)
	}
}

func TestGetOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pedidos/vendas/42" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"id": float64(42), "numero": "1001"},
		})
	}))
	defer server.Close()

	client := NewClient("", server.URL)
	raw, err := client.GetOrder(context.Background(), "at", "42")
	if err != nil {
		t.Fatalf("GetOrder error: %v", err)
	}
	data, ok := raw["data"].(map[string]interface{})
	if !ok || data["numero"] != "1001" {
		t.Fatalf("unexpected payload: %v", raw)
	}
}
