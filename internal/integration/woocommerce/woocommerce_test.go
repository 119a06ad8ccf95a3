package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	client, err := NewClient(&Config{
		StoreURL:       server.URL,
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return client, server
}

func TestParseConfigTrimsStoreURL(t *testing.T) {
	cfg, err := ParseConfig(map[string]interface{}{
		"store_url":       "https://loja.example/ ",
		"consumer_key":    "ck",
		"consumer_secret": "cs",
	})
	if err != nil {
		t.Fatalf("ParseConfig error: %v", err)
	}
	if cfg.StoreURL != "https://loja.example" {
		t.Fatalf("store url = %q", cfg.StoreURL)
	}
}

func TestNewClientIncompleteConfig(t *testing.T) {
	_, err := NewClient(&Config{StoreURL: "https://loja.example"})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestCreateOrder(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wc/v3/orders" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ck_test" || pass != "cs_test" {
			t.Fatalf("basic auth = %q:%q", user, pass)
		}
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["status"] != "processing" {
			t.Fatalf("status = %v", payload["status"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": float64(77), "status": "processing"})
	})
	defer server.Close()

	order, err := client.CreateOrder(context.Background(), map[string]interface{}{"status": "processing"})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if order["id"] != float64(77) {
		t.Fatalf("order id = %v", order["id"])
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wc/v3/orders/77" || r.Method != http.MethodPut {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"id": float64(77), "status": "completed"})
	})
	defer server.Close()

	order, err := client.UpdateOrderStatus(context.Background(), 77, "completed")
	if err != nil {
		t.Fatalf("UpdateOrderStatus error: %v", err)
	}
	if order["status"] != "completed" {
		t.Fatalf("status = %v", order["status"])
	}
}

func TestAddOrderNote(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wc/v3/orders/77/notes" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]interface{}
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["note"] != "pagamento aprovado" || payload["customer_note"] != true {
			t.Fatalf("unexpected payload: %v", payload)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 5}`))
	})
	defer server.Close()

	if err := client.AddOrderNote(context.Background(), 77, "pagamento aprovado", true); err != nil {
		t.Fatalf("AddOrderNote error: %v", err)
	}
}

func TestListProducts(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("per_page") != "10" || r.URL.Query().Get("page") != "2" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": float64(1), "name": "Produto A"},
			{"id": float64(2), "name": "Produto B"},
		})
	})
	defer server.Close()

	products, err := client.ListProducts(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("ListProducts error: %v", err)
	}
	if len(products) != 2 || products[0]["name"] != "Produto A" {
		t.Fatalf("unexpected products: %v", products)
	}
}

func TestRequestErrorIncludesAPIMessage(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    "woocommerce_rest_cannot_view",
			"message": "Desculpe, você não pode listar recursos.",
		})
	})
	defer server.Close()

	err := client.Ping(context.Background())
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}
