package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/tapstand/kiosk/core"
)

// memTokens is a test TokenStore
type memTokens struct {
	mu    sync.Mutex
	token string
}

func (m *memTokens) DeviceToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memTokens) DeleteDeviceToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func TestCreateOrder(t *testing.T) {
	var gotBody OrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/order" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		json.NewEncoder(w).Encode(Order{ID: "ord-1", Status: StatusPending})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}

	order, err := c.CreateOrder(context.Background(), OrderRequest{
		UserID: "u-1",
		Items:  map[string]int{"small_beer": 2},
	})
	if err != nil {
		t.Fatalf("CreateOrder() failed: %v", err)
	}
	if order.ID != "ord-1" || order.Status != StatusPending {
		t.Errorf("CreateOrder() = %+v", order)
	}
	if gotBody.UserID != "u-1" || gotBody.Items["small_beer"] != 2 {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestCreateOrderRejectsEmptyBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	_, err := c.CreateOrder(context.Background(), OrderRequest{UserID: "u-1"})
	if !errors.Is(err, core.ErrEmptyOrder) {
		t.Errorf("CreateOrder(empty) error = %v, want ErrEmptyOrder", err)
	}
	if called {
		t.Error("empty order must never reach the network")
	}
}

func TestListOrdersFiltersByUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("userID"); got != "u-7" {
			t.Errorf("userID query = %q, want u-7", got)
		}
		json.NewEncoder(w).Encode([]Order{{ID: "ord-1"}, {ID: "ord-2"}})
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	orders, err := c.ListOrders(context.Background(), "u-7")
	if err != nil {
		t.Fatalf("ListOrders() failed: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("ListOrders() returned %d orders, want 2", len(orders))
	}
}

func TestListOrdersStaffViewOmitsFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("staff view sent query %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode([]Order{})
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	if _, err := c.ListOrders(context.Background(), ""); err != nil {
		t.Fatalf("ListOrders() failed: %v", err)
	}
}

func TestDeviceAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Device tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tokens := &memTokens{token: "tok-123"}
	c, _ := NewClient(srv.URL, WithTokenStore(tokens))
	if err := c.TabPing(context.Background()); err != nil {
		t.Fatalf("TabPing() failed: %v", err)
	}
}

func TestUnauthorizedInvalidatesCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	hookFired := false
	tokens := &memTokens{token: "tok-revoked"}
	c, _ := NewClient(srv.URL,
		WithTokenStore(tokens),
		WithUnauthenticatedHook(func() { hookFired = true }),
	)

	err := c.TabPing(context.Background())
	if !errors.Is(err, core.ErrUnauthenticated) {
		t.Fatalf("TabPing() error = %v, want ErrUnauthenticated", err)
	}
	if tok, _ := tokens.DeviceToken(context.Background()); tok != "" {
		t.Error("revoked token must be deleted")
	}
	if !hookFired {
		t.Error("unauthenticated hook must fire")
	}
}

func TestErrorBodySurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "No items in the order!"}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	_, err := c.ListRooms(context.Background())
	if !errors.Is(err, core.ErrRequestFailed) {
		t.Fatalf("error = %v, want ErrRequestFailed", err)
	}
	if !strings.Contains(err.Error(), "No items in the order!") {
		t.Errorf("error message %q should carry the server detail", err.Error())
	}
}

func TestConnectionFailure(t *testing.T) {
	// Port 1 is never listening
	c, _ := NewClient("http://127.0.0.1:1")
	_, err := c.ListOrders(context.Background(), "u-1")
	if !errors.Is(err, core.ErrConnectionFailed) && !errors.Is(err, core.ErrTimeout) {
		t.Errorf("error = %v, want a transport sentinel", err)
	}
	if !core.IsRetryable(err) {
		t.Error("transport failures must classify as retryable")
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/orders/ord-9" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["status"] != StatusCompleted {
			t.Errorf("status = %q", body["status"])
		}
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	if err := c.UpdateOrderStatus(context.Background(), "ord-9", StatusCompleted); err != nil {
		t.Fatalf("UpdateOrderStatus() failed: %v", err)
	}
}

func TestRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Name != "Jan" || req.RoomNumber != "12" {
			t.Errorf("register body = %+v", req)
		}
		json.NewEncoder(w).Encode(RegisterResponse{
			DeviceToken: "tok-new",
			DeviceID:    "dev-1",
			RoomID:      "room-12",
			TabID:       "tab-1",
		})
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	resp, err := c.Register(context.Background(), RegisterRequest{Name: "Jan", RoomNumber: "12"})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if resp.DeviceToken != "tok-new" {
		t.Errorf("Register() = %+v", resp)
	}
}

func TestCreateLegacyOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req LegacyOrderRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Size != 0.5 || req.Quantity != 2 {
			t.Errorf("legacy body = %+v", req)
		}
		json.NewEncoder(w).Encode(Order{ID: "ord-l", Status: StatusInProgress})
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	order, err := c.CreateLegacyOrder(context.Background(), LegacyOrderRequest{Size: 0.5, Quantity: 2})
	if err != nil {
		t.Fatalf("CreateLegacyOrder() failed: %v", err)
	}
	if order.ID != "ord-l" {
		t.Errorf("CreateLegacyOrder() = %+v", order)
	}

	if _, err := c.CreateLegacyOrder(context.Background(), LegacyOrderRequest{Size: 0.5}); !errors.Is(err, core.ErrEmptyOrder) {
		t.Errorf("zero quantity error = %v, want ErrEmptyOrder", err)
	}
}
