package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"storefront-cart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		BaseURL:      server.URL,
		Token:        "session-token",
		Timeout:      5 * time.Second,
		FetchRetries: 2,
	}, zerolog.Nop())
	require.NoError(t, err)

	return client, server
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(ClientConfig{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestClient_FetchCartDecodesMarkerShapes(t *testing.T) {
	body := `{
		"cart": [
			{"product": {"_id": "P001", "name": "Masala Tea", "price": 100, "stock": 12, "image": "tea.jpg"}, "quantity": 2},
			{"bundleInfo": {"bundleId": "B001", "name": "Breakfast Bundle", "bundlePrice": 500, "products": [{"name": "Tea", "quantity": 2}]}, "quantity": 1},
			{"giftBoxInfo": {"giftBoxId": "G001", "name": "Festive Box", "giftBoxPrice": 750}, "quantity": 3},
			{"quantity": 5}
		],
		"cartTotal": 2950,
		"itemCount": 4
	}`

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/cart", r.URL.Path)
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Correlation-ID"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))

	cart, err := client.FetchCart(context.Background())
	require.NoError(t, err)

	// The marker-less fourth line is dropped.
	require.Len(t, cart.Lines, 3)

	assert.Equal(t, model.KindProduct, cart.Lines[0].Kind)
	require.NotNil(t, cart.Lines[0].Product)
	assert.Equal(t, "P001", cart.Lines[0].Product.ID)
	assert.Equal(t, 12, cart.Lines[0].Product.Stock)
	assert.Equal(t, 2, cart.Lines[0].Quantity)

	assert.Equal(t, model.KindBundle, cart.Lines[1].Kind)
	require.NotNil(t, cart.Lines[1].Bundle)
	assert.Equal(t, "B001", cart.Lines[1].Bundle.ID)
	assert.Len(t, cart.Lines[1].Bundle.Components, 1)

	assert.Equal(t, model.KindGiftBox, cart.Lines[2].Kind)
	require.NotNil(t, cart.Lines[2].Bundle)
	assert.Equal(t, "G001", cart.Lines[2].Bundle.ID)
	assert.Equal(t, 3, cart.Lines[2].Quantity)
}

func TestClient_FetchCartAmbiguousMarkersResolveToBundle(t *testing.T) {
	body := `{
		"cart": [
			{"bundleInfo": {"bundleId": "B001", "name": "Bundle", "bundlePrice": 500},
			 "giftBoxInfo": {"giftBoxId": "G001", "name": "Box", "giftBoxPrice": 750},
			 "quantity": 1}
		]
	}`

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))

	cart, err := client.FetchCart(context.Background())
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, model.KindBundle, cart.Lines[0].Kind)
	assert.Equal(t, "B001", cart.Lines[0].Bundle.ID)
}

func TestClient_FetchCartRetriesServerErrors(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"cart": [], "cartTotal": 0, "itemCount": 0}`))
	}))

	cart, err := client.FetchCart(context.Background())
	require.NoError(t, err)
	assert.True(t, cart.Empty())
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestClient_FetchCartRetryDoesNotLeakPriorDecodeState(t *testing.T) {
	// The first body decodes its bundle line before failing on the boolean
	// cartTotal. The clean retry must not inherit that line's bundleInfo
	// marker, or the product line would come back misclassified as a bundle.
	malformed := `{
		"cart": [
			{"bundleInfo": {"bundleId": "B001", "name": "Breakfast Bundle", "bundlePrice": 500}, "quantity": 1}
		],
		"cartTotal": true
	}`
	clean := `{
		"cart": [
			{"product": {"_id": "P001", "name": "Masala Tea", "price": 100, "stock": 12}, "quantity": 2}
		],
		"cartTotal": 200,
		"itemCount": 2
	}`

	var hits int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Write([]byte(malformed))
			return
		}
		w.Write([]byte(clean))
	}))

	cart, err := client.FetchCart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, model.KindProduct, cart.Lines[0].Kind)
	require.NotNil(t, cart.Lines[0].Product)
	assert.Equal(t, "P001", cart.Lines[0].Product.ID)
	assert.Nil(t, cart.Lines[0].Bundle)
	assert.Equal(t, "200", cart.Total.String())
}

func TestClient_EndpointDispatchPerKind(t *testing.T) {
	type captured struct {
		method string
		path   string
		body   map[string]any
	}

	var got captured
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = captured{method: r.Method, path: r.URL.Path}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&got.body)
		}
		w.Write([]byte(`{"cart": []}`))
	}))

	ctx := context.Background()

	tests := []struct {
		name       string
		call       func() error
		method     string
		path       string
		idField    string
		idValue    string
		wantsQty   bool
		quantity   float64
	}{
		{
			name:     "Add product",
			call:     func() error { return client.AddItem(ctx, model.KindProduct, "P001", 2) },
			method:   http.MethodPost,
			path:     "/cart/add",
			idField:  "productId",
			idValue:  "P001",
			wantsQty: true,
			quantity: 2,
		},
		{
			name:     "Add bundle",
			call:     func() error { return client.AddItem(ctx, model.KindBundle, "B001", 1) },
			method:   http.MethodPost,
			path:     "/cart/add-bundle",
			idField:  "bundleId",
			idValue:  "B001",
			wantsQty: true,
			quantity: 1,
		},
		{
			name:     "Add gift box",
			call:     func() error { return client.AddItem(ctx, model.KindGiftBox, "G001", 1) },
			method:   http.MethodPost,
			path:     "/cart/add-giftbox",
			idField:  "giftBoxId",
			idValue:  "G001",
			wantsQty: true,
			quantity: 1,
		},
		{
			name:     "Update product quantity",
			call:     func() error { return client.UpdateItem(ctx, model.KindProduct, "P001", 5) },
			method:   http.MethodPut,
			path:     "/cart/update",
			idField:  "productId",
			idValue:  "P001",
			wantsQty: true,
			quantity: 5,
		},
		{
			name:     "Update bundle quantity",
			call:     func() error { return client.UpdateItem(ctx, model.KindBundle, "B001", 2) },
			method:   http.MethodPut,
			path:     "/cart/update-bundle",
			idField:  "bundleId",
			idValue:  "B001",
			wantsQty: true,
			quantity: 2,
		},
		{
			name:   "Remove product",
			call:   func() error { return client.RemoveItem(ctx, model.KindProduct, "P001") },
			method: http.MethodDelete,
			path:   "/cart/remove/P001",
		},
		{
			name:   "Remove gift box",
			call:   func() error { return client.RemoveItem(ctx, model.KindGiftBox, "G001") },
			method: http.MethodDelete,
			path:   "/cart/remove-giftbox/G001",
		},
		{
			name:   "Clear cart",
			call:   func() error { return client.ClearCart(ctx) },
			method: http.MethodDelete,
			path:   "/cart/clear",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = captured{}
			require.NoError(t, tt.call())
			assert.Equal(t, tt.method, got.method)
			assert.Equal(t, tt.path, got.path)
			if tt.idField != "" {
				assert.Equal(t, tt.idValue, got.body[tt.idField])
			}
			if tt.wantsQty {
				assert.Equal(t, tt.quantity, got.body["quantity"])
			}
		})
	}
}

func TestClient_RejectsUnknownKind(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	err := client.AddItem(context.Background(), "subscription", "S001", 1)
	assert.ErrorIs(t, err, model.ErrInvalidKind)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		checker func(error) bool
	}{
		{
			name:    "5xx classifies as server error",
			status:  http.StatusServiceUnavailable,
			body:    `{"error": "INTERNAL_ERROR", "message": "boom"}`,
			checker: model.IsServer,
		},
		{
			name:    "Stock code classifies as stock error",
			status:  http.StatusBadRequest,
			body:    `{"error": "INSUFFICIENT_STOCK", "message": "Only 2 left"}`,
			checker: model.IsStock,
		},
		{
			name:    "Stock message classifies as stock error",
			status:  http.StatusConflict,
			body:    `{"message": "requested quantity exceeds available stock"}`,
			checker: model.IsStock,
		},
		{
			name:    "Other 4xx classifies as validation error",
			status:  http.StatusBadRequest,
			body:    `{"message": "quantity must be positive"}`,
			checker: model.IsValidation,
		},
		{
			name:    "Unparseable 4xx still classifies as validation error",
			status:  http.StatusBadRequest,
			body:    `<html>bad request</html>`,
			checker: model.IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			err := client.AddItem(context.Background(), model.KindProduct, "P001", 1)
			require.Error(t, err)
			assert.True(t, tt.checker(err), "unexpected classification: %v", err)
		})
	}
}

func TestClient_NetworkFailureClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, err := NewClient(ClientConfig{
		BaseURL: server.URL,
		Timeout: time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	server.Close()

	err = client.AddItem(context.Background(), model.KindProduct, "P001", 1)
	require.Error(t, err)
	assert.True(t, model.IsNetwork(err))
}

func TestClient_CreateOrder(t *testing.T) {
	var gotBody model.OrderPayload
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"order": {"id": "8f14e45f-ceea-467f-a01d-5e2f9e8cdc61", "status": "pending"}}`))
	}))

	payload := model.OrderPayload{
		Items: []model.OrderLine{
			{Type: model.OrderLineProduct, ProductID: "P001", Quantity: 2},
			{Type: model.OrderLineBundle, BundleID: "B001", Quantity: 1},
		},
		PaymentMethod: "cod",
	}

	order, err := client.CreateOrder(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "8f14e45f-ceea-467f-a01d-5e2f9e8cdc61", order.ID.String())

	require.Len(t, gotBody.Items, 2)
	assert.Equal(t, "P001", gotBody.Items[0].ProductID)
	assert.Equal(t, "B001", gotBody.Items[1].BundleID)
}
