package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// fakeStorefront is an in-process stand-in for the storefront backend. It
// keeps a server-side cart per instance and speaks the real wire format:
// plain embedded product objects for product lines, bundleInfo/giftBoxInfo
// marker objects for the other two kinds, and cartTotal/itemCount aggregates
// in every cart summary.
type fakeStorefront struct {
	mu    sync.Mutex
	lines []serverLine

	products map[string]catalogEntry
	bundles  map[string]catalogEntry
	giftBoxes map[string]catalogEntry
}

type catalogEntry struct {
	Name  string
	Price float64
	Stock int
}

type serverLine struct {
	Kind  string // "product", "bundle", "giftbox"
	ID    string
	Name  string
	Price float64
	Stock int
	Qty   int
}

// NewFakeStorefront seeds a storefront with a small catalogue: P001 and
// P002 products (P002 with a single unit in stock), bundle B001 and gift
// box G001.
func NewFakeStorefront() *fakeStorefront {
	return &fakeStorefront{
		products: map[string]catalogEntry{
			"P001": {Name: "Masala Tea", Price: 100, Stock: 10},
			"P002": {Name: "Filter Coffee", Price: 250, Stock: 1},
		},
		bundles: map[string]catalogEntry{
			"B001": {Name: "Breakfast Bundle", Price: 500, Stock: 100},
		},
		giftBoxes: map[string]catalogEntry{
			"G001": {Name: "Festive Box", Price: 750, Stock: 100},
		},
	}
}

// Start runs the fake storefront on an httptest server.
func (f *fakeStorefront) Start(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return server
}

func (f *fakeStorefront) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/cart":
		f.writeSummary(w)
	case r.Method == http.MethodPost && path == "/cart/add":
		f.add(w, r, "product", "productId", f.products)
	case r.Method == http.MethodPost && path == "/cart/add-bundle":
		f.add(w, r, "bundle", "bundleId", f.bundles)
	case r.Method == http.MethodPost && path == "/cart/add-giftbox":
		f.add(w, r, "giftbox", "giftBoxId", f.giftBoxes)
	case r.Method == http.MethodPut && path == "/cart/update":
		f.update(w, r, "product", "productId")
	case r.Method == http.MethodPut && path == "/cart/update-bundle":
		f.update(w, r, "bundle", "bundleId")
	case r.Method == http.MethodPut && path == "/cart/update-giftbox":
		f.update(w, r, "giftbox", "giftBoxId")
	case r.Method == http.MethodDelete && path == "/cart/clear":
		f.lines = nil
		f.writeSummary(w)
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/cart/remove-bundle/"):
		f.remove(w, "bundle", strings.TrimPrefix(path, "/cart/remove-bundle/"))
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/cart/remove-giftbox/"):
		f.remove(w, "giftbox", strings.TrimPrefix(path, "/cart/remove-giftbox/"))
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/cart/remove/"):
		f.remove(w, "product", strings.TrimPrefix(path, "/cart/remove/"))
	case r.Method == http.MethodPost && path == "/orders":
		f.createOrder(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (f *fakeStorefront) add(w http.ResponseWriter, r *http.Request, kind, idField string, catalogue map[string]catalogEntry) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	id, _ := body[idField].(string)
	qty := int(body["quantity"].(float64))

	entry, ok := catalogue[id]
	if !ok {
		writeError(w, http.StatusBadRequest, "NOT_FOUND", "unknown item: "+id)
		return
	}

	existing := 0
	for _, line := range f.lines {
		if line.Kind == kind && line.ID == id {
			existing = line.Qty
		}
	}
	if existing+qty > entry.Stock {
		writeError(w, http.StatusBadRequest, "INSUFFICIENT_STOCK",
			fmt.Sprintf("only %d left in stock", entry.Stock-existing))
		return
	}

	for i, line := range f.lines {
		if line.Kind == kind && line.ID == id {
			f.lines[i].Qty += qty
			f.writeSummary(w)
			return
		}
	}
	f.lines = append(f.lines, serverLine{
		Kind: kind, ID: id, Name: entry.Name, Price: entry.Price, Stock: entry.Stock, Qty: qty,
	})
	f.writeSummary(w)
}

func (f *fakeStorefront) update(w http.ResponseWriter, r *http.Request, kind, idField string) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	id, _ := body[idField].(string)
	qty := int(body["quantity"].(float64))

	for i, line := range f.lines {
		if line.Kind == kind && line.ID == id {
			if qty > line.Stock {
				writeError(w, http.StatusBadRequest, "INSUFFICIENT_STOCK",
					fmt.Sprintf("only %d left in stock", line.Stock))
				return
			}
			f.lines[i].Qty = qty
			f.writeSummary(w)
			return
		}
	}
	writeError(w, http.StatusBadRequest, "NOT_FOUND", "no such cart line")
}

func (f *fakeStorefront) remove(w http.ResponseWriter, kind, id string) {
	filtered := f.lines[:0]
	for _, line := range f.lines {
		if !(line.Kind == kind && line.ID == id) {
			filtered = append(filtered, line)
		}
	}
	f.lines = filtered
	f.writeSummary(w)
}

func (f *fakeStorefront) createOrder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Items) == 0 {
		writeError(w, http.StatusBadRequest, "EMPTY_ORDER", "order must contain at least one item")
		return
	}

	f.lines = nil
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"order": map[string]any{
			"id":     uuid.New().String(),
			"status": "pending",
		},
	})
}

func (f *fakeStorefront) writeSummary(w http.ResponseWriter) {
	total := 0.0
	count := 0
	wireLines := make([]map[string]any, 0, len(f.lines))

	for _, line := range f.lines {
		total += line.Price * float64(line.Qty)
		entry := map[string]any{"quantity": line.Qty}
		switch line.Kind {
		case "product":
			count += line.Qty
			entry["product"] = map[string]any{
				"_id": line.ID, "name": line.Name, "price": line.Price, "stock": line.Stock,
			}
		case "bundle":
			count++
			entry["bundleInfo"] = map[string]any{
				"bundleId": line.ID, "name": line.Name, "bundlePrice": line.Price,
			}
		case "giftbox":
			count++
			entry["giftBoxInfo"] = map[string]any{
				"giftBoxId": line.ID, "name": line.Name, "giftBoxPrice": line.Price,
			}
		}
		wireLines = append(wireLines, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"cart":      wireLines,
		"cartTotal": total,
		"itemCount": count,
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
