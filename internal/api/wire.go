package api

import (
	"storefront-cart/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// The backend does not tag cart lines with a kind field. Each serialized
// line instead carries at most one marker object: bundleInfo for bundles,
// giftBoxInfo for gift boxes, and a plain embedded product for product
// lines. Marker presence is the de facto discriminant; this adapter is the
// only place in the engine that sniffs shapes, converting to and from the
// tagged union the rest of the code works with.

type wireProduct struct {
	ID    string          `json:"_id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
	Image string          `json:"image,omitempty"`
}

type wireComponent struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type wireBundleInfo struct {
	BundleID string          `json:"bundleId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"bundlePrice"`
	Products []wireComponent `json:"products,omitempty"`
}

type wireGiftBoxInfo struct {
	GiftBoxID string          `json:"giftBoxId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"giftBoxPrice"`
	Products  []wireComponent `json:"products,omitempty"`
}

type wireLineItem struct {
	Product     *wireProduct     `json:"product,omitempty"`
	BundleInfo  *wireBundleInfo  `json:"bundleInfo,omitempty"`
	GiftBoxInfo *wireGiftBoxInfo `json:"giftBoxInfo,omitempty"`
	Quantity    int              `json:"quantity"`
}

// wireCartSummary is the response body shared by the cart fetch and every
// cart mutation endpoint. cartTotal and itemCount are decoded but never
// trusted: the store recomputes both from the lines.
type wireCartSummary struct {
	Cart      []wireLineItem  `json:"cart"`
	CartTotal decimal.Decimal `json:"cartTotal"`
	ItemCount int             `json:"itemCount"`
}

// decodeLineItem resolves the marker-object discriminant into a tagged
// line. A line carrying both markers resolves to bundle (bundleInfo wins)
// and is logged; a line carrying neither marker nor a product is dropped.
func decodeLineItem(w wireLineItem, logger zerolog.Logger) (model.LineItem, bool) {
	hasBundle := w.BundleInfo != nil && w.BundleInfo.BundleID != ""
	hasGiftBox := w.GiftBoxInfo != nil && w.GiftBoxInfo.GiftBoxID != ""

	if hasBundle && hasGiftBox {
		logger.Warn().
			Str("bundle_id", w.BundleInfo.BundleID).
			Str("gift_box_id", w.GiftBoxInfo.GiftBoxID).
			Msg("cart line carries both bundle and gift box markers, treating as bundle")
	}

	switch {
	case hasBundle:
		return model.LineItem{
			Kind:     model.KindBundle,
			Bundle:   decodeBundleSnapshot(w.BundleInfo.BundleID, w.BundleInfo.Name, w.BundleInfo.Price, w.BundleInfo.Products),
			Quantity: w.Quantity,
		}, true
	case hasGiftBox:
		return model.LineItem{
			Kind:     model.KindGiftBox,
			Bundle:   decodeBundleSnapshot(w.GiftBoxInfo.GiftBoxID, w.GiftBoxInfo.Name, w.GiftBoxInfo.Price, w.GiftBoxInfo.Products),
			Quantity: w.Quantity,
		}, true
	case w.Product != nil && w.Product.ID != "":
		return model.LineItem{
			Kind: model.KindProduct,
			Product: &model.ProductSnapshot{
				ID:    w.Product.ID,
				Name:  w.Product.Name,
				Price: w.Product.Price,
				Stock: w.Product.Stock,
				Image: w.Product.Image,
			},
			Quantity: w.Quantity,
		}, true
	default:
		logger.Warn().Int("quantity", w.Quantity).Msg("cart line has no recognisable marker, dropping")
		return model.LineItem{}, false
	}
}

func decodeBundleSnapshot(id, name string, price decimal.Decimal, products []wireComponent) *model.BundleSnapshot {
	components := make([]model.Component, len(products))
	for i, p := range products {
		components[i] = model.Component{Name: p.Name, Quantity: p.Quantity}
	}
	return &model.BundleSnapshot{
		ID:         id,
		Name:       name,
		Price:      price,
		Components: components,
	}
}

// decodeCart converts a wire summary into the internal cart. Aggregates are
// carried across for reference but the store recomputes them on Replace.
func decodeCart(w wireCartSummary, logger zerolog.Logger) model.Cart {
	lines := make([]model.LineItem, 0, len(w.Cart))
	for _, wl := range w.Cart {
		if line, ok := decodeLineItem(wl, logger); ok {
			lines = append(lines, line)
		}
	}
	return model.Cart{
		Lines:     lines,
		Total:     w.CartTotal,
		ItemCount: w.ItemCount,
	}
}
