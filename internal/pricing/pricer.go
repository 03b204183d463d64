package pricing

import (
	"storefront-cart/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Pricer derives unit prices, line totals and cart aggregates from line
// items. It is stateless; the logger is only used to flag malformed lines,
// which price as zero rather than failing total computation.
type Pricer struct {
	logger zerolog.Logger
}

// NewPricer creates a new pricer.
func NewPricer(logger zerolog.Logger) *Pricer {
	return &Pricer{
		logger: logger.With().Str("component", "pricer").Logger(),
	}
}

// UnitPrice returns the price of a single unit of the line: the embedded
// product snapshot price for product lines, the fixed bundle price for
// bundle and gift-box lines. A line missing its snapshot, or carrying a
// negative price, prices as zero.
func (p *Pricer) UnitPrice(line model.LineItem) decimal.Decimal {
	var price decimal.Decimal

	switch line.Kind {
	case model.KindProduct:
		if line.Product == nil {
			p.logger.Warn().Str("kind", string(line.Kind)).Msg("line missing product snapshot, pricing as zero")
			return decimal.Zero
		}
		price = line.Product.Price
	case model.KindBundle, model.KindGiftBox:
		if line.Bundle == nil {
			p.logger.Warn().Str("kind", string(line.Kind)).Msg("line missing bundle snapshot, pricing as zero")
			return decimal.Zero
		}
		price = line.Bundle.Price
	default:
		p.logger.Warn().Str("kind", string(line.Kind)).Msg("unknown line kind, pricing as zero")
		return decimal.Zero
	}

	if price.IsNegative() {
		p.logger.Warn().
			Str("kind", string(line.Kind)).
			Str("id", line.Key().ID).
			Str("price", price.String()).
			Msg("negative line price, pricing as zero")
		return decimal.Zero
	}

	return price
}

// LineTotal returns UnitPrice × quantity. A non-positive quantity totals to
// zero; such lines are rejected before they reach the cart, so this only
// covers malformed data arriving off the wire.
func (p *Pricer) LineTotal(line model.LineItem) decimal.Decimal {
	if line.Quantity < 1 {
		return decimal.Zero
	}
	return p.UnitPrice(line).Mul(decimal.NewFromInt(int64(line.Quantity)))
}

// CartTotal sums LineTotal over all lines. Totals are always recomputed from
// scratch; nothing else in the engine patches a total incrementally.
func (p *Pricer) CartTotal(lines []model.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(p.LineTotal(line))
	}
	return total
}

// ItemCount counts the units shown on the cart badge: product lines
// contribute their quantity, bundle and gift-box lines contribute exactly 1
// each regardless of quantity.
func (p *Pricer) ItemCount(lines []model.LineItem) int {
	count := 0
	for _, line := range lines {
		switch line.Kind {
		case model.KindProduct:
			if line.Quantity > 0 {
				count += line.Quantity
			}
		case model.KindBundle, model.KindGiftBox:
			count++
		}
	}
	return count
}
