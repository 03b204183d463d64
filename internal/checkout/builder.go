package checkout

import (
	"context"
	"fmt"

	"storefront-cart/internal/api"
	"storefront-cart/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Builder projects a settled cart into the order-submission payload. Order
// lines carry identity and quantity only; the server re-derives prices at
// order creation so the client can never dictate what it pays.
type Builder struct {
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewBuilder creates a new checkout order builder.
func NewBuilder(logger zerolog.Logger) *Builder {
	return &Builder{
		validate: validator.New(),
		logger:   logger.With().Str("component", "checkout-builder").Logger(),
	}
}

// Build converts the cart into an order payload. It fails on an empty cart,
// on a non-positive total (an inconsistent cart rather than a legitimate
// free order), and on a shipping address or payment method that would be
// rejected server-side anyway.
func (b *Builder) Build(cart model.Cart, address model.ShippingAddress, paymentMethod string) (*model.OrderPayload, error) {
	if cart.Empty() {
		return nil, model.ErrEmptyCart
	}
	if !cart.Total.IsPositive() {
		b.logger.Warn().Str("total", cart.Total.String()).Msg("refusing checkout with non-positive total")
		return nil, model.ErrInvalidTotal
	}
	if paymentMethod == "" {
		return nil, model.NewDomainError(model.ErrCodeValidation, "Payment method is required")
	}
	if err := b.validate.Struct(address); err != nil {
		b.logger.Warn().Err(err).Msg("invalid shipping address")
		return nil, model.NewDomainError(model.ErrCodeValidation, fmt.Sprintf("Invalid shipping address: %v", err))
	}

	items := make([]model.OrderLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		item, err := orderLine(line)
		if err != nil {
			b.logger.Warn().Str("kind", string(line.Kind)).Err(err).Msg("unbuildable cart line")
			return nil, err
		}
		items = append(items, item)
	}

	return &model.OrderPayload{
		Items:           items,
		ShippingAddress: address,
		PaymentMethod:   paymentMethod,
	}, nil
}

// Submit posts a built payload through the API client.
func (b *Builder) Submit(ctx context.Context, client api.Client, payload *model.OrderPayload) (*model.Order, error) {
	order, err := client.CreateOrder(ctx, *payload)
	if err != nil {
		b.logger.Warn().Err(err).Msg("order submission failed")
		return nil, err
	}

	b.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(payload.Items)).
		Msg("order created")

	return order, nil
}

// orderLine maps one cart line to its tagged order descriptor.
func orderLine(line model.LineItem) (model.OrderLine, error) {
	key := line.Key()
	if key.ID == "" {
		return model.OrderLine{}, model.NewDomainError(model.ErrCodeValidation, "Cart line is missing its identifying key")
	}

	switch line.Kind {
	case model.KindProduct:
		return model.OrderLine{Type: model.OrderLineProduct, ProductID: key.ID, Quantity: line.Quantity}, nil
	case model.KindBundle:
		return model.OrderLine{Type: model.OrderLineBundle, BundleID: key.ID, Quantity: line.Quantity}, nil
	case model.KindGiftBox:
		return model.OrderLine{Type: model.OrderLineGiftBox, GiftBoxID: key.ID, Quantity: line.Quantity}, nil
	default:
		return model.OrderLine{}, model.ErrInvalidKind
	}
}
