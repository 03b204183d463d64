package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"storefront-cart/internal/api"
	"storefront-cart/internal/checkout"
	"storefront-cart/internal/config"
	"storefront-cart/internal/engine"
	"storefront-cart/internal/model"
	"storefront-cart/internal/pricing"
	"storefront-cart/internal/store"
)

const usage = `cartcli - storefront cart client

Usage:
  cartcli show
  cartcli add <product|bundle|giftbox> <id> <quantity>
  cartcli update <product|bundle|giftbox> <id> <quantity>
  cartcli remove <product|bundle|giftbox> <id>
  cartcli clear
  cartcli checkout <payment-method>

Checkout reads the shipping address from SHIP_NAME, SHIP_LINE1, SHIP_CITY,
SHIP_STATE, SHIP_POSTAL_CODE and SHIP_PHONE.
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("no command given")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)

	// Wire up the engine
	client, err := api.NewClient(api.ClientConfig{
		BaseURL:      cfg.API.BaseURL,
		Token:        cfg.API.Token,
		Timeout:      cfg.API.Timeout,
		FetchRetries: uint64(cfg.API.FetchRetries),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialise API client: %w", err)
	}

	pricer := pricing.NewPricer(logger)
	cartStore := store.New(pricer, logger)
	coordinator := engine.NewCoordinator(cartStore, client, engine.NewMemoryCatalog(), logger)
	throttle := engine.NewRefreshThrottle(cfg.Cart.RefreshWindow, coordinator.Refresh, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Populate the mirror before any mutation so update/remove can validate
	// against current lines.
	if err := throttle.RequestRefresh(ctx); err != nil {
		return fmt.Errorf("failed to fetch cart: %w", err)
	}

	switch args[0] {
	case "show":
		// Initial refresh already populated the store.

	case "add", "update":
		kind, id, qty, err := itemArgs(args)
		if err != nil {
			return err
		}
		if args[0] == "add" {
			err = coordinator.Add(ctx, kind, id, qty)
		} else {
			err = coordinator.UpdateQuantity(ctx, kind, id, qty)
		}
		if err != nil {
			return err
		}

	case "remove":
		if len(args) != 3 {
			return fmt.Errorf("usage: cartcli remove <kind> <id>")
		}
		kind := model.Kind(args[1])
		if err := coordinator.Remove(ctx, kind, args[2]); err != nil {
			return err
		}

	case "clear":
		if err := coordinator.Clear(ctx); err != nil {
			return err
		}

	case "checkout":
		if len(args) != 2 {
			return fmt.Errorf("usage: cartcli checkout <payment-method>")
		}
		builder := checkout.NewBuilder(logger)
		payload, err := builder.Build(cartStore.Get(), addressFromEnv(), args[1])
		if err != nil {
			return err
		}
		order, err := builder.Submit(ctx, client, payload)
		if err != nil {
			return err
		}
		fmt.Printf("order %s created (%s)\n", order.ID, order.Status)
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", args[0])
	}

	printCart(cartStore.Get())
	return nil
}

func itemArgs(args []string) (model.Kind, string, int, error) {
	if len(args) != 4 {
		return "", "", 0, fmt.Errorf("usage: cartcli %s <kind> <id> <quantity>", args[0])
	}
	qty, err := strconv.Atoi(args[3])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid quantity: %s", args[3])
	}
	return model.Kind(args[1]), args[2], qty, nil
}

func addressFromEnv() model.ShippingAddress {
	return model.ShippingAddress{
		FullName:   os.Getenv("SHIP_NAME"),
		Line1:      os.Getenv("SHIP_LINE1"),
		Line2:      os.Getenv("SHIP_LINE2"),
		City:       os.Getenv("SHIP_CITY"),
		State:      os.Getenv("SHIP_STATE"),
		PostalCode: os.Getenv("SHIP_POSTAL_CODE"),
		Phone:      os.Getenv("SHIP_PHONE"),
	}
}

func printCart(cart model.Cart) {
	if cart.Empty() {
		fmt.Println("cart is empty")
		return
	}
	for _, line := range cart.Lines {
		key := line.Key()
		name := ""
		switch {
		case line.Product != nil:
			name = line.Product.Name
		case line.Bundle != nil:
			name = line.Bundle.Name
		}
		fmt.Printf("%-8s %-12s %-24s x%d\n", key.Kind, key.ID, name, line.Quantity)
	}
	fmt.Printf("items: %d  total: %s\n", cart.ItemCount, cart.Total.StringFixed(2))
}
