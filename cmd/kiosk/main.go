// The kiosk command is the interactive ordering terminal: browse the
// menu, build a cart, submit it, and watch order statuses update live.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/tapstand/kiosk/api"
	"github.com/tapstand/kiosk/cart"
	"github.com/tapstand/kiosk/catalog"
	"github.com/tapstand/kiosk/core"
	"github.com/tapstand/kiosk/identity"
	"github.com/tapstand/kiosk/session"
)

func main() {
	configFile := flag.String("config", "", "path to a config file (.json/.yaml)")
	flag.Parse()

	var opts []core.Option
	if *configFile != "" {
		opts = append(opts, core.WithConfigFile(*configFile))
	}
	cfg, err := core.NewConfig(opts...)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := core.NewLogger(core.GetLogLevel())

	menu := catalog.Default()
	if cfg.MenuPath != "" {
		menu, err = catalog.LoadFile(cfg.MenuPath)
		if err != nil {
			log.Fatalf("Failed to load menu %s: %v", cfg.MenuPath, err)
		}
	}

	store, cleanup, err := openStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open identity store: %v", err)
	}
	defer cleanup()

	idm := identity.NewManager(store, logger)

	clientOpts := []api.ClientOption{
		api.WithLogger(logger),
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithTokenStore(idm),
	}
	if cfg.TracingEnabled {
		clientOpts = append(clientOpts, api.WithTracing())
	}
	client, err := api.NewClient(cfg.APIURL, clientOpts...)
	if err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}

	announcer := newReadyAnnouncer()
	ctrl, err := session.New(session.Params{
		Client:       client,
		Cart:         cart.New(),
		Identity:     idm,
		WebSocketURL: cfg.WebSocketURL,
		PollInterval: cfg.PollInterval,
		Logger:       logger,
		Notify: func(orders []api.Order) {
			for _, o := range announcer.newlyReady(orders) {
				fmt.Printf("\n>>> order %s is ready!\n> ", shortID(o.ID))
			}
		},
	})
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Start(ctx); err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	defer ctrl.Close()

	if ctrl.NeedsRegistration() {
		fmt.Println("This device is not registered. Run 'register <name> <room>' first.")
	}

	repl(ctx, ctrl, menu)
}

func openStore(cfg *core.Config, logger core.Logger) (identity.Store, func(), error) {
	if cfg.RedisURL != "" {
		rs, err := identity.NewRedisStore(cfg.RedisURL, "kiosk", logger)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { rs.Close() }, nil
	}
	if cfg.StateDir != "" {
		fs, err := identity.NewFileStore(cfg.StateDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
	logger.Warn("No state dir or redis configured, identity will not survive restart", map[string]interface{}{
		"operation": "main.openStore",
	})
	return identity.NewInMemoryStore(), func() {}, nil
}

func repl(ctx context.Context, ctrl *session.Controller, menu *catalog.Catalog) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Commands: menu, add <item> [qty], remove <item>, cart, submit, orders, rooms, register <name> <room>, quit")
	fmt.Print("> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			fmt.Print("> ")
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			return
		case "menu":
			printMenu(menu)
		case "add":
			if len(fields) < 2 {
				fmt.Println("usage: add <item> [qty]")
				break
			}
			qty := 1
			if len(fields) > 2 {
				if n, err := strconv.Atoi(fields[2]); err == nil {
					qty = n
				}
			}
			if _, ok := menu.Get(fields[1]); !ok {
				fmt.Printf("unknown item %q, see 'menu'\n", fields[1])
				break
			}
			ctrl.Cart().AddItem(fields[1], qty)
			printCart(ctrl, menu)
		case "remove":
			if len(fields) < 2 {
				fmt.Println("usage: remove <item>")
				break
			}
			ctrl.Cart().Remove(fields[1])
			printCart(ctrl, menu)
		case "cart":
			printCart(ctrl, menu)
		case "submit":
			order, err := ctrl.Submit(ctx)
			if err != nil {
				printSubmitError(err)
				break
			}
			fmt.Printf("order %s accepted, total %.2f\n", shortID(order.ID), order.TotalPrice)
		case "orders":
			printOrders(ctrl)
		case "rooms":
			rooms, err := ctrl.Rooms(ctx)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				break
			}
			for _, r := range rooms {
				fmt.Printf("  room %s (%s)\n", r.Number, r.ID)
			}
		case "register":
			if len(fields) < 3 {
				fmt.Println("usage: register <name> <room>")
				break
			}
			resp, err := ctrl.Register(ctx, api.RegisterRequest{Name: fields[1], RoomNumber: fields[2]})
			if err != nil {
				fmt.Printf("registration failed: %v\n", err)
				break
			}
			fmt.Printf("registered as device %s in room %s\n", resp.DeviceID, resp.RoomID)
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
		fmt.Print("> ")
	}
}

func printMenu(menu *catalog.Catalog) {
	for _, cat := range menu.Categories() {
		fmt.Printf("%s:\n", cat)
		for _, item := range menu.ByCategory(cat) {
			fmt.Printf("  %-15s %-28s %5.2f\n", item.ID, item.Name, item.UnitPrice)
		}
	}
}

func printCart(ctrl *session.Controller, menu *catalog.Catalog) {
	c := ctrl.Cart()
	if c.Empty() {
		fmt.Println("cart is empty")
		return
	}
	for _, line := range c.Lines(menu) {
		name := line.ItemID
		if item, ok := menu.Get(line.ItemID); ok {
			name = item.Name
		}
		fmt.Printf("  %dx %s\n", line.Quantity, name)
	}
	if total, err := c.TotalPrice(menu); err == nil {
		fmt.Printf("  total: %.2f\n", total)
	}
}

func printOrders(ctrl *session.Controller) {
	orders := ctrl.Orders()
	if len(orders) == 0 {
		if err := ctrl.Err(); err != nil {
			fmt.Printf("order list unavailable: %v\n", err)
			return
		}
		fmt.Println("no active orders")
		return
	}
	for _, o := range orders {
		fmt.Printf("  %s  %-12s %.2f\n", shortID(o.ID), o.Status, o.TotalPrice)
	}
}

func printSubmitError(err error) {
	switch {
	case errors.Is(err, core.ErrEmptyOrder):
		fmt.Println("cart is empty, nothing to submit")
	case errors.Is(err, core.ErrSubmitInFlight):
		fmt.Println("previous submission still in flight")
	case errors.Is(err, core.ErrUnauthenticated):
		fmt.Println("device not registered, run 'register <name> <room>'")
	default:
		fmt.Printf("submission failed, cart kept: %v\n", err)
	}
}

// readyAnnouncer reports each completed order exactly once, so the
// banner does not repeat on every poll while the order stays listed
type readyAnnouncer struct {
	mu        sync.Mutex
	announced map[string]bool
}

func newReadyAnnouncer() *readyAnnouncer {
	return &readyAnnouncer{announced: make(map[string]bool)}
}

func (a *readyAnnouncer) newlyReady(orders []api.Order) []api.Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []api.Order
	for _, o := range orders {
		if o.Status == api.StatusCompleted && !a.announced[o.ID] {
			a.announced[o.ID] = true
			out = append(out, o)
		}
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
