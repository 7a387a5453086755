// The staffboard command shows the unfiltered live order queue for bar
// staff and lets them mark orders ready.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tapstand/kiosk/api"
	"github.com/tapstand/kiosk/core"
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

	clientOpts := []api.ClientOption{
		api.WithLogger(logger),
		api.WithTimeout(cfg.HTTPTimeout),
	}
	if cfg.TracingEnabled {
		clientOpts = append(clientOpts, api.WithTracing())
	}
	client, err := api.NewClient(cfg.APIURL, clientOpts...)
	if err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}

	ctrl, err := session.New(session.Params{
		Client:       client,
		WebSocketURL: cfg.WebSocketURL,
		PollInterval: cfg.PollInterval,
		Logger:       logger,
		StaffView:    true,
		Notify:       printQueue,
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

	fmt.Println("Commands: ready <order-id>, quit")
	scanner := bufio.NewScanner(os.Stdin)
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
		case "ready":
			if len(fields) < 2 {
				fmt.Println("usage: ready <order-id>")
				break
			}
			id := resolveID(ctrl.Orders(), fields[1])
			if err := ctrl.MarkReady(ctx, id); err != nil {
				fmt.Printf("error: %v\n", err)
			}
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
		fmt.Print("> ")
	}
}

// resolveID lets staff type a short id prefix instead of the full UUID
func resolveID(orders []api.Order, prefix string) string {
	for _, o := range orders {
		if strings.HasPrefix(o.ID, prefix) {
			return o.ID
		}
	}
	return prefix
}

func printQueue(orders []api.Order) {
	fmt.Printf("\n--- queue (%d) ---\n", len(orders))
	for _, o := range orders {
		fmt.Printf("%s  %-12s %s\n", shortID(o.ID), o.Status, o.Timestamp.Format("15:04:05"))
		for _, line := range o.Items {
			fmt.Printf("    %dx %s\n", line.Quantity, line.Name)
		}
	}
	fmt.Print("> ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
