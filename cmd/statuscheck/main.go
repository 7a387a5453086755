// The statuscheck command fetches one order and prints its status.
// Exit code 0 means completed, 1 means still open, 2 means lookup
// failed; useful for scripting and health checks.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tapstand/kiosk/api"
	"github.com/tapstand/kiosk/core"
)

func main() {
	orderID := flag.String("order", "", "order id to check")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Parse()

	if *orderID == "" {
		log.Fatal("usage: statuscheck -order <id>")
	}

	cfg, err := core.NewConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	client, err := api.NewClient(cfg.APIURL, api.WithTimeout(*timeout))
	if err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	order, err := client.GetOrder(ctx, *orderID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lookup failed: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("%s  %s  %.2f\n", order.ID, order.Status, order.TotalPrice)
	if order.Status == api.StatusCompleted {
		os.Exit(0)
	}
	os.Exit(1)
}
