// Package session owns the live order view: the cached list of active
// orders, the submission path from cart to backend, and the refresh
// machinery that keeps the cache current via polling plus push
// wake-ups. The cache is authoritative-by-fetch: every update is a full
// re-fetch from the server, never a locally patched guess.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tapstand/kiosk/api"
	"github.com/tapstand/kiosk/cart"
	"github.com/tapstand/kiosk/core"
	"github.com/tapstand/kiosk/identity"
)

// State is the controller lifecycle state
type State int32

const (
	// StateDisconnected is the initial state before Start
	StateDisconnected State = iota
	// StateSyncing means Start is underway and no fetch has landed yet
	StateSyncing
	// StateLive means the last refresh succeeded
	StateLive
	// StateDegraded means the last refresh failed; polling continues
	StateDegraded
	// StateTerminated means Close ran; the controller is dead for good
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateSyncing:
		return "syncing"
	case StateLive:
		return "live"
	case StateDegraded:
		return "degraded"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// DefaultPollInterval is the fallback cadence when push is quiet
const DefaultPollInterval = 4 * time.Second

// Params configures a Controller
type Params struct {
	Client   *api.Client
	Cart     *cart.Cart
	Identity *identity.Manager

	// WebSocketURL enables the push channel when non-empty
	WebSocketURL string

	// PollInterval defaults to DefaultPollInterval; minimum one second
	PollInterval time.Duration

	Logger core.Logger

	// StaffView fetches the unfiltered order queue instead of one user's
	StaffView bool

	// Notify fires with a snapshot after every successful refresh
	Notify func(orders []api.Order)
}

// Controller drives one ordering session. Create with New, run with
// Start, and tear down with Close; a closed controller cannot be
// restarted.
type Controller struct {
	client    *api.Client
	cart      *cart.Cart
	identity  *identity.Manager
	wsURL     string
	pollEvery time.Duration
	logger    core.Logger
	staffView bool
	notify    func([]api.Order)

	mu                sync.Mutex
	state             State
	orders            []api.Order
	lastErr           error
	userID            string
	needsRegistration bool
	appliedSeq        uint64
	submitting        bool
	started           bool
	disposed          bool

	// refreshSeq orders concurrent refreshes so a slow response can
	// never overwrite a newer one
	refreshSeq atomic.Uint64

	kick   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stopped controller
func New(p Params) (*Controller, error) {
	if p.Client == nil {
		return nil, fmt.Errorf("session: nil api client: %w", core.ErrMissingConfiguration)
	}
	if p.Cart == nil {
		p.Cart = cart.New()
	}
	if p.Identity == nil && !p.StaffView {
		return nil, fmt.Errorf("session: nil identity manager: %w", core.ErrMissingConfiguration)
	}
	if p.Logger == nil {
		p.Logger = &core.NoOpLogger{}
	}
	if p.PollInterval <= 0 {
		p.PollInterval = DefaultPollInterval
	}
	if p.PollInterval < time.Second {
		return nil, fmt.Errorf("session: poll interval %s below 1s: %w", p.PollInterval, core.ErrInvalidConfiguration)
	}

	return &Controller{
		client:    p.Client,
		cart:      p.Cart,
		identity:  p.Identity,
		wsURL:     p.WebSocketURL,
		pollEvery: p.PollInterval,
		logger:    p.Logger,
		staffView: p.StaffView,
		notify:    p.Notify,
		state:     StateDisconnected,
		kick:      make(chan struct{}, 1),
	}, nil
}

// Start resolves the identity, runs the auth probe, performs the first
// refresh, and launches the poll loop and (once per controller
// lifetime) the push channel. Calling Start on a running controller
// fails; a failed Start may be retried; calling Start after Close
// fails with the terminated sentinel.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return fmt.Errorf("session: %w", core.ErrTerminated)
	}
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("session: %w", core.ErrAlreadyStarted)
	}
	c.started = true
	c.state = StateSyncing
	c.mu.Unlock()

	// A failed Start rewinds to Disconnected so the caller can retry on
	// the same instance; only Close is terminal.
	fail := func(err error) error {
		c.mu.Lock()
		c.started = false
		c.state = StateDisconnected
		c.mu.Unlock()
		return err
	}

	if !c.staffView {
		userID, err := c.identity.UserID(ctx)
		if err != nil {
			return fail(fmt.Errorf("session: resolving identity: %w", err))
		}
		c.mu.Lock()
		c.userID = userID
		c.mu.Unlock()
	}

	// Probe the stored credential up front so a revoked token surfaces
	// as a registration prompt instead of a mid-session surprise.
	if c.identity != nil {
		registered, err := c.identity.Registered(ctx)
		if err != nil {
			return fail(fmt.Errorf("session: %w", err))
		}
		if registered {
			if err := c.CheckAuth(ctx); err != nil && !errors.Is(err, core.ErrUnauthenticated) {
				c.logger.Warn("Auth probe failed", map[string]interface{}{
					"operation": "session.Start",
					"error":     err.Error(),
				})
			}
		} else {
			c.mu.Lock()
			c.needsRegistration = true
			c.mu.Unlock()
		}
	}

	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("Initial refresh failed, continuing degraded", map[string]interface{}{
			"operation": "session.Start",
			"error":     err.Error(),
		})
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.pollLoop(runCtx)

	if c.wsURL != "" {
		ch := &statusChannel{
			url:    c.wsURL,
			logger: c.logger,
			onEvent: func(api.StatusEvent) {
				c.wake()
			},
			onDown: func(error) {
				// Polling keeps the cache fresh while the channel heals
			},
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			ch.run(runCtx)
		}()
	}

	c.logger.Info("Session started", map[string]interface{}{
		"operation":     "session.Start",
		"user_id":       c.UserID(),
		"staff_view":    c.staffView,
		"poll_interval": c.pollEvery.String(),
		"push_enabled":  c.wsURL != "",
	})
	return nil
}

func (c *Controller) pollLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-c.kick:
		}
		if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
			c.logger.Debug("Refresh failed", map[string]interface{}{
				"operation": "session.pollLoop",
				"error":     err.Error(),
			})
		}
	}
}

// wake nudges the poll loop to refresh now instead of at the next tick
func (c *Controller) wake() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// Refresh re-fetches the order list and replaces the cache. Responses
// apply last-writer-wins: a refresh that finishes after a newer one is
// discarded whole. On failure the cache resets to empty so the caller
// never renders stale orders as current.
func (c *Controller) Refresh(ctx context.Context) error {
	seq := c.refreshSeq.Add(1)
	orders, err := c.client.ListOrders(ctx, c.UserID())

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	if seq <= c.appliedSeq {
		// A newer refresh already landed
		c.mu.Unlock()
		return nil
	}
	c.appliedSeq = seq

	if err != nil {
		c.orders = nil
		c.lastErr = err
		c.state = StateDegraded
		if errors.Is(err, core.ErrUnauthenticated) {
			c.needsRegistration = true
		}
		c.mu.Unlock()
		return err
	}

	c.orders = orders
	c.lastErr = nil
	c.state = StateLive
	var snapshot []api.Order
	if c.notify != nil {
		snapshot = append([]api.Order(nil), orders...)
	}
	c.mu.Unlock()

	if c.notify != nil {
		c.notify(snapshot)
	}
	return nil
}

// Submit sends the cart as a new order. The cart is validated before
// any network traffic and cleared only after the server accepts: a
// failed submission leaves the cart intact for retry. One submission
// runs at a time.
func (c *Controller) Submit(ctx context.Context) (*api.Order, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, fmt.Errorf("session: %w", core.ErrTerminated)
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, fmt.Errorf("session: %w", core.ErrSubmitInFlight)
	}
	c.submitting = true
	userID := c.userID
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	req, err := c.cart.ToOrderRequest(userID)
	if err != nil {
		return nil, err
	}

	order, err := c.client.CreateOrder(ctx, req)
	if err != nil {
		// Cart stays untouched so the user can retry
		return nil, &core.SessionError{Op: "session.Submit", Kind: "network", Err: err}
	}

	c.cart.Clear()
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("Post-submit refresh failed", map[string]interface{}{
			"operation": "session.Submit",
			"order_id":  order.ID,
			"error":     err.Error(),
		})
	}
	return order, nil
}

// MarkReady transitions an order to completed (staff action). The order
// disappears from the cache immediately; if the server rejects the
// transition the removal is rolled back, unless a fresh fetch has
// replaced the cache in the meantime.
func (c *Controller) MarkReady(ctx context.Context, orderID string) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return fmt.Errorf("session: %w", core.ErrTerminated)
	}
	idx := -1
	for i := range c.orders {
		if c.orders[i].ID == orderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("session: order %s not in cache: %w", orderID, core.ErrRequestFailed)
	}
	removed := c.orders[idx]
	removedSeq := c.appliedSeq
	c.orders = append(c.orders[:idx:idx], c.orders[idx+1:]...)
	c.mu.Unlock()

	if err := c.client.UpdateOrderStatus(ctx, orderID, api.StatusCompleted); err != nil {
		c.mu.Lock()
		// Roll back only into the same cache generation; a newer fetch
		// is authoritative and must not be patched.
		if !c.disposed && c.appliedSeq == removedSeq {
			if idx > len(c.orders) {
				idx = len(c.orders)
			}
			c.orders = append(c.orders[:idx], append([]api.Order{removed}, c.orders[idx:]...)...)
		}
		c.mu.Unlock()
		return &core.SessionError{Op: "session.MarkReady", Kind: "network", ID: orderID, Err: err}
	}

	c.wake()
	return nil
}

// Register registers this device, persists the issued credential, and
// clears the re-registration flag.
func (c *Controller) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	resp, err := c.client.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("session: register: %w", err)
	}
	if c.identity != nil {
		if err := c.identity.SetDeviceToken(ctx, resp.DeviceToken); err != nil {
			return nil, fmt.Errorf("session: register: %w", err)
		}
	}
	c.mu.Lock()
	c.needsRegistration = false
	c.mu.Unlock()

	c.logger.Info("Device registered", map[string]interface{}{
		"operation": "session.Register",
		"device_id": resp.DeviceID,
		"room_id":   resp.RoomID,
	})
	c.wake()
	return resp, nil
}

// Rooms lists the registerable rooms
func (c *Controller) Rooms(ctx context.Context) ([]api.Room, error) {
	return c.client.ListRooms(ctx)
}

// CheckAuth probes the stored credential. An unauthenticated result
// flips the re-registration flag; the token itself is already deleted
// by the client's 401 handling.
func (c *Controller) CheckAuth(ctx context.Context) error {
	err := c.client.TabPing(ctx)
	if errors.Is(err, core.ErrUnauthenticated) {
		c.mu.Lock()
		c.needsRegistration = true
		c.mu.Unlock()
	}
	return err
}

// Close tears the controller down: the poll loop and push channel stop,
// and every later operation fails with the terminated sentinel. Safe to
// call more than once.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	c.state = StateTerminated
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	c.logger.Info("Session closed", map[string]interface{}{
		"operation": "session.Close",
	})
	return nil
}

// State reports the current lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Orders returns a copy of the cached order list
func (c *Controller) Orders() []api.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.Order(nil), c.orders...)
}

// Err reports the error from the last refresh, nil when live
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// NeedsRegistration reports whether the device must (re)register
func (c *Controller) NeedsRegistration() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.needsRegistration
}

// Cart exposes the draft order this controller submits from
func (c *Controller) Cart() *cart.Cart {
	return c.cart
}

// UserID is the resolved user id, empty in staff view
func (c *Controller) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}
