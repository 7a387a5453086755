package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tapstand/kiosk/core"
)

// Manager resolves the device identity on top of a Store. It satisfies
// the api package's TokenStore, so the same object feeds the Device
// auth header and absorbs 401 invalidation.
type Manager struct {
	store  Store
	logger core.Logger
}

// NewManager wraps a store. A nil logger falls back to no-op.
func NewManager(store Store, logger core.Logger) *Manager {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &Manager{store: store, logger: logger}
}

// UserID returns the stable anonymous user id, minting and persisting
// a fresh UUID on first use.
func (m *Manager) UserID(ctx context.Context) (string, error) {
	id, err := m.store.Get(ctx, KeyUserID)
	if err != nil {
		return "", fmt.Errorf("loading user id: %w", err)
	}
	if id != "" {
		return id, nil
	}

	id = uuid.New().String()
	if err := m.store.Set(ctx, KeyUserID, id); err != nil {
		return "", fmt.Errorf("persisting user id: %w", err)
	}
	m.logger.Info("Minted new user identity", map[string]interface{}{
		"operation": "identity.UserID",
		"user_id":   id,
	})
	return id, nil
}

// DeviceToken returns the stored device credential, empty when the
// device has never registered or the token was invalidated.
func (m *Manager) DeviceToken(ctx context.Context) (string, error) {
	tok, err := m.store.Get(ctx, KeyDeviceToken)
	if err != nil {
		return "", fmt.Errorf("loading device token: %w", err)
	}
	return tok, nil
}

// SetDeviceToken persists a freshly issued credential
func (m *Manager) SetDeviceToken(ctx context.Context, token string) error {
	if err := m.store.Set(ctx, KeyDeviceToken, token); err != nil {
		return fmt.Errorf("persisting device token: %w", err)
	}
	return nil
}

// DeleteDeviceToken drops the stored credential. Called on 401 so the
// device re-enters the registration flow.
func (m *Manager) DeleteDeviceToken(ctx context.Context) error {
	if err := m.store.Delete(ctx, KeyDeviceToken); err != nil {
		return fmt.Errorf("deleting device token: %w", err)
	}
	return nil
}

// Registered reports whether a device credential is present
func (m *Manager) Registered(ctx context.Context) (bool, error) {
	tok, err := m.DeviceToken(ctx)
	if err != nil {
		return false, err
	}
	return tok != "", nil
}
