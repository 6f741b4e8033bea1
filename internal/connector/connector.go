package connector

import (
	"context"
	"errors"
	"time"

	"github.com/crimson-sun/ensilo-events/internal/model"
	"github.com/crimson-sun/ensilo-events/internal/window"
)

// Auth methods accepted in ConnectorConfig.AuthMethod.
const (
	AuthBasic = "basic"
	AuthToken = "token"
)

var (
	// ErrConfiguration marks an invalid or incomplete connector setup.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrAuthentication marks a failed token handshake.
	ErrAuthentication = errors.New("authentication failed")
)

// Connector defines the interface all event source connectors implement.
type Connector interface {
	// Authenticate resolves the token used by the fetch calls.
	Authenticate(ctx context.Context, cfg ConnectorConfig) (string, error)

	// Events fetches behavioral events seen inside the window.
	Events(ctx context.Context, cfg ConnectorConfig, token string, w window.Window) ([]model.Record, error)

	// SystemEvents fetches system events dated inside the window.
	SystemEvents(ctx context.Context, cfg ConnectorConfig, token string, w window.Window) ([]model.Record, error)
}

// ConnectorConfig holds provider-specific connection settings.
type ConnectorConfig struct {
	Provider       string
	Endpoint       string
	AuthMethod     string
	Username       string
	Password       string
	Token          string
	Location       *time.Location
	RequestTimeout time.Duration // auth and system-events calls; 0 = none
	VerifyTLS      bool
}
