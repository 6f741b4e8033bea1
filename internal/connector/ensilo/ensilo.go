// Package ensilo implements the connector for the enSilo (FortiEDR)
// management REST API.
package ensilo

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/crimson-sun/ensilo-events/internal/connector"
	"github.com/crimson-sun/ensilo-events/internal/connector/httpclient"
	"github.com/crimson-sun/ensilo-events/internal/model"
	"github.com/crimson-sun/ensilo-events/internal/window"
)

// Provider is the registry name of this connector.
const Provider = "ensilo"

const (
	eventsPath       = "/management-rest/events/list-events"
	systemEventsPath = "/management-rest/system-events/list-system-events"
)

func init() {
	connector.Register(Provider, func() connector.Connector {
		return &Connector{}
	})
}

// Connector implements connector.Connector for the enSilo management API.
type Connector struct{}

func (c *Connector) client(cfg connector.ConnectorConfig, token string, extra ...httpclient.Option) *httpclient.Client {
	opts := []httpclient.Option{httpclient.WithInsecureSkipVerify(!cfg.VerifyTLS)}
	opts = append(opts, extra...)
	return httpclient.New(cfg.Endpoint, token, opts...)
}

func withTimeout(ctx context.Context, cfg connector.ConnectorConfig) (context.Context, context.CancelFunc) {
	if cfg.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.RequestTimeout)
}

// Authenticate returns the configured token, or performs the basic-auth
// handshake against the system-events endpoint and returns the token from
// the X-Auth-Token response header.
func (c *Connector) Authenticate(ctx context.Context, cfg connector.ConnectorConfig) (string, error) {
	switch cfg.AuthMethod {
	case connector.AuthToken:
		if cfg.Token == "" {
			return "", fmt.Errorf("%w: auth_method is token but no token is set", connector.ErrConfiguration)
		}
		return cfg.Token, nil

	case connector.AuthBasic:
		if cfg.Username == "" || cfg.Password == "" {
			return "", fmt.Errorf("%w: auth_method is basic but username or password is empty", connector.ErrConfiguration)
		}
		slog.Info("attempting basic auth", "url", cfg.Endpoint+systemEventsPath)

		ctx, cancel := withTimeout(ctx, cfg)
		defer cancel()

		client := c.client(cfg, "", httpclient.WithBasicAuth(cfg.Username, cfg.Password))
		hdr, _, err := client.Get(ctx, systemEventsPath, nil)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", connector.ErrAuthentication, systemEventsPath, err)
		}
		token := hdr.Get(httpclient.TokenHeader)
		if token == "" {
			return "", fmt.Errorf("%w: response missing %s header", connector.ErrAuthentication, httpclient.TokenHeader)
		}
		return token, nil

	default:
		return "", fmt.Errorf("%w: auth_method %q", connector.ErrConfiguration, cfg.AuthMethod)
	}
}

// Events fetches behavioral events last seen inside w. The call has no
// timeout. Derived collector records follow the primary events.
func (c *Connector) Events(ctx context.Context, cfg connector.ConnectorConfig, token string, w window.Window) ([]model.Record, error) {
	q := url.Values{}
	q.Set("lastSeenFrom", w.From)
	q.Set("lastSeenTo", w.To)

	var raw []map[string]any
	if err := c.client(cfg, token).GetJSON(ctx, eventsPath, q, &raw); err != nil {
		return nil, fmt.Errorf("ensilo connector: list events: %w", err)
	}

	primary := make([]model.Record, 0, len(raw))
	var derived []model.Record
	for i, ev := range raw {
		if ev == nil {
			slog.Warn("skipping null entry in events response", "index", i)
			continue
		}
		rec, sub := NormalizeEvent(model.Record(ev), cfg.Location)
		primary = append(primary, rec)
		derived = append(derived, sub...)
	}
	return append(primary, derived...), nil
}

// SystemEvents fetches system events dated inside w, bounded by the
// request timeout.
func (c *Connector) SystemEvents(ctx context.Context, cfg connector.ConnectorConfig, token string, w window.Window) ([]model.Record, error) {
	ctx, cancel := withTimeout(ctx, cfg)
	defer cancel()

	q := url.Values{}
	q.Set("fromDate", w.From)
	q.Set("toDate", w.To)

	var raw []map[string]any
	if err := c.client(cfg, token).GetJSON(ctx, systemEventsPath, q, &raw); err != nil {
		return nil, fmt.Errorf("ensilo connector: list system events: %w", err)
	}

	out := make([]model.Record, 0, len(raw))
	for i, ev := range raw {
		if ev == nil {
			slog.Warn("skipping null entry in system events response", "index", i)
			continue
		}
		rec := model.Record(ev)
		rec["category"] = model.CategorySystemEvents
		out = append(out, rec)
	}
	return out, nil
}
