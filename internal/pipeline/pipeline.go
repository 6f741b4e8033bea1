// Package pipeline runs one poll cycle: authenticate, compute the query
// window, fetch both event categories, forward them, then advance the
// watermark.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/ensilo-events/internal/connector"
	"github.com/crimson-sun/ensilo-events/internal/mapping"
	"github.com/crimson-sun/ensilo-events/internal/metrics"
	"github.com/crimson-sun/ensilo-events/internal/model"
	"github.com/crimson-sun/ensilo-events/internal/output"
	"github.com/crimson-sun/ensilo-events/internal/state"
	"github.com/crimson-sun/ensilo-events/internal/window"
)

// CycleContext holds the values resolved at the start of a cycle. It is
// built once and passed by value to every step.
type CycleContext struct {
	RunID    string
	Token    string
	Window   window.Window
	Location *time.Location
}

// Result summarizes a completed cycle.
type Result struct {
	RunID        string
	Window       window.Window
	Events       int
	SystemEvents int
}

// Settings are the per-deployment inputs of a cycle.
type Settings struct {
	Connector    connector.ConnectorConfig
	Offset       time.Duration
	Events       *mapping.FieldMapping // nil means mapping.DefaultEvents
	SystemEvents *mapping.FieldMapping // nil means mapping.DefaultSystemEvents
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithMetrics records cycle outcomes into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// Pipeline connects a connector, watermark store and output into a poll cycle.
type Pipeline struct {
	connector connector.Connector
	state     state.Store
	output    output.Output
	cfg       connector.ConnectorConfig
	offset    time.Duration
	events    *mapping.FieldMapping
	system    *mapping.FieldMapping
	now       func() time.Time
	metrics   *metrics.Metrics
}

// New creates a Pipeline from the given components.
func New(conn connector.Connector, store state.Store, out output.Output, s Settings, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		connector: conn,
		state:     store,
		output:    out,
		cfg:       s.Connector,
		offset:    s.Offset,
		events:    s.Events,
		system:    s.SystemEvents,
		now:       time.Now,
	}
	var err error
	if p.events == nil {
		if p.events, err = mapping.New(model.CategoryEvents, mapping.DefaultEvents); err != nil {
			return nil, err
		}
	}
	if p.system == nil {
		if p.system, err = mapping.New(model.CategorySystemEvents, mapping.DefaultSystemEvents); err != nil {
			return nil, err
		}
	}
	if p.events.Category() != model.CategoryEvents || p.system.Category() != model.CategorySystemEvents {
		return nil, fmt.Errorf("%w: field mappings assigned to the wrong category", connector.ErrConfiguration)
	}
	if p.cfg.Location == nil {
		p.cfg.Location = time.UTC
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Authenticate resolves the API token without fetching anything.
func (p *Pipeline) Authenticate(ctx context.Context) (string, error) {
	token, err := p.connector.Authenticate(ctx, p.cfg)
	if err != nil {
		return "", fmt.Errorf("pipeline auth: %w", err)
	}
	return token, nil
}

// Run executes one poll cycle. The watermark is saved only after both
// fetches succeeded and every record was written and flushed.
func (p *Pipeline) Run(ctx context.Context) (res Result, err error) {
	start := p.now()
	runID := uuid.NewString()
	log := slog.With("run_id", runID)
	defer func() {
		p.metrics.Finish(start, p.now(), err)
		if err != nil {
			log.Error("poll cycle failed", "error", err)
		}
	}()

	token, err := p.Authenticate(ctx)
	if err != nil {
		return Result{}, err
	}

	last, err := p.state.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline load watermark: %w", err)
	}
	w, err := window.Compute(start, last, p.offset, p.cfg.Location)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline window: %w", err)
	}

	cc := CycleContext{RunID: runID, Token: token, Window: w, Location: p.cfg.Location}
	log.Info("poll cycle started", "from", w.From, "to", w.To, "first_run", last == "")

	events, err := p.connector.Events(ctx, p.cfg, cc.Token, cc.Window)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline events: %w", err)
	}
	system, err := p.connector.SystemEvents(ctx, p.cfg, cc.Token, cc.Window)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline system events: %w", err)
	}

	res = Result{RunID: runID, Window: w}
	if res.Events, err = p.forward(ctx, log, events, p.events, false); err != nil {
		return res, err
	}
	if res.SystemEvents, err = p.forward(ctx, log, system, p.system, true); err != nil {
		return res, err
	}

	if err := p.output.Flush(ctx); err != nil {
		return res, fmt.Errorf("pipeline flush outputs: %w", err)
	}
	if err := p.state.Save(ctx, cc.Window.To); err != nil {
		return res, fmt.Errorf("pipeline save watermark: %w", err)
	}
	log.Info("poll cycle done", "events", res.Events, "system_events", res.SystemEvents, "watermark", cc.Window.To)
	return res, nil
}

func (p *Pipeline) forward(ctx context.Context, log *slog.Logger, records []model.Record, m *mapping.FieldMapping, flatten bool) (int, error) {
	if len(records) == 0 {
		log.Info("no records to send", "category", m.Category())
		return 0, nil
	}
	log.Info("sending records", "category", m.Category(), "count", len(records))
	for i, r := range records {
		if flatten {
			r = mapping.Flatten(r)
		}
		if err := p.output.Write(ctx, m.Apply(r)); err != nil {
			p.metrics.Forwarded(m.Category(), i)
			return i, fmt.Errorf("pipeline output %s: %w", m.Category(), err)
		}
	}
	p.metrics.Forwarded(m.Category(), len(records))
	return len(records), nil
}

// Close shuts down the output and the watermark store.
func (p *Pipeline) Close() error {
	outErr := p.output.Close()
	stateErr := p.state.Close()
	if outErr != nil {
		return outErr
	}
	return stateErr
}
