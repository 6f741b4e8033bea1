package webhook

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/crimson-sun/ensilo-events/internal/logging"
	"github.com/crimson-sun/ensilo-events/internal/model"
)

const (
	defaultBatchSize = 100
	defaultTimeout   = 10 * time.Second
)

// Option configures a webhook Output.
type Option func(*Output)

// WithHeaders sets custom HTTP headers sent with every POST.
func WithHeaders(h map[string]string) Option {
	return func(o *Output) { o.client.SetHeaders(h) }
}

// WithBatchSize sets the number of records accumulated before a POST. Default: 100.
func WithBatchSize(n int) Option {
	return func(o *Output) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *Output) { o.client.SetTimeout(d) }
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) Option {
	return func(o *Output) { o.client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: skip}) }
}

// Output POSTs records to an HTTP endpoint as JSON arrays. Records are sent
// once batchSize accumulate and on Close. Nothing is retried.
type Output struct {
	client    *resty.Client
	url       string
	batchSize int
	pending   []model.Record
}

// New creates a webhook output targeting url.
func New(url string, opts ...Option) *Output {
	o := &Output{
		client: resty.New().
			SetLogger(logging.RestyLogger()).
			SetTimeout(defaultTimeout).
			SetHeader("Content-Type", "application/json"),
		url:       url,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Write appends a record to the batch and flushes a full batch.
func (o *Output) Write(ctx context.Context, record model.Record) error {
	o.pending = append(o.pending, record)
	if len(o.pending) >= o.batchSize {
		return o.flush(ctx)
	}
	return nil
}

// Flush sends the pending partial batch.
func (o *Output) Flush(ctx context.Context) error {
	return o.flush(ctx)
}

// Close sends any remaining records.
func (o *Output) Close() error {
	return o.flush(context.Background())
}

func (o *Output) flush(ctx context.Context) error {
	if len(o.pending) == 0 {
		return nil
	}
	batch := o.pending
	o.pending = nil

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	resp, err := o.client.R().SetContext(ctx).SetBody(body).Post(o.url)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook: HTTP %d", resp.StatusCode())
	}
	return nil
}
