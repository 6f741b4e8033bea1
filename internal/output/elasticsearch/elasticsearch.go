// Package elasticsearch indexes forwarded records as Elasticsearch documents.
package elasticsearch

import (
	"bytes"
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/crimson-sun/ensilo-events/internal/model"
	"github.com/crimson-sun/ensilo-events/internal/output"
)

// DefaultIndex receives records when no index is configured.
const DefaultIndex = "ensilo-events"

// Output indexes each record as one document.
type Output struct {
	client *elasticsearch.Client
	index  string
}

// New creates an Output for the cluster at addresses.
func New(addresses []string, index string) (*Output, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch output: %w", err)
	}
	return NewWithClient(client, index), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *elasticsearch.Client, index string) *Output {
	if index == "" {
		index = DefaultIndex
	}
	return &Output{client: client, index: index}
}

func (o *Output) Write(ctx context.Context, record model.Record) error {
	data, err := output.Marshal(record)
	if err != nil {
		return fmt.Errorf("elasticsearch output: %w", err)
	}

	res, err := o.client.Index(
		o.index,
		bytes.NewReader(data),
		o.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch output: index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch output: %s", res.String())
	}
	return nil
}

// Flush is a no-op; each Write indexes synchronously.
func (o *Output) Flush(context.Context) error { return nil }

func (o *Output) Close() error {
	return nil
}
