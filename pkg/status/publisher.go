package status

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/itohio/hidroroll/pkg/logging"
	"github.com/itohio/hidroroll/pkg/state"
	"github.com/itohio/hidroroll/pkg/task"
)

// PublishInterval is the default status publishing period.
const PublishInterval = 3000 * time.Millisecond

// ErrUnexpectedStatus is returned when the collector answers with a non-2xx code.
var ErrUnexpectedStatus = errors.New("unexpected status")

// PublisherConfig locates the device resource on the collector.
type PublisherConfig struct {
	Identity Identity
	Path     string // Listing resource
	Query    string // Listing query used by Prime
}

// Publisher periodically sends the latest state to the collector. It only
// reads the state.
type Publisher struct {
	client Client
	latest *state.Latest
	logger logging.Logger
	cfg    PublisherConfig
}

// NewPublisher creates a publisher sending through client.
func NewPublisher(client Client, latest *state.Latest, logger logging.Logger, cfg PublisherConfig) *Publisher {
	return &Publisher{
		client: client,
		latest: latest,
		logger: logger,
		cfg:    cfg,
	}
}

// ResourcePath returns the path of this device's resource, Path/<fleet>.
func (p *Publisher) ResourcePath() string {
	return strings.TrimRight(p.cfg.Path, "/") + "/" + strconv.Itoa(p.cfg.Identity.Fleet)
}

// Prime issues the startup listing request and logs what came back. The
// result does not affect publishing.
func (p *Publisher) Prime(ctx context.Context) error {
	resp, err := p.client.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   p.cfg.Path,
		Query:  p.cfg.Query,
	})
	if err != nil {
		p.logger.Error("HTTP GET request failed: %v", err)
		return err
	}

	p.logger.Info("HTTP GET Status = %d, content_length = %d", resp.StatusCode, resp.ContentLength)
	p.logger.Info("%s", resp.Body)
	return nil
}

// Tick encodes the current snapshot and PATCHes it to the device resource.
func (p *Publisher) Tick(ctx context.Context) task.Result {
	buf := bytes.NewBuffer(make([]byte, 0, MaxPayloadSize))
	payload := NewPayload(p.cfg.Identity, p.latest.Snapshot())
	if err := Encode(buf, payload); err != nil {
		return task.Retry(fmt.Errorf("encode status: %w", err))
	}

	resp, err := p.client.Do(ctx, &Request{
		Method: http.MethodPatch,
		Path:   p.ResourcePath(),
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   buf.Bytes(),
	})
	if err != nil {
		return task.Retry(fmt.Errorf("HTTP PATCH request failed: %w", err))
	}

	p.logger.Info("HTTP PATCH Status = %d, content_length = %d", resp.StatusCode, resp.ContentLength)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return task.Retry(fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
	}
	return task.OK()
}

// Spec returns the task spec running every interval.
func (p *Publisher) Spec(interval time.Duration) task.Spec {
	if interval <= 0 {
		interval = PublishInterval
	}
	return task.Spec{Name: "status", Interval: interval, Tick: p.Tick}
}
