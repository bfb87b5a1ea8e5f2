// Package http delivers message batches to a remote collector.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"time"

	"golang.org/x/time/rate"

	"github.com/bft-labs/wiresplit/internal/domain"
	"github.com/bft-labs/wiresplit/internal/ports"
)

const framesEndpoint = "/v1/frames"

// Config holds the collector address and credentials.
type Config struct {
	ServiceURL string
	AuthKey    string
	// Hostname is sent as X-Agent-Hostname; defaults to os.Hostname().
	Hostname string
	// RequestsPerSecond caps the request rate; zero means unlimited.
	RequestsPerSecond float64
}

// wireMessage is the JSON form of a message. Payload is base64 encoded by
// encoding/json.
type wireMessage struct {
	Stream     string    `json:"stream_id"`
	Seq        uint64    `json:"seq"`
	Type       uint32    `json:"type"`
	Payload    []byte    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}

type wireBatch struct {
	Messages   []wireMessage `json:"messages"`
	TotalBytes int           `json:"total_bytes"`
}

// Sender implements ports.Sink by POSTing each batch as JSON.
type Sender struct {
	client  ports.HTTPClient
	config  Config
	logger  ports.Logger
	limiter *rate.Limiter
}

// NewSender creates a new HTTP sender.
func NewSender(client ports.HTTPClient, config Config, logger ports.Logger) *Sender {
	if config.Hostname == "" {
		config.Hostname, _ = os.Hostname()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	return &Sender{
		client:  client,
		config:  config,
		logger:  logger,
		limiter: limiter,
	}
}

// Deliver transmits a batch to the collector.
func (s *Sender) Deliver(ctx context.Context, batch *domain.Batch) error {
	if batch.Empty() {
		return nil
	}

	payload := wireBatch{
		Messages:   make([]wireMessage, len(batch.Messages)),
		TotalBytes: batch.TotalBytes,
	}
	for i, m := range batch.Messages {
		payload.Messages[i] = wireMessage{
			Stream:     m.StreamID,
			Seq:        m.Seq,
			Type:       m.Type,
			Payload:    m.Payload,
			ReceivedAt: m.ReceivedAt,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	url := s.config.ServiceURL + framesEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.AuthKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Agent-Hostname", s.config.Hostname)
	req.Header.Set("X-Agent-OSArch", runtime.GOOS+"/"+runtime.GOARCH)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	s.logger.Debug("batch sent",
		ports.Int("messages", batch.Size()),
		ports.Int("bytes", batch.TotalBytes),
	)
	return nil
}
