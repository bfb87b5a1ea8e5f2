package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/wiresplit/internal/domain"
	"github.com/bft-labs/wiresplit/pkg/log"
)

func TestSender_Deliver(t *testing.T) {
	var got wireBatch
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, framesEndpoint, r.URL.Path)
		header = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSender(srv.Client(), Config{ServiceURL: srv.URL, AuthKey: "secret", Hostname: "box"}, log.NewNoopLogger())

	batch := domain.NewBatch()
	batch.Add(domain.Message{StreamID: "s1", Seq: 1, Type: 7, Payload: []byte{0x00, 0xff}})
	batch.Add(domain.Message{StreamID: "s1", Seq: 2, Type: 8})
	require.NoError(t, s.Deliver(context.Background(), batch))

	assert.Equal(t, "Bearer secret", header.Get("Authorization"))
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Equal(t, "box", header.Get("X-Agent-Hostname"))

	require.Len(t, got.Messages, 2)
	assert.Equal(t, 18, got.TotalBytes)
	assert.Equal(t, uint32(7), got.Messages[0].Type)
	assert.Equal(t, []byte{0x00, 0xff}, got.Messages[0].Payload)
	assert.Equal(t, uint64(2), got.Messages[1].Seq)
}

func TestSender_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewSender(srv.Client(), Config{ServiceURL: srv.URL}, log.NewNoopLogger())
	batch := domain.NewBatch()
	batch.Add(domain.Message{Type: 1})

	err := s.Deliver(context.Background(), batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSender_EmptyBatch(t *testing.T) {
	s := NewSender(nil, Config{}, log.NewNoopLogger())
	assert.NoError(t, s.Deliver(context.Background(), domain.NewBatch()))
}

func TestSender_RateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	s := NewSender(srv.Client(), Config{ServiceURL: srv.URL, RequestsPerSecond: 1}, log.NewNoopLogger())
	batch := domain.NewBatch()
	batch.Add(domain.Message{Type: 1})

	require.NoError(t, s.Deliver(context.Background(), batch))

	// The second request has to wait about a second for a token.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.Error(t, s.Deliver(ctx, batch))
	assert.Equal(t, int32(1), hits.Load())
}
