// Package dump prints reassembled messages in a human-readable form.
package dump

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/bft-labs/wiresplit/internal/domain"
	"github.com/bft-labs/wiresplit/pkg/hexdump"
	"github.com/bft-labs/wiresplit/pkg/tags"
)

// Sink writes one line per message, optionally followed by a hex dump of
// the payload.
type Sink struct {
	w       io.Writer
	tags    *tags.Registry
	hexdump bool
}

// New creates a dump sink. A nil registry prints TAG_<code> names.
func New(w io.Writer, registry *tags.Registry, withHexdump bool) *Sink {
	if registry == nil {
		registry = tags.NewRegistry()
	}
	return &Sink{w: w, tags: registry, hexdump: withHexdump}
}

// Deliver writes every message of the batch.
func (s *Sink) Deliver(ctx context.Context, batch *domain.Batch) error {
	bw := bufio.NewWriter(s.w)
	for _, m := range batch.Messages {
		fmt.Fprintf(bw, "[%s] #%d type=%s(%d) len=%d\n",
			shortID(m.StreamID), m.Seq, s.tags.Name(int64(m.Type)), m.Type, len(m.Payload))
		if s.hexdump && len(m.Payload) > 0 {
			if err := hexdump.Dump(bw, m.Payload); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
