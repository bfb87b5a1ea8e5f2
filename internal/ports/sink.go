package ports

import (
	"context"

	"github.com/bft-labs/wiresplit/internal/domain"
)

// Sink consumes batches of reassembled messages.
// Implementations handle presentation, serialization or forwarding.
type Sink interface {
	// Deliver hands a batch to the sink. The batch is reused after Deliver
	// returns, so implementations must not retain it.
	// Returns nil on success, error on failure.
	Deliver(ctx context.Context, batch *domain.Batch) error
}
