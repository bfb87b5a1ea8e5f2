package app

import (
	"github.com/bft-labs/wiresplit/internal/domain"
)

// Batcher accumulates messages until a size limit is reached.
type Batcher struct {
	batch         *domain.Batch
	maxBatchBytes int
}

// NewBatcher creates a batcher. maxBatchBytes <= 0 disables the size limit.
func NewBatcher(maxBatchBytes int) *Batcher {
	return &Batcher{
		batch:         domain.NewBatch(),
		maxBatchBytes: maxBatchBytes,
	}
}

// Fits reports whether m can join the current batch without exceeding the
// size limit. A message always fits an empty batch.
func (b *Batcher) Fits(m domain.Message) bool {
	if b.maxBatchBytes <= 0 || b.batch.Empty() {
		return true
	}
	return b.batch.TotalBytes+m.WireSize() <= b.maxBatchBytes
}

// Add appends m and reports whether the batch reached the size limit.
func (b *Batcher) Add(m domain.Message) bool {
	b.batch.Add(m)
	return b.maxBatchBytes > 0 && b.batch.TotalBytes >= b.maxBatchBytes
}

// Batch returns the current batch.
func (b *Batcher) Batch() *domain.Batch {
	return b.batch
}

// Reset clears the batch.
func (b *Batcher) Reset() {
	b.batch.Reset()
}

// HasPending returns true if there are messages waiting to be delivered.
func (b *Batcher) HasPending() bool {
	return !b.batch.Empty()
}
