package domain

// Batch is an ordered group of messages handed to a sink together.
type Batch struct {
	// Messages in arrival order.
	Messages []Message

	// TotalBytes is the sum of the messages' wire sizes.
	TotalBytes int
}

// NewBatch creates a new empty batch.
func NewBatch() *Batch {
	return &Batch{
		Messages: make([]Message, 0),
	}
}

// Add appends a message to the batch.
func (b *Batch) Add(m Message) {
	b.Messages = append(b.Messages, m)
	b.TotalBytes += m.WireSize()
}

// Size returns the number of messages in the batch.
func (b *Batch) Size() int {
	return len(b.Messages)
}

// Empty returns true if the batch has no messages.
func (b *Batch) Empty() bool {
	return len(b.Messages) == 0
}

// Reset clears the batch for reuse.
func (b *Batch) Reset() {
	b.Messages = b.Messages[:0]
	b.TotalBytes = 0
}

// Last returns the last message in the batch, or nil if empty.
func (b *Batch) Last() *Message {
	if len(b.Messages) == 0 {
		return nil
	}
	return &b.Messages[len(b.Messages)-1]
}
