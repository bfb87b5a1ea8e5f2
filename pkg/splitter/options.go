package splitter

// Option configures a Splitter.
type Option func(*options)

type options struct {
	capacity int
	failFast bool
}

func defaultOptions() options {
	return options{
		capacity: DefaultCapacity,
		failFast: true,
	}
}

// WithCapacity sets the buffer size. It bounds the bytes held at once,
// including any partially received header, so the largest frame accepted
// carries capacity-HeaderSize payload bytes.
func WithCapacity(n uint32) Option {
	return func(o *options) {
		o.capacity = int(n)
	}
}

// WithFailFast controls whether a header announcing a frame larger than the
// capacity fails immediately (the default) or only once the buffer would
// overflow on a later Feed.
func WithFailFast(enabled bool) Option {
	return func(o *options) {
		o.failFast = enabled
	}
}
