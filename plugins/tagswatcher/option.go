package tagswatcher

import "github.com/bft-labs/wiresplit/pkg/wiresplit"

// WithTagsWatcher returns a wiresplit Option that reloads the tags file
// whenever it changes.
//
// Usage:
//
//	w, err := wiresplit.New(cfg,
//	    tagswatcher.WithTagsWatcher(tagswatcher.Config{
//	        DebounceDelay: 200 * time.Millisecond,
//	    }),
//	)
func WithTagsWatcher(cfg Config) wiresplit.Option {
	return wiresplit.WithPlugin(New(cfg))
}

// WithDefaultTagsWatcher enables tags reloading with default settings.
func WithDefaultTagsWatcher() wiresplit.Option {
	return WithTagsWatcher(DefaultConfig())
}
