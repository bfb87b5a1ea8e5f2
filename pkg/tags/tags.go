// Package tags maps message tag codes and enumerated tag values to
// human-readable names.
//
// Negative codes are reserved for locally defined pseudo-tags. Non-negative
// codes are looked up in the registry, which is usually loaded from a TOML
// file describing the protocol:
//
//	[tags]
//	49 = "ZONE"
//	202 = "CARDTYPE"
//
//	[enums.ZONE]
//	1 = "PLAY"
//	2 = "DECK"
//
// Enum tables may be keyed by tag name or by tag code.
package tags

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Pseudo-tags that do not exist on the wire.
const (
	CustomName int64 = -1
	PowerName  int64 = -2
)

// Registry resolves tag codes and values. The zero value is not usable;
// create one with NewRegistry, Load or LoadFile.
type Registry struct {
	mu    sync.RWMutex
	names map[int64]string
	enums map[int64]map[int64]string
}

// NewRegistry returns a registry holding only the pseudo-tags.
func NewRegistry() *Registry {
	return &Registry{
		names: map[int64]string{
			CustomName: "CUSTOM_NAME",
			PowerName:  "POWER_NAME",
		},
		enums: make(map[int64]map[int64]string),
	}
}

// Register names a tag code. Registering a negative code defines a
// pseudo-tag.
func (r *Registry) Register(code int64, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[code] = name
}

// RegisterEnum attaches a value table to a tag.
func (r *Registry) RegisterEnum(tag int64, values map[int64]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	table := make(map[int64]string, len(values))
	for k, v := range values {
		table[k] = v
	}
	r.enums[tag] = table
}

// Name returns the name of a tag code, or TAG_<code> when unknown.
func (r *Registry) Name(code int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.names[code]; ok {
		return name
	}
	return fmt.Sprintf("TAG_%d", code)
}

// Value renders a tag value. Tags with an enum table render as
// "value:NAME"; everything else renders as the decimal value.
func (r *Registry) Value(tag, value int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if table, ok := r.enums[tag]; ok {
		if name, ok := table[value]; ok {
			return fmt.Sprintf("%d:%s", value, name)
		}
	}
	return strconv.FormatInt(value, 10)
}

// Len returns the number of named tags, pseudo-tags included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Replace swaps in the contents of other, keeping r usable by callers that
// already hold it.
func (r *Registry) Replace(other *Registry) {
	other.mu.RLock()
	names := make(map[int64]string, len(other.names))
	for k, v := range other.names {
		names[k] = v
	}
	enums := make(map[int64]map[int64]string, len(other.enums))
	for k, v := range other.enums {
		enums[k] = v
	}
	other.mu.RUnlock()

	r.mu.Lock()
	r.names = names
	r.enums = enums
	r.mu.Unlock()
}

type fileFormat struct {
	Tags  map[string]string            `toml:"tags"`
	Enums map[string]map[string]string `toml:"enums"`
}

// LoadFile reads a TOML tag definition file.
func LoadFile(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := Load(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Load parses a TOML tag definition document.
func Load(data []byte) (*Registry, error) {
	var ff fileFormat
	if err := toml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parse tags: %w", err)
	}

	r := NewRegistry()
	byName := make(map[string]int64, len(ff.Tags))
	for k, name := range ff.Tags {
		code, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("tag code %q: %w", k, err)
		}
		r.names[code] = name
		byName[name] = code
	}

	for key, values := range ff.Enums {
		tag, ok := byName[key]
		if !ok {
			code, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("enum %q: unknown tag", key)
			}
			tag = code
		}
		table := make(map[int64]string, len(values))
		for k, name := range values {
			v, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("enum %q value %q: %w", key, k, err)
			}
			table[v] = name
		}
		r.enums[tag] = table
	}
	return r, nil
}
