// Package gen writes synthetic frame captures for testing sources and
// sinks end to end.
package gen

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/bft-labs/wiresplit/pkg/splitter"
)

// Options describes the capture to generate.
type Options struct {
	// Count is the number of frames.
	Count int
	// MaxPayload bounds each payload length; lengths are uniform in
	// [0, MaxPayload].
	MaxPayload int
	// Types is the number of distinct message types, numbered from 1.
	Types int
	// Seed makes the output reproducible.
	Seed int64
}

// Stats summarises what was written.
type Stats struct {
	Frames int
	Bytes  int
}

// Write generates frames into w.
func Write(w io.Writer, opts Options) (Stats, error) {
	var st Stats
	if opts.Count < 0 || opts.MaxPayload < 0 {
		return st, fmt.Errorf("gen: count and max payload must not be negative")
	}
	if opts.Types <= 0 {
		opts.Types = 1
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	bw := bufio.NewWriter(w)
	var frame []byte
	payload := make([]byte, opts.MaxPayload)

	for i := 0; i < opts.Count; i++ {
		n := rng.Intn(opts.MaxPayload + 1)
		rng.Read(payload[:n])
		typ := uint32(rng.Intn(opts.Types) + 1)

		var err error
		frame, err = splitter.AppendFrame(frame[:0], typ, payload[:n])
		if err != nil {
			return st, err
		}
		if _, err := bw.Write(frame); err != nil {
			return st, err
		}
		st.Frames++
		st.Bytes += len(frame)
	}
	return st, bw.Flush()
}

// WrapCompressed returns a writer compressing into w according to the
// extension of path (.gz or .zst/.zstd). Other paths are written as is.
// The returned close function must be called to flush the compressor.
func WrapCompressed(w io.Writer, path string) (io.Writer, func() error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zw := gzip.NewWriter(w)
		return zw, zw.Close, nil
	case ".zst", ".zstd":
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, err
		}
		return zw, zw.Close, nil
	}
	return w, func() error { return nil }, nil
}
