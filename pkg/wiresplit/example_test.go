package wiresplit_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/wiresplit/pkg/splitter"
	"github.com/bft-labs/wiresplit/pkg/wiresplit"
)

// ExampleNew frames a capture file and prints every message.
func ExampleNew() {
	dir, _ := os.MkdirTemp("", "wiresplit-example")
	defer os.RemoveAll(dir)

	var capture []byte
	capture, _ = splitter.AppendFrame(capture, 49, []byte("zone"))
	capture, _ = splitter.AppendFrame(capture, 50, nil)
	path := filepath.Join(dir, "capture.bin")
	if err := os.WriteFile(path, capture, 0o644); err != nil {
		fmt.Println(err)
		return
	}

	cfg := wiresplit.DefaultConfig()
	cfg.File = path
	cfg.Sink = wiresplit.SinkDiscard

	w, err := wiresplit.New(cfg, wiresplit.WithEventHandler(&closeLogger{}))
	if err != nil {
		fmt.Printf("failed to create wiresplit: %v\n", err)
		return
	}
	if err := w.Start(context.Background()); err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}
	if err := w.Wait(); err != nil {
		fmt.Printf("run failed: %v\n", err)
		return
	}
	fmt.Println(w.Status())

	// Output:
	// stream closed: 2 frames, 20 bytes
	// Stopped
}

type closeLogger struct {
	wiresplit.BaseEventHandler
}

func (closeLogger) OnStreamClose(e wiresplit.StreamCloseEvent) {
	fmt.Printf("stream closed: %d frames, %d bytes\n", e.Frames, e.Bytes)
}

// Example_splitter shows the splitter on its own, fed one byte at a time.
func Example_splitter() {
	wire, _ := splitter.AppendFrame(nil, 7, []byte("hi"))

	sp, _ := splitter.New()
	for _, b := range wire {
		frames, err := sp.Feed([]byte{b})
		if err != nil {
			fmt.Println(err)
			return
		}
		for _, f := range frames {
			fmt.Printf("type=%d payload=%q\n", f.Type, f.Payload)
		}
	}

	// Output: type=7 payload="hi"
}
