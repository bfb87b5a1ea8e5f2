package file

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/wiresplit/pkg/log"
)

func readAll(t *testing.T, ctx context.Context, st interface {
	Read(context.Context, []byte) (int, error)
}) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 7)
	for {
		n, err := st.Read(ctx, buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
	}
}

func TestSource_PlainFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	want := []byte("plain capture bytes")
	require.NoError(t, afero.WriteFile(fs, "/cap.bin", want, 0o644))

	src := New(Config{Path: "/cap.bin", Fs: fs}, log.NewNoopLogger())
	ctx := context.Background()
	require.NoError(t, src.Open(ctx))
	assert.Equal(t, "file:/cap.bin", src.Name())

	st, err := src.Accept(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, st.ID())
	assert.Equal(t, want, readAll(t, ctx, st))
	require.NoError(t, st.Close())

	_, err = src.Accept(ctx)
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, src.Close())
}

func TestSource_Compressed(t *testing.T) {
	want := bytes.Repeat([]byte("compressed frames "), 50)

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write(want)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zst := enc.EncodeAll(want, nil)
	require.NoError(t, enc.Close())

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cap.gz", gz.Bytes(), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/cap.zst", zst, 0o644))

	for _, path := range []string{"/cap.gz", "/cap.zst"} {
		t.Run(path, func(t *testing.T) {
			src := New(Config{Path: path, Fs: fs}, log.NewNoopLogger())
			ctx := context.Background()
			require.NoError(t, src.Open(ctx))

			st, err := src.Accept(ctx)
			require.NoError(t, err)
			defer st.Close()
			assert.Equal(t, want, readAll(t, ctx, st))
		})
	}
}

func TestSource_OpenErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/dir", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/cap.gz", []byte{}, 0o644))
	ctx := context.Background()

	assert.Error(t, New(Config{Path: "/missing", Fs: fs}, log.NewNoopLogger()).Open(ctx))
	assert.Error(t, New(Config{Path: "/dir", Fs: fs}, log.NewNoopLogger()).Open(ctx))
	assert.ErrorIs(t,
		New(Config{Path: "/cap.gz", Fs: fs, Follow: true}, log.NewNoopLogger()).Open(ctx),
		ErrFollowCompressed)
}

func TestSource_FollowPicksUpAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.bin")
	require.NoError(t, os.WriteFile(path, []byte("head"), 0o644))

	src := New(Config{Path: path, Follow: true, PollInterval: 20 * time.Millisecond}, log.NewNoopLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, src.Open(ctx))

	st, err := src.Accept(ctx)
	require.NoError(t, err)
	defer st.Close()

	buf := make([]byte, 16)
	n, err := st.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "head", string(buf[:n]))

	go func() {
		time.Sleep(50 * time.Millisecond)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return
		}
		defer f.Close()
		_, _ = f.Write([]byte("tail"))
	}()

	n, err = st.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "tail", string(buf[:n]))
}

func TestSource_FollowStopsOnCancel(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/live.bin", nil, 0o644))

	src := New(Config{Path: "/live.bin", Fs: fs, Follow: true, PollInterval: 10 * time.Millisecond}, log.NewNoopLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, src.Open(ctx))

	st, err := src.Accept(ctx)
	require.NoError(t, err)
	defer st.Close()

	_, err = st.Read(ctx, make([]byte, 8))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// stallReader never makes progress.
type stallReader struct{ calls int }

func (r *stallReader) Read(p []byte) (int, error) {
	r.calls++
	return 0, nil
}

func TestStream_EmptyReadsGiveUp(t *testing.T) {
	r := &stallReader{}
	st := &stream{id: "stall", r: r}

	_, err := st.Read(context.Background(), make([]byte, 8))
	assert.ErrorIs(t, err, io.ErrNoProgress)
	assert.Equal(t, maxEmptyReads, r.calls)
}
