package hexdump

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString_SingleLine(t *testing.T) {
	got := String([]byte("hello"))
	want := "00000000:  68 65 6c 6c 6f" + strings.Repeat(" ", 47-14) + "  |hello|"
	assert.Equal(t, want, got)
}

func TestDump_MultipleLines(t *testing.T) {
	data := append([]byte("0123456789abcdef"), 0x00, '\\', 0x7f, 'A')

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, data))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "00000000:  30 31 32 33 34 35 36 37 38 39 61 62 63 64 65 66  |0123456789abcdef|", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "00000010:  00 5c 7f 41 "))
	assert.True(t, strings.HasSuffix(lines[1], "  |...A|"))
	assert.Len(t, lines[1], len(lines[0])-12)
}

func TestDump_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, nil))
	assert.Empty(t, buf.String())
	assert.Empty(t, String(nil))
}
