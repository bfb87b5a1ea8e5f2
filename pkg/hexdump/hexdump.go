// Package hexdump renders byte slices as offset/hex/ASCII lines for
// diagnostics.
package hexdump

import (
	"fmt"
	"io"
	"strings"
)

// Width is the number of bytes rendered per line.
const Width = 16

// Dump writes one line per Width bytes of data to w:
//
//	00000000:  68 65 6c 6c 6f                                    |hello|
//
// Bytes outside printable ASCII, and the backslash, are shown as '.'.
func Dump(w io.Writer, data []byte) error {
	for off := 0; off < len(data); off += Width {
		if _, err := io.WriteString(w, line(off, data[off:min(off+Width, len(data))])); err != nil {
			return err
		}
	}
	return nil
}

// String returns the dump of data, without a trailing newline.
func String(data []byte) string {
	var sb strings.Builder
	_ = Dump(&sb, data)
	return strings.TrimSuffix(sb.String(), "\n")
}

func line(off int, chunk []byte) string {
	hex := make([]string, len(chunk))
	printable := make([]byte, len(chunk))
	for i, b := range chunk {
		hex[i] = fmt.Sprintf("%02x", b)
		printable[i] = filter(b)
	}
	return fmt.Sprintf("%08x:  %-*s  |%s|\n", off, Width*3-1, strings.Join(hex, " "), printable)
}

func filter(b byte) byte {
	if b < 0x20 || b > 0x7e || b == '\\' {
		return '.'
	}
	return b
}
