package transport

import (
	"bufio"
	"io"
)

func newByteReader(r io.Reader) io.ByteReader {
	return bufio.NewReader(r)
}
