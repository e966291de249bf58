package trajectory

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
)

var itemPrefix = []byte("ITEM:")

// lineReader hands out lines of a text stream while tracking the absolute
// byte offset of the next unread byte.
type lineReader struct {
	r   *bufio.Reader
	pos int64
	buf []byte
}

func newLineReader(r io.Reader, base int64) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024), pos: base}
}

// next returns the next line without its terminator. The returned slice is
// only valid until the following call.
func (lr *lineReader) next() ([]byte, error) {
	line, err := lr.r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		lr.buf = append(lr.buf[:0], line...)
		for errors.Is(err, bufio.ErrBufferFull) {
			line, err = lr.r.ReadSlice('\n')
			lr.buf = append(lr.buf, line...)
		}
		line = lr.buf
	}
	lr.pos += int64(len(line))
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return bytes.TrimRight(line, "\r\n"), nil
		}
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

// item returns the marker text following "ITEM:" and whether line is a marker.
func item(line []byte) (string, bool) {
	trimmed := bytes.TrimSpace(line)
	if !bytes.HasPrefix(trimmed, itemPrefix) {
		return "", false
	}
	return string(bytes.TrimSpace(trimmed[len(itemPrefix):])), true
}

func parseInt(b []byte) (int64, error) {
	return strconv.ParseInt(string(bytes.TrimSpace(b)), 10, 64)
}
