// Read buffer over the byte source.
//
// The cursor owns one backing slice. Bytes [start, end) are the live window
// that the Reader scans; every offset held in a BufferPosition is relative to
// the start of that window. Bytes before start have been consumed and are
// garbage until compact moves the window back to the front. Bytes after end
// are free space that fill reads into.
//
// The window never moves on its own. Only consume, compact, grow and seek
// change it, and the Reader rebases its offsets (or discards them) around
// each of those calls.
package fasta

import (
	"errors"
	"io"
	"syscall"
)

// maxEmptyReads mirrors bufio: a source that keeps returning (0, nil) is
// considered broken after this many attempts.
const maxEmptyReads = 100

type cursor struct {
	src   io.Reader
	buf   []byte
	start int
	end   int
}

func newCursor(src io.Reader, capacity int) *cursor {
	return &cursor{src: src, buf: make([]byte, capacity)}
}

// window returns the live bytes.
func (c *cursor) window() []byte {
	return c.buf[c.start:c.end]
}

func (c *cursor) capacity() int {
	return len(c.buf)
}

// exhausted reports whether the last fill stopped short of the end of the
// backing slice. fill only stops early when the source has no more data, so
// free tail space after a fill means end of input.
func (c *cursor) exhausted() bool {
	return c.end < len(c.buf)
}

// fill reads into the free tail until it is full or the source is drained.
// Empty reads and EINTR are retried; any other error is returned as is.
func (c *cursor) fill() (int, error) {
	read := 0
	empty := 0
	for c.end < len(c.buf) {
		n, err := c.src.Read(c.buf[c.end:])
		c.end += n
		read += n
		if err != nil {
			if err == io.EOF {
				return read, nil
			}
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return read, err
		}
		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return read, io.ErrNoProgress
			}
			continue
		}
		empty = 0
	}
	return read, nil
}

// consume drops the first n bytes of the window. The bytes stay in the
// backing slice until compact.
func (c *cursor) consume(n int) {
	c.start = min(c.start+n, c.end)
}

// compact shifts the window to the front of the backing slice so that fill
// has room at the tail.
func (c *cursor) compact() {
	if c.start == 0 {
		return
	}
	n := copy(c.buf, c.buf[c.start:c.end])
	c.start = 0
	c.end = n
}

// grow asks the policy for a larger backing slice and moves the window to
// its front. Offsets relative to the window stay valid.
func (c *cursor) grow(policy BufferPolicy) error {
	current := len(c.buf)
	next, ok := policy.GrowTo(current)
	if !ok || next <= current {
		return ErrBufferLimit
	}
	buf := make([]byte, next)
	c.end = copy(buf, c.buf[c.start:c.end])
	c.start = 0
	c.buf = buf
	return nil
}

// seek repositions the source at an absolute offset and empties the window.
func (c *cursor) seek(offset int64) error {
	s, ok := c.src.(io.Seeker)
	if !ok {
		return ErrNotSeekable
	}
	if _, err := s.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	c.start = 0
	c.end = 0
	return nil
}
