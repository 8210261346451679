// Record boundary detection.
//
// A record ends at the line terminator that is immediately followed by the
// header sentinel, or at end of input. scanBoundary walks the line
// terminators of a buffer from a resume offset, appending each one to the
// record's BufferPosition, and stops at the first boundary. It never looks
// at a byte twice: the returned offset is where the next call resumes.
//
// A terminator in the very last byte of the buffer is left for later. Until
// more data arrives nothing is known about the byte after it, so it is
// neither recorded nor classified; the resume offset points back at it.
package fasta

import "bytes"

// Header sentinel and line terminator.
const (
	headerByte = '>'
	newline    = '\n'
	cr         = '\r'
)

// scanBoundary extends pos with the line terminators in buf[from:]. It
// returns the offset to resume from and whether a boundary was found. On a
// boundary the resume offset is the header byte of the following record.
func scanBoundary(buf []byte, from int, pos *BufferPosition) (int, bool) {
	size := len(buf)
	for from < size {
		i := bytes.IndexByte(buf[from:], newline)
		if i < 0 {
			break
		}
		p := from + i
		if p+1 == size {
			return p, false
		}
		pos.Lines = append(pos.Lines, p)
		if buf[p+1] == headerByte {
			return p + 1, true
		}
		from = p + 1
	}
	return size, false
}

// closeBoundary terminates the record at end of input. resume is the offset
// returned by the last scanBoundary: either a final newline or the buffer
// length when the input lacks one.
func closeBoundary(resume int, pos *BufferPosition) {
	pos.Lines = append(pos.Lines, resume)
}

// trimCR removes a single trailing carriage return.
func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == cr {
		return line[:n-1]
	}
	return line
}

// blank reports whether a line (without its newline) is empty or holds only
// a carriage return.
func blank(line []byte) bool {
	return len(line) == 0 || (len(line) == 1 && line[0] == cr)
}
