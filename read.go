// Low-level read primitives for the index file.
//
// Every entry is a single JSON line terminated by '\n'. These functions
// read individual lines and find line boundaries through SectionReader or
// ReadAt, so lookups never depend on the shared file position.
package fasta

import (
	"bufio"
	"io"
	"os"
)

// line reads the line starting at offset, bounded by end.
func line(f *os.File, offset, end int64) ([]byte, error) {
	remaining := end - offset
	if remaining <= 0 {
		return nil, io.EOF
	}

	section := io.NewSectionReader(f, offset, remaining)
	reader := bufio.NewReaderSize(section, 512)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}

	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}
	return data, nil
}

// align finds the next newline at or after offset, returning its byte
// position, or -1 when there is none before end. Binary search lands at an
// arbitrary byte, so align moves it to the nearest entry boundary.
func align(f *os.File, offset, end int64) (int64, error) {
	remaining := end - offset
	if remaining <= 0 {
		return -1, nil
	}

	section := io.NewSectionReader(f, offset, remaining)
	reader := bufio.NewReaderSize(section, 512)

	pos := offset
	for {
		b, err := reader.ReadByte()
		if err == io.EOF {
			return -1, nil
		}
		if err != nil {
			return -1, err
		}
		if b == '\n' {
			return pos, nil
		}
		pos++
	}
}

func size(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
