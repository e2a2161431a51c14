package scanner

import (
	"fmt"
	"io"
	"os"
)

// ByteSource is a read-only byte-addressable view of a file or block
// device. Scanning never writes to the source.
type ByteSource struct {
	file *os.File
	size int64
}

// OpenSource opens path read-only and determines its size. Regular files
// report their stat size; block devices report zero there, so the size is
// recovered by seeking to the end.
func OpenSource(path string) (*ByteSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat source: %w", err)
	}

	size := stat.Size()
	if size == 0 && stat.Mode()&os.ModeDevice != 0 {
		size, err = file.Seek(0, io.SeekEnd)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to determine device size: %w", err)
		}
	}

	return &ByteSource{file: file, size: size}, nil
}

// ReadAt reads up to len(buf) bytes at the given offset. A short read at
// end of source returns the bytes read with io.EOF, matching os.File.
func (s *ByteSource) ReadAt(buf []byte, offset int64) (int, error) {
	return s.file.ReadAt(buf, offset)
}

// Size returns the source size in bytes.
func (s *ByteSource) Size() int64 {
	return s.size
}

// Path returns the underlying file path.
func (s *ByteSource) Path() string {
	return s.file.Name()
}

// Close releases the underlying file handle.
func (s *ByteSource) Close() error {
	return s.file.Close()
}
