package replay

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"syscall"
)

// fileStore implements SessionStore as a single POSIX append-only
// file, adapted from a log-file format whose entries also carried a
// fixed header, a length-prefixed blob, and trailing fixed-size tags:
// here the blob is the recorded wire frame and there are no tags,
// just a one-octet loss flag ahead of the length.
//
// Entry format in session.dat:
//
//	[8]byte:  index (int64, big-endian)
//	[1]byte:  lost (0 or 1)
//	[4]byte:  data length (uint32, big-endian)
//	[n]byte:  data
type fileStore struct {
	path string
	f    *os.File
	mu   sync.RWMutex
}

const entryHeaderSize = 8 + 1 + 4

// OpenFileStore creates or opens an append-only session file at path.
func OpenFileStore(path string) (SessionStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("replay: create session directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("replay: open session file: %w", err)
	}
	return &fileStore{path: path, f: f}, nil
}

// Append implements SessionStore.
func (s *fileStore) Append(fr Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := syscall.Flock(int(s.f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("replay: lock session file: %w", err)
	}
	defer syscall.Flock(int(s.f.Fd()), syscall.LOCK_UN)

	buf := make([]byte, entryHeaderSize+len(fr.Data))
	binary.BigEndian.PutUint64(buf[0:8], uint64(fr.Index))
	if fr.Lost {
		buf[8] = 1
	}
	binary.BigEndian.PutUint32(buf[9:13], uint32(len(fr.Data)))
	copy(buf[entryHeaderSize:], fr.Data)

	n, err := s.f.Write(buf)
	if err != nil {
		return fmt.Errorf("replay: write frame: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("replay: incomplete frame write: %d of %d bytes", n, len(buf))
	}
	return s.f.Sync()
}

// Iter implements SessionStore.
func (s *fileStore) Iter(startIndex int64) (<-chan Frame, func() error, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("replay: open session file for reading: %w", err)
	}

	out := make(chan Frame, 64)
	done := make(chan struct{})

	go func() {
		defer close(out)
		defer f.Close()

		reader := bufio.NewReader(f)
		for {
			select {
			case <-done:
				return
			default:
			}

			var header [entryHeaderSize]byte
			if _, err := io.ReadFull(reader, header[:]); err != nil {
				return
			}
			idx := int64(binary.BigEndian.Uint64(header[0:8]))
			lost := header[8] != 0
			dataLen := binary.BigEndian.Uint32(header[9:13])

			data := make([]byte, dataLen)
			if _, err := io.ReadFull(reader, data); err != nil {
				return
			}

			if idx >= startIndex {
				select {
				case out <- Frame{Index: idx, Lost: lost, Data: data}:
				case <-done:
					return
				}
			}
		}
	}()

	cleanup := func() error {
		close(done)
		return nil
	}
	return out, cleanup, nil
}

// Close implements SessionStore.
func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
