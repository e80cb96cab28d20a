package store

import (
	"sync"

	upageErr "upage/errors"
)

// MemStore keeps the backing pages in memory. Used as the store collaborator
// in tests, where the read/write counters make fill and write-back traffic
// observable.
type MemStore struct {
	mu   sync.Mutex
	data []byte

	readCount  int
	writeCount int
}

func NewMemStore(size int64) *MemStore {
	return &MemStore{data: make([]byte, size)}
}

func (s *MemStore) ReadPage(buf []byte, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 {
		return upageErr.ErrStoreBounds
	}
	s.readCount++
	n := 0
	if offset < int64(len(s.data)) {
		n = copy(buf, s.data[offset:])
	}
	// Pages past the end read as zeroes, as with a sparse backing file.
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return nil
}

func (s *MemStore) WritePage(buf []byte, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 || offset >= int64(len(s.data)) {
		return upageErr.ErrStoreBounds
	}
	s.writeCount++
	copy(s.data[offset:], buf)
	return nil
}

func (s *MemStore) Close() error {
	return nil
}

// Fill presets the backing bytes at offset, bypassing the counters.
func (s *MemStore) Fill(offset int64, val []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 || offset >= int64(len(s.data)) {
		return
	}
	copy(s.data[offset:], val)
}

func (s *MemStore) ReadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCount
}

func (s *MemStore) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeCount
}
