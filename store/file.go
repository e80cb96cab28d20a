package store

import (
	"io"
	"os"
	"time"
)

const defaultLockTimeout = 500 * time.Millisecond

// FileStore backs a mapped region with a regular file. Pages past the end of
// the file read back as zeroes, so sparse backing files work without
// preallocation.
type FileStore struct {
	path string
	file *os.File
}

// OpenFile opens (creating if needed) the backing file at path and takes an
// advisory flock on it, exclusive unless readOnly.
func OpenFile(path string, mode os.FileMode, readOnly bool) (*FileStore, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	file, err := os.OpenFile(path, flag|os.O_CREATE, mode)
	if err != nil {
		return nil, err
	}
	if err := fLock(file, !readOnly, defaultLockTimeout); err != nil {
		_ = file.Close()
		return nil, err
	}
	return &FileStore{path: path, file: file}, nil
}

func (s *FileStore) ReadPage(buf []byte, offset int64) error {
	n, err := s.file.ReadAt(buf, offset)
	if err == io.EOF {
		// Zero-fill the tail beyond the current file size.
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		return nil
	}
	return err
}

func (s *FileStore) WritePage(buf []byte, offset int64) error {
	_, err := s.file.WriteAt(buf, offset)
	return err
}

func (s *FileStore) Close() error {
	if err := fUnlock(s.file); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

func (s *FileStore) Path() string {
	return s.path
}
