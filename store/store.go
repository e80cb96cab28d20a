package store

// Store moves whole pages between region memory and the backing medium. The
// buffer core never touches a Store; fills and write-backs go through it from
// the fault and eviction paths only.
type Store interface {
	// ReadPage fills buf with the page starting at offset.
	ReadPage(buf []byte, offset int64) error
	// WritePage persists buf as the page starting at offset.
	WritePage(buf []byte, offset int64) error
	Close() error
}
