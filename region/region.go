package region

import (
	"strconv"

	"upage/buffer"
	"upage/configs"
	upageErr "upage/errors"
	"upage/store"
)

// PageBlock is a contiguous run of pages served by one fault worker.
type PageBlock struct {
	Base   buffer.PageAddr
	Length uint64
}

func (pb PageBlock) Contains(addr buffer.PageAddr) bool {
	return addr >= pb.Base && uint64(addr) < uint64(pb.Base)+pb.Length
}

// Region is one mapped range: the byte-addressable memory image the
// application sees, plus the store that backs it. Page content moves between
// mem and the store only on fills and evictions.
type Region struct {
	base     buffer.PageAddr
	size     uint64
	pageSize uint64
	mem      []byte
	backing  store.Store
}

func NewRegion(base buffer.PageAddr, size uint64, backing store.Store) (*Region, error) {
	pageSize := uint64(configs.PageSize)
	if backing == nil {
		return nil, upageErr.ErrNilStore
	}
	if size == 0 || size%pageSize != 0 {
		return nil, upageErr.ErrRegionSize
	}
	if uint64(base)&(pageSize-1) != 0 {
		return nil, upageErr.ErrMisaligned
	}
	return &Region{
		base:     base,
		size:     size,
		pageSize: pageSize,
		mem:      make([]byte, size),
		backing:  backing,
	}, nil
}

func (r *Region) Base() buffer.PageAddr { return r.base }
func (r *Region) Size() uint64 { return r.size }
func (r *Region) PageSize() uint64 { return r.pageSize }
func (r *Region) Store() store.Store { return r.backing }

func (r *Region) Pages() int {
	return int(r.size / r.pageSize)
}

func (r *Region) Contains(addr buffer.PageAddr) bool {
	return addr >= r.base && uint64(addr) < uint64(r.base)+r.size
}

// PageBegin aligns addr down to the start of its page.
func (r *Region) PageBegin(addr buffer.PageAddr) buffer.PageAddr {
	return addr &^ buffer.PageAddr(r.pageSize-1)
}

// Offset is the byte offset of addr's page within the backing store.
func (r *Region) Offset(addr buffer.PageAddr) int64 {
	configs.Assert(r.Contains(addr), "address 0x"+strconv.FormatUint(uint64(addr), 16)+" outside region")
	return int64(uint64(r.PageBegin(addr)) - uint64(r.base))
}

// PageSlice exposes the in-memory image of addr's page.
func (r *Region) PageSlice(addr buffer.PageAddr) []byte {
	off := r.Offset(addr)
	return r.mem[off : off+int64(r.pageSize)]
}

// FillPage installs freshly read page content into region memory.
func (r *Region) FillPage(addr buffer.PageAddr, content []byte) {
	copy(r.PageSlice(addr), content)
}

// DropPage discards the in-memory image of an evicted page; the next fault
// refetches it from the store.
func (r *Region) DropPage(addr buffer.PageAddr) {
	pageSlice := r.PageSlice(addr)
	for i := range pageSlice {
		pageSlice[i] = 0
	}
}

// SplitBlocks carves the region into one contiguous block per worker,
// spreading the residual pages across the first workers. Returns fewer blocks
// than asked for when the region has too few pages to split.
func (r *Region) SplitBlocks(workers int) []PageBlock {
	pages := uint64(r.Pages())
	num := uint64(workers)
	if num > pages {
		num = pages
	}
	perWorker := pages / num
	residual := pages % num

	blocks := make([]PageBlock, 0, num)
	offset := uint64(0)
	for w := uint64(0); w < num; w++ {
		workerPages := perWorker
		if residual > 0 {
			residual--
			workerPages++
		}
		blocks = append(blocks, PageBlock{
			Base:   r.base + buffer.PageAddr(offset*r.pageSize),
			Length: workerPages * r.pageSize,
		})
		offset += workerPages
	}
	return blocks
}
