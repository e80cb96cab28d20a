package buffer

import (
	"strconv"

	"upage/configs"
)

// PageAddr identifies the first byte of a page inside a mapped region. A
// descriptor is bound to at most one address at a time and rebinds to new
// addresses as it cycles through the pool.
type PageAddr uint64

// State tracks a page descriptor through its residency lifecycle.
type State int

const (
	Free State = iota
	Filling
	Present
	Updating
	Leaving
)

func (s State) String() string {
	switch s {
	case Free:
		return "FREE"
	case Filling:
		return "FILLING"
	case Present:
		return "PRESENT"
	case Updating:
		return "UPDATING"
	case Leaving:
		return "LEAVING"
	default:
		return "???"
	}
}

// PageDescriptor is a reusable slot tracking one resident or in-transit page.
// The set of descriptors is allocated once by NewBuffer and never grows; every
// mutation requires the owning Buffer to be locked by the caller.
type PageDescriptor struct {
	page  PageAddr
	dirty bool
	state State
}

func (pd *PageDescriptor) PageIsDirty() bool { return pd.dirty }
func (pd *PageDescriptor) MarkPageDirty()    { pd.dirty = true }
func (pd *PageDescriptor) MarkPageClean()    { pd.dirty = false }
func (pd *PageDescriptor) GetPageAddr() PageAddr {
	return pd.page
}
func (pd *PageDescriptor) SetPageAddr(addr PageAddr) {
	pd.page = addr
}
func (pd *PageDescriptor) GetState() State { return pd.state }

func (pd *PageDescriptor) SetStateFree() {
	configs.Assert(pd.state == Leaving, "invalid state transition from: "+pd.state.String())
	pd.state = Free
}

func (pd *PageDescriptor) SetStateFilling() {
	configs.Assert(pd.state == Free, "invalid state transition from: "+pd.state.String())
	pd.state = Filling
}

func (pd *PageDescriptor) SetStatePresent() {
	configs.Assert(pd.state == Filling || pd.state == Updating, "invalid state transition from: "+pd.state.String())
	pd.state = Present
}

func (pd *PageDescriptor) SetStateUpdating() {
	configs.Assert(pd.state == Present, "invalid state transition from: "+pd.state.String())
	pd.state = Updating
}

func (pd *PageDescriptor) SetStateLeaving() {
	configs.Assert(pd.state == Present, "invalid state transition from: "+pd.state.String())
	pd.state = Leaving
}

func (pd *PageDescriptor) String() string {
	return "{ page: 0x" + strconv.FormatUint(uint64(pd.page), 16) +
		", state: " + pd.state.String() +
		", dirty: " + strconv.FormatBool(pd.dirty) + " }"
}
