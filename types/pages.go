package types

const (
	// DefaultPoolCapacity is the number of page slots allocated by the pool unless configured otherwise.
	DefaultPoolCapacity = 10

	// DefaultPageSize is the byte size of a single page slot unless configured otherwise.
	DefaultPageSize = 20
)

// LPN is the logical page number used by the host to address a page.
type LPN uint64

// SlotIndex is the index of the page slot inside the buffer pool.
type SlotIndex uint32

// Hash represents hash of page bytes.
type Hash uint64

// Page is the pair of logical page number and the bytes stored under it.
type Page struct {
	LPN  LPN
	Slot SlotIndex
	Data []byte
}
