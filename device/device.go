package device

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/outofforest/minipos/persistence"
	"github.com/outofforest/minipos/types"
)

var (
	// ErrPoolExhausted is returned by Write if there is no free slot in the pool.
	// Pool is reclaimed by Flush, so caller may flush and retry.
	ErrPoolExhausted = errors.New("buffer pool exhausted")

	// ErrPageTooLarge is returned by Write if data don't fit into the page slot.
	ErrPageTooLarge = errors.New("data exceed page size")

	// ErrBufferTooSmall is returned by Read if destination buffer can't hold the whole page.
	ErrBufferTooSmall = errors.New("buffer smaller than page size")

	// ErrInvalidGeometry is returned by InitPool if pool capacity or page size is not valid.
	ErrInvalidGeometry = errors.New("invalid pool geometry")

	// ErrAlreadyInitialized is returned by InitPool if the pool has been already allocated.
	ErrAlreadyInitialized = errors.New("buffer pool has been already initialized")
)

// Config is the geometry of the device.
type Config struct {
	Name         string
	PoolCapacity int
	PageSize     int
}

// DefaultConfig returns the default device config.
func DefaultConfig() Config {
	return Config{
		Name:         "device01",
		PoolCapacity: types.DefaultPoolCapacity,
		PageSize:     types.DefaultPageSize,
	}
}

// Stats contains counters of operations executed on the device.
type Stats struct {
	Writes         uint64
	Reads          uint64
	Misses         uint64
	Flushes        uint64
	FlushedRecords uint64
}

// Device is the block device keeping written pages in a fixed pool of in-memory slots
// until they are flushed to the backing log.
//
// Device is not safe for concurrent use.
type Device struct {
	config Config
	log    *persistence.Log
	logger logrus.FieldLogger

	// data is the arena of all the slots, slot i occupies data[i*PageSize:(i+1)*PageSize].
	data []byte

	// tags[i] is the LPN slot i was written for, valid only while slot is occupied.
	tags     []types.LPN
	occupied []types.SlotIndex
	lpnMap   map[types.LPN]types.SlotIndex

	// free is the ring of free slot indices, freeLen entries starting at freeHead.
	free     []types.SlotIndex
	freeHead int
	freeLen  int

	stats Stats
}

// New returns new device flushing to log. Pool is allocated by InitPool.
func New(config Config, log *persistence.Log, logger logrus.FieldLogger) *Device {
	return &Device{
		config: config,
		log:    log,
		logger: logger.WithField("device", config.Name),
	}
}

// InitPool allocates all the page slots and puts them on the free list in ascending order.
func (d *Device) InitPool() error {
	if d.data != nil {
		return errors.WithStack(ErrAlreadyInitialized)
	}
	if d.config.PoolCapacity <= 0 || d.config.PageSize <= 0 ||
		uint64(d.config.PoolCapacity) > math.MaxUint32 {
		return errors.Wrapf(ErrInvalidGeometry, "capacity: %d, page size: %d",
			d.config.PoolCapacity, d.config.PageSize)
	}

	d.data = make([]byte, d.config.PoolCapacity*d.config.PageSize)
	d.tags = make([]types.LPN, d.config.PoolCapacity)
	d.occupied = make([]types.SlotIndex, 0, d.config.PoolCapacity)
	d.lpnMap = make(map[types.LPN]types.SlotIndex, d.config.PoolCapacity)
	d.free = make([]types.SlotIndex, d.config.PoolCapacity)
	for i := range d.free {
		d.free[i] = types.SlotIndex(i)
	}
	d.freeLen = d.config.PoolCapacity

	d.logger.WithFields(logrus.Fields{
		"capacity": d.config.PoolCapacity,
		"pageSize": d.config.PageSize,
	}).Info("Buffer pool initialized")
	return nil
}

// Write stores data under lpn in the oldest free slot.
// Bytes of the slot past len(data) keep whatever they contained before.
// Rewriting lpn before flush takes a new slot, the previous one stays occupied until flush.
func (d *Device) Write(lpn types.LPN, data []byte) error {
	if len(data) > d.config.PageSize {
		return errors.Wrapf(ErrPageTooLarge, "lpn %d: %d bytes, page size: %d", lpn, len(data), d.config.PageSize)
	}

	slot, ok := d.popFree()
	if !ok {
		d.logger.WithField("lpn", lpn).Warn("Buffer pool exhausted")
		return errors.Wrapf(ErrPoolExhausted, "writing lpn %d", lpn)
	}

	copy(d.slot(slot), data)
	d.tags[slot] = lpn
	d.lpnMap[lpn] = slot
	d.occupied = append(d.occupied, slot)
	d.stats.Writes++

	d.logger.WithFields(logrus.Fields{
		"lpn":  lpn,
		"slot": slot,
		"free": d.freeLen,
	}).Debug("Page written")
	return nil
}

// Read copies the whole slot mapped to lpn into p. It returns false if lpn is not mapped,
// p is not touched then.
func (d *Device) Read(lpn types.LPN, p []byte) (bool, error) {
	if len(p) < d.config.PageSize {
		return false, errors.Wrapf(ErrBufferTooSmall, "lpn %d: %d bytes, page size: %d", lpn, len(p), d.config.PageSize)
	}

	d.stats.Reads++
	slot, exists := d.lpnMap[lpn]
	if !exists {
		d.stats.Misses++
		d.logger.WithField("lpn", lpn).Debug("Unmapped lpn")
		return false, nil
	}

	copy(p, d.slot(slot))
	d.logger.WithFields(logrus.Fields{
		"lpn":  lpn,
		"slot": slot,
	}).Debug("Page read")
	return true, nil
}

// RemainingFree returns the number of free slots.
func (d *Device) RemainingFree() int {
	return d.freeLen
}

// Name returns the name of the device.
func (d *Device) Name() string {
	return d.config.Name
}

// Capacity returns the number of slots in the pool.
func (d *Device) Capacity() int {
	return d.config.PoolCapacity
}

// PageSize returns the byte size of the page.
func (d *Device) PageSize() int {
	return d.config.PageSize
}

// Occupied returns the number of slots holding unflushed data.
func (d *Device) Occupied() int {
	return len(d.occupied)
}

// Mapped returns the number of mapped LPNs.
func (d *Device) Mapped() int {
	return len(d.lpnMap)
}

// Stats returns operation counters.
func (d *Device) Stats() Stats {
	return d.stats
}

func (d *Device) slot(slot types.SlotIndex) []byte {
	offset := int(slot) * d.config.PageSize
	return d.data[offset : offset+d.config.PageSize : offset+d.config.PageSize]
}

func (d *Device) popFree() (types.SlotIndex, bool) {
	if d.freeLen == 0 {
		return 0, false
	}
	slot := d.free[d.freeHead]
	d.freeHead = (d.freeHead + 1) % len(d.free)
	d.freeLen--
	return slot, true
}

func (d *Device) pushFree(slot types.SlotIndex) {
	d.free[(d.freeHead+d.freeLen)%len(d.free)] = slot
	d.freeLen++
}
