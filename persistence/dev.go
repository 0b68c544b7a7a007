package persistence

import "io"

// Dev is the interface required from the device.
type Dev interface {
	io.ReadWriteSeeker
	Sync() error
	Size() int64
}

// truncater is implemented by devices able to drop bytes past the given size.
type truncater interface {
	Truncate(size int64) error
}
