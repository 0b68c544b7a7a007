package device

// Info describes the device.
type Info struct {
	Name      string
	TotalSize uint64
	UsedSize  uint64
	PageSize  uint64
}

// Info returns information about the device. Sizes are in bytes.
func (d *Device) Info() Info {
	pageSize := uint64(d.config.PageSize)
	return Info{
		Name:      d.config.Name,
		TotalSize: uint64(d.config.PoolCapacity) * pageSize,
		UsedSize:  uint64(len(d.occupied)) * pageSize,
		PageSize:  pageSize,
	}
}
