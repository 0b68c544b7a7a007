package registry

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// ProbePayload is the content written and read back by the driver.
var ProbePayload = []byte("Hello, world!")

// ErrPayloadMismatch is returned if data read back from the device differ from the written ones.
var ErrPayloadMismatch = errors.New("payload read back does not match")

// Driver probes the device by writing known payload and reading it back.
type Driver struct {
	dev io.ReadWriteSeeker
}

// NewDriver returns driver of the device.
func NewDriver(dev io.ReadWriteSeeker) *Driver {
	return &Driver{dev: dev}
}

// Write writes the probe payload at the beginning of the device.
func (d *Driver) Write() error {
	if _, err := d.dev.Seek(0, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}
	if _, err := d.dev.Write(ProbePayload); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Read reads the probe payload from the beginning of the device and verifies it.
func (d *Driver) Read() error {
	if _, err := d.dev.Seek(0, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}

	buf := make([]byte, len(ProbePayload))
	if _, err := io.ReadFull(d.dev, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return errors.Wrapf(ErrPayloadMismatch, "device too short")
		}
		return errors.WithStack(err)
	}
	if !bytes.Equal(buf, ProbePayload) {
		return errors.Wrapf(ErrPayloadMismatch, "read %q", buf)
	}
	return nil
}
