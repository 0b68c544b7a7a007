package registry

import (
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/outofforest/minipos/pkg/filedev"
)

var (
	// ErrDeviceExists is returned if device with the same name has been already created.
	ErrDeviceExists = errors.New("device already exists")

	// ErrDeviceNotFound is returned if there is no device with the name.
	ErrDeviceNotFound = errors.New("device not found")
)

// Registry keeps file-backed devices opened by name.
type Registry struct {
	dir     string
	logger  logrus.FieldLogger
	devices map[string]*filedev.FileDev
}

// New returns registry creating device files in dir.
func New(dir string, logger logrus.FieldLogger) *Registry {
	return &Registry{
		dir:     dir,
		logger:  logger,
		devices: map[string]*filedev.FileDev{},
	}
}

// Create opens or creates the device file and registers it under name.
func (r *Registry) Create(name string) error {
	if _, exists := r.devices[name]; exists {
		return errors.Wrapf(ErrDeviceExists, "device %s", name)
	}

	dev, err := filedev.Open(filepath.Join(r.dir, name))
	if err != nil {
		return errors.Wrapf(err, "creating device %s", name)
	}
	r.devices[name] = dev

	r.logger.WithField("device", name).Info("Device created")
	return nil
}

// Get returns device registered under name.
func (r *Registry) Get(name string) (*filedev.FileDev, error) {
	dev, exists := r.devices[name]
	if !exists {
		return nil, errors.Wrapf(ErrDeviceNotFound, "device %s", name)
	}
	return dev, nil
}

// Delete closes the device and removes it from the registry. The file stays on disk.
func (r *Registry) Delete(name string) error {
	dev, exists := r.devices[name]
	if !exists {
		return errors.Wrapf(ErrDeviceNotFound, "device %s", name)
	}
	delete(r.devices, name)

	if err := dev.Close(); err != nil {
		return errors.Wrapf(err, "closing device %s", name)
	}
	r.logger.WithField("device", name).Info("Device deleted")
	return nil
}

// Names returns sorted names of registered devices.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.devices))
	for name := range r.devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	return len(r.devices)
}

// LogDevices logs all the registered devices.
func (r *Registry) LogDevices() {
	r.logger.WithField("online", r.Len()).Info("Online devices")
	for _, name := range r.Names() {
		dev := r.devices[name]
		r.logger.WithFields(logrus.Fields{
			"device": name,
			"file":   dev.Name(),
			"size":   dev.Size(),
		}).Info("Device")
	}
}

// Close closes all the registered devices.
func (r *Registry) Close() error {
	var err error
	for _, name := range r.Names() {
		if dErr := r.Delete(name); dErr != nil && err == nil {
			err = dErr
		}
	}
	return err
}
