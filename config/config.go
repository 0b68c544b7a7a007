package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"

	"github.com/outofforest/minipos/device"
	"github.com/outofforest/minipos/persistence"
)

// Config is the configuration of the emulator.
type Config struct {
	Device       device.Config
	FlushPath    string
	FlushCodec   persistence.Codec
	RegistryDir  string
	LogLevel     string
	RegistryDevs []string
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Device:       device.DefaultConfig(),
		FlushPath:    "flushed_data.log",
		FlushCodec:   persistence.CodecNone,
		RegistryDir:  ".",
		LogLevel:     "info",
		RegistryDevs: []string{"device_01.txt", "device_02.txt"},
	}
}

// Load overlays values found in the ini file on top of the current ones.
// Missing file is not an error, defaults stay in place.
func (cfg *Config) Load(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return errors.Wrapf(err, "loading config %s", path)
	}
	return cfg.parse(file)
}

func (cfg *Config) parse(file *ini.File) error {
	dev := file.Section("device")
	cfg.Device.Name = dev.Key("name").MustString(cfg.Device.Name)
	cfg.Device.PoolCapacity = dev.Key("pool_capacity").MustInt(cfg.Device.PoolCapacity)
	cfg.Device.PageSize = dev.Key("page_size").MustInt(cfg.Device.PageSize)

	flush := file.Section("flush")
	cfg.FlushPath = flush.Key("path").MustString(cfg.FlushPath)
	if flush.HasKey("codec") {
		codec, err := persistence.ParseCodec(flush.Key("codec").String())
		if err != nil {
			return err
		}
		cfg.FlushCodec = codec
	}

	registry := file.Section("registry")
	cfg.RegistryDir = registry.Key("dir").MustString(cfg.RegistryDir)
	if registry.HasKey("devices") {
		cfg.RegistryDevs = registry.Key("devices").Strings(",")
	}

	cfg.LogLevel = file.Section("log").Key("level").MustString(cfg.LogLevel)
	return nil
}
