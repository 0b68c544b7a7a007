package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/outofforest/minipos/config"
	"github.com/outofforest/minipos/device"
	"github.com/outofforest/minipos/logger"
	"github.com/outofforest/minipos/persistence"
	"github.com/outofforest/minipos/pkg/filedev"
	"github.com/outofforest/minipos/registry"
	"github.com/outofforest/minipos/types"
)

var payload = []byte("Hello Rust World")

func main() {
	var configPath, flushPath, registryDir string
	flag.StringVar(&configPath, "config", "", "path to the ini config file")
	flag.StringVar(&flushPath, "log", "", "path to the flush log, overrides config")
	flag.StringVar(&registryDir, "registry-dir", "", "directory of registry devices, overrides config")
	flag.Parse()

	cfg := config.New()
	if err := cfg.Load(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
	if flushPath != "" {
		cfg.FlushPath = flushPath
	}
	if registryDir != "" {
		cfg.RegistryDir = registryDir
	}

	log := logger.New(cfg.LogLevel, os.Stderr)
	if err := run(cfg, log, os.Stdout); err != nil {
		log.WithError(err).Fatal("minipos failed")
	}
}

func run(cfg *config.Config, log logrus.FieldLogger, out io.Writer) error {
	logDev, err := filedev.Open(cfg.FlushPath)
	if err != nil {
		return errors.Wrapf(err, "opening flush log %s", cfg.FlushPath)
	}
	defer logDev.Close()

	flushLog, err := persistence.OpenLog(logDev, cfg.FlushCodec)
	if err != nil {
		return err
	}

	dev := device.New(cfg.Device, flushLog, log)
	if err := dev.InitPool(); err != nil {
		return err
	}
	if err := runPool(dev, out); err != nil {
		return err
	}
	return runRegistry(cfg, log)
}

func runPool(dev *device.Device, out io.Writer) error {
	if err := dev.Write(0, payload); err != nil {
		return err
	}

	buf := make([]byte, dev.PageSize())
	found, err := dev.Read(0, buf)
	if err != nil {
		return err
	}
	if found {
		fmt.Fprintf(out, "read data %q\n", buf)
	}
	fmt.Fprintf(out, "remaining buffer size: %d\n", dev.RemainingFree())

	for lpn := types.LPN(1); lpn < 10; lpn++ {
		if err := dev.Write(lpn, payload); err != nil {
			return err
		}
		fmt.Fprintf(out, "remaining buffer size: %d\n", dev.RemainingFree())
	}

	if err := dev.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "remaining buffer size: %d\n", dev.RemainingFree())
	return nil
}

func runRegistry(cfg *config.Config, log logrus.FieldLogger) error {
	reg := registry.New(cfg.RegistryDir, log)
	defer reg.Close()

	for _, name := range cfg.RegistryDevs {
		if err := reg.Create(name); err != nil {
			return err
		}
		reg.LogDevices()

		handle, err := reg.Get(name)
		if err != nil {
			return err
		}
		driver := registry.NewDriver(handle)
		if err := driver.Write(); err != nil {
			return err
		}
		if err := driver.Read(); err != nil {
			return err
		}
	}

	for _, name := range cfg.RegistryDevs {
		if err := reg.Delete(name); err != nil {
			return err
		}
		reg.LogDevices()
	}
	return nil
}
