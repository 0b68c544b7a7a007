package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outofforest/minipos/persistence"
)

func TestDefaults(t *testing.T) {
	requireT := require.New(t)

	cfg := New()
	requireT.Equal("device01", cfg.Device.Name)
	requireT.Equal(10, cfg.Device.PoolCapacity)
	requireT.Equal(20, cfg.Device.PageSize)
	requireT.Equal(persistence.CodecNone, cfg.FlushCodec)
	requireT.Equal([]string{"device_01.txt", "device_02.txt"}, cfg.RegistryDevs)
}

func TestMissingFileKeepsDefaults(t *testing.T) {
	requireT := require.New(t)

	cfg := New()
	requireT.NoError(cfg.Load(filepath.Join(t.TempDir(), "missing.ini")))
	requireT.NoError(cfg.Load(""))
	requireT.Equal(New(), cfg)
}

func TestLoadOverlaysFile(t *testing.T) {
	requireT := require.New(t)

	path := filepath.Join(t.TempDir(), "minipos.ini")
	requireT.NoError(os.WriteFile(path, []byte(`
[device]
pool_capacity = 32
page_size = 4096

[flush]
path = /tmp/flush.log
codec = lz4

[registry]
devices = a.dev, b.dev, c.dev

[log]
level = debug
`), 0o600))

	cfg := New()
	requireT.NoError(cfg.Load(path))
	requireT.Equal("device01", cfg.Device.Name)
	requireT.Equal(32, cfg.Device.PoolCapacity)
	requireT.Equal(4096, cfg.Device.PageSize)
	requireT.Equal("/tmp/flush.log", cfg.FlushPath)
	requireT.Equal(persistence.CodecLZ4, cfg.FlushCodec)
	requireT.Equal(".", cfg.RegistryDir)
	requireT.Equal([]string{"a.dev", "b.dev", "c.dev"}, cfg.RegistryDevs)
	requireT.Equal("debug", cfg.LogLevel)
}

func TestLoadRejectsUnknownCodec(t *testing.T) {
	requireT := require.New(t)

	path := filepath.Join(t.TempDir(), "minipos.ini")
	requireT.NoError(os.WriteFile(path, []byte("[flush]\ncodec = zstd\n"), 0o600))

	requireT.ErrorIs(New().Load(path), persistence.ErrUnknownCodec)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	requireT := require.New(t)

	path := filepath.Join(t.TempDir(), "minipos.ini")
	requireT.NoError(os.WriteFile(path, []byte("[device\n"), 0o600))

	requireT.Error(New().Load(path))
}
