package persistence

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/minipos/pkg/memdev"
	"github.com/outofforest/minipos/types"
)

func TestAppendAndReadBack(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecSnappy, CodecLZ4} {
		codec := codec
		t.Run(codec.String(), func(t *testing.T) {
			requireT := require.New(t)

			dev := memdev.New(0)
			log, err := OpenLog(dev, codec)
			requireT.NoError(err)
			requireT.Equal(codec, log.Codec())

			pages := []types.Page{
				{LPN: 0, Slot: 0, Data: bytes.Repeat([]byte("Hello Rust World"), 256)},
				{LPN: 42, Slot: 3, Data: randomBytes(t, 4096)},
				{LPN: 1 << 40, Slot: 9, Data: make([]byte, 4096)},
			}
			requireT.NoError(log.Append(pages))
			requireT.EqualValues(dev.Size(), log.Size())

			read, err := ReadRecords(dev)
			requireT.NoError(err)
			requireT.Equal(pages, read)
		})
	}
}

func TestCompressionShrinksLog(t *testing.T) {
	requireT := require.New(t)

	page := []types.Page{{LPN: 1, Data: make([]byte, 4096)}}

	raw := memdev.New(0)
	rawLog, err := OpenLog(raw, CodecNone)
	requireT.NoError(err)
	requireT.NoError(rawLog.Append(page))

	for _, codec := range []Codec{CodecSnappy, CodecLZ4} {
		dev := memdev.New(0)
		log, err := OpenLog(dev, codec)
		requireT.NoError(err)
		requireT.NoError(log.Append(page))
		requireT.Less(dev.Size(), raw.Size())
		requireT.EqualValues(codec, dev.Bytes()[2])
	}
}

func TestIncompressiblePageIsStoredRaw(t *testing.T) {
	requireT := require.New(t)

	dev := memdev.New(0)
	log, err := OpenLog(dev, CodecSnappy)
	requireT.NoError(err)

	data := randomBytes(t, 64)
	requireT.NoError(log.Append([]types.Page{{LPN: 7, Data: data}}))
	requireT.EqualValues(CodecNone, dev.Bytes()[2])
	requireT.EqualValues(HeaderSize+len(data), dev.Size())
}

func TestAppendIsAppending(t *testing.T) {
	requireT := require.New(t)

	dev := memdev.New(0)
	log, err := OpenLog(dev, CodecNone)
	requireT.NoError(err)

	requireT.NoError(log.Append([]types.Page{{LPN: 1, Data: []byte("first")}}))
	requireT.NoError(log.Append(nil))
	requireT.NoError(log.Append([]types.Page{{LPN: 2, Data: []byte("second")}}))

	// Reopened log continues after existing records.
	log, err = OpenLog(dev, CodecNone)
	requireT.NoError(err)
	requireT.NoError(log.Append([]types.Page{{LPN: 3, Data: []byte("third")}}))

	read, err := ReadRecords(dev)
	requireT.NoError(err)
	requireT.Len(read, 3)
	requireT.EqualValues(1, read[0].LPN)
	requireT.EqualValues(2, read[1].LPN)
	requireT.EqualValues(3, read[2].LPN)
	requireT.Equal([]byte("third"), read[2].Data)
}

func TestFailedAppendIsRolledBack(t *testing.T) {
	requireT := require.New(t)

	dev := &failingDev{MemDev: memdev.New(0)}
	log, err := OpenLog(dev, CodecNone)
	requireT.NoError(err)
	requireT.NoError(log.Append([]types.Page{{LPN: 1, Data: []byte("kept")}}))
	committed := log.Size()

	dev.failWrite = true
	requireT.Error(log.Append([]types.Page{{LPN: 2, Data: []byte("lost")}, {LPN: 3, Data: []byte("lost")}}))
	requireT.Equal(committed, log.Size())
	requireT.Equal(committed, dev.Size())

	dev.failWrite = false
	dev.failSync = true
	requireT.Error(log.Append([]types.Page{{LPN: 2, Data: []byte("lost")}}))
	requireT.Equal(committed, log.Size())
	requireT.Equal(committed, dev.Size())

	dev.failSync = false
	requireT.NoError(log.Append([]types.Page{{LPN: 2, Data: []byte("retried")}}))

	read, err := ReadRecords(dev)
	requireT.NoError(err)
	requireT.Equal([]types.Page{
		{LPN: 1, Data: []byte("kept")},
		{LPN: 2, Data: []byte("retried")},
	}, read)
}

func TestCorruptedPayload(t *testing.T) {
	requireT := require.New(t)

	dev := memdev.New(0)
	log, err := OpenLog(dev, CodecNone)
	requireT.NoError(err)
	requireT.NoError(log.Append([]types.Page{{LPN: 5, Data: []byte("Hello Rust World")}}))

	dev.Bytes()[HeaderSize] ^= 0xff

	_, err = ReadRecords(dev)
	requireT.ErrorIs(err, ErrCorruptRecord)
}

func TestInvalidMagic(t *testing.T) {
	requireT := require.New(t)

	dev := memdev.New(0)
	log, err := OpenLog(dev, CodecNone)
	requireT.NoError(err)
	requireT.NoError(log.Append([]types.Page{{LPN: 5, Data: []byte("data")}}))

	dev.Bytes()[0] = 0

	_, err = ReadRecords(dev)
	requireT.ErrorIs(err, ErrCorruptRecord)
}

func TestTruncatedLog(t *testing.T) {
	requireT := require.New(t)

	dev := memdev.New(0)
	log, err := OpenLog(dev, CodecNone)
	requireT.NoError(err)
	requireT.NoError(log.Append([]types.Page{{LPN: 5, Data: []byte("Hello Rust World")}}))

	requireT.NoError(dev.Truncate(dev.Size() - 1))
	_, err = ReadRecords(dev)
	requireT.ErrorIs(err, ErrCorruptRecord)

	requireT.NoError(dev.Truncate(HeaderSize - 1))
	_, err = ReadRecords(dev)
	requireT.ErrorIs(err, ErrCorruptRecord)
}

func TestEmptyLog(t *testing.T) {
	requireT := require.New(t)

	read, err := ReadRecords(memdev.New(0))
	requireT.NoError(err)
	requireT.Empty(read)
}

func TestParseCodec(t *testing.T) {
	requireT := require.New(t)

	for name, expected := range map[string]Codec{
		"":        CodecNone,
		"none":    CodecNone,
		"Snappy":  CodecSnappy,
		" lz4 ":   CodecLZ4,
		"snappy ": CodecSnappy,
	} {
		c, err := ParseCodec(name)
		requireT.NoError(err, name)
		requireT.Equal(expected, c, name)
	}

	_, err := ParseCodec("zstd")
	requireT.ErrorIs(err, ErrUnknownCodec)

	_, err = OpenLog(memdev.New(0), Codec(100))
	requireT.ErrorIs(err, ErrUnknownCodec)
	requireT.Equal("unknown", Codec(100).String())
}

type failingDev struct {
	*memdev.MemDev
	failWrite bool
	failSync  bool
}

// Write simulates torn write: half of the buffer reaches the device before the failure.
func (d *failingDev) Write(p []byte) (int, error) {
	if d.failWrite {
		n, _ := d.MemDev.Write(p[:len(p)/2])
		return n, errors.New("write failed")
	}
	return d.MemDev.Write(p)
}

func (d *failingDev) Sync() error {
	if d.failSync {
		return errors.New("sync failed")
	}
	return nil
}

func randomBytes(t *testing.T, n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}
