package persistence

import (
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"

	"github.com/outofforest/minipos/types"
)

// Log is the append-only sink receiving pages flushed from the buffer pool.
type Log struct {
	dev        Dev
	codec      Codec
	end        int64
	compressor lz4.Compressor
}

// OpenLog opens the log stored on dev. New records are appended after the existing content.
func OpenLog(dev Dev, codec Codec) (*Log, error) {
	if err := validateCodec(codec); err != nil {
		return nil, err
	}
	return &Log{
		dev:   dev,
		codec: codec,
		end:   dev.Size(),
	}, nil
}

// Codec returns the codec used for new records.
func (l *Log) Codec() Codec {
	return l.codec
}

// Size returns the number of bytes committed to the log.
func (l *Log) Size() int64 {
	return l.end
}

// Append writes one record per page and syncs the device.
// Either the whole batch is committed or the committed size of the log doesn't change.
func (l *Log) Append(pages []types.Page) error {
	if len(pages) == 0 {
		return nil
	}

	buf := make([]byte, 0, len(pages)*(HeaderSize+len(pages[0].Data)))
	for _, p := range pages {
		var err error
		buf, err = l.encode(buf, p)
		if err != nil {
			return err
		}
	}

	if _, err := l.dev.Seek(l.end, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}
	if _, err := l.dev.Write(buf); err != nil {
		return l.rollback(errors.WithStack(err))
	}
	if err := l.dev.Sync(); err != nil {
		return l.rollback(errors.WithStack(err))
	}

	l.end += int64(len(buf))
	return nil
}

func (l *Log) encode(buf []byte, p types.Page) ([]byte, error) {
	payload, codec, err := compress(l.codec, &l.compressor, p.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "compressing lpn %d", p.LPN)
	}

	var h [HeaderSize]byte
	header{
		Codec:     codec,
		LPN:       p.LPN,
		Slot:      p.Slot,
		RawLen:    uint32(len(p.Data)),
		StoredLen: uint32(len(payload)),
		Checksum:  Checksum(p.Data),
	}.put(h[:])

	buf = append(buf, h[:]...)
	return append(buf, payload...), nil
}

// rollback drops whatever part of the failed batch reached the device.
func (l *Log) rollback(err error) error {
	if t, ok := l.dev.(truncater); ok {
		if tErr := t.Truncate(l.end); tErr != nil {
			return errors.Wrapf(err, "truncating log also failed: %s", tErr)
		}
	}
	if _, sErr := l.dev.Seek(l.end, io.SeekStart); sErr != nil {
		return errors.Wrapf(err, "rewinding log also failed: %s", sErr)
	}
	return err
}
