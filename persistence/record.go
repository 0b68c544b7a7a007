package persistence

import (
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/outofforest/minipos/types"
)

const (
	// recordMagic starts every record in the flush log ("MP").
	recordMagic uint16 = 0x4d50

	// HeaderSize is the byte size of the record header.
	HeaderSize = 32
)

// ErrCorruptRecord is returned if record read from the log is not valid.
var ErrCorruptRecord = errors.New("corrupt flush record")

// header layout:
// magic(2) codec(1) reserved(1) lpn(8) slot(4) rawLen(4) storedLen(4) checksum(8).
type header struct {
	Codec     Codec
	LPN       types.LPN
	Slot      types.SlotIndex
	RawLen    uint32
	StoredLen uint32
	Checksum  types.Hash
}

func (h header) put(b []byte) {
	binary.LittleEndian.PutUint16(b[0:2], recordMagic)
	b[2] = byte(h.Codec)
	b[3] = 0
	binary.LittleEndian.PutUint64(b[4:12], uint64(h.LPN))
	binary.LittleEndian.PutUint32(b[12:16], uint32(h.Slot))
	binary.LittleEndian.PutUint32(b[16:20], h.RawLen)
	binary.LittleEndian.PutUint32(b[20:24], h.StoredLen)
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.Checksum))
}

func parseHeader(b []byte) (header, error) {
	if magic := binary.LittleEndian.Uint16(b[0:2]); magic != recordMagic {
		return header{}, errors.Wrapf(ErrCorruptRecord, "invalid magic: %#04x", magic)
	}
	return header{
		Codec:     Codec(b[2]),
		LPN:       types.LPN(binary.LittleEndian.Uint64(b[4:12])),
		Slot:      types.SlotIndex(binary.LittleEndian.Uint32(b[12:16])),
		RawLen:    binary.LittleEndian.Uint32(b[16:20]),
		StoredLen: binary.LittleEndian.Uint32(b[20:24]),
		Checksum:  types.Hash(binary.LittleEndian.Uint64(b[24:32])),
	}, nil
}

// Checksum computes checksum of page bytes.
func Checksum(b []byte) types.Hash {
	return types.Hash(xxhash.Sum64(b))
}

// ReadRecords reads all the records stored in the log kept by dev.
func ReadRecords(dev Dev) ([]types.Page, error) {
	if _, err := dev.Seek(0, io.SeekStart); err != nil {
		return nil, errors.WithStack(err)
	}

	var pages []types.Page
	var offset int64
	hBuf := make([]byte, HeaderSize)
	for {
		_, err := io.ReadFull(dev, hBuf)
		switch {
		case errors.Is(err, io.EOF):
			return pages, nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, errors.Wrapf(ErrCorruptRecord, "truncated header at offset %d", offset)
		case err != nil:
			return nil, errors.WithStack(err)
		}

		h, err := parseHeader(hBuf)
		if err != nil {
			return nil, errors.Wrapf(err, "record at offset %d", offset)
		}

		payload := make([]byte, h.StoredLen)
		if _, err := io.ReadFull(dev, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, errors.Wrapf(ErrCorruptRecord, "truncated payload at offset %d", offset)
			}
			return nil, errors.WithStack(err)
		}

		data, err := decompress(h.Codec, payload, int(h.RawLen))
		if err != nil {
			return nil, errors.Wrapf(err, "record at offset %d", offset)
		}
		if checksum := Checksum(data); checksum != h.Checksum {
			return nil, errors.Wrapf(ErrCorruptRecord, "checksum mismatch for lpn %d, computed: %#x, stored: %#x",
				h.LPN, checksum, h.Checksum)
		}

		pages = append(pages, types.Page{
			LPN:  h.LPN,
			Slot: h.Slot,
			Data: data,
		})
		offset += HeaderSize + int64(h.StoredLen)
	}
}
