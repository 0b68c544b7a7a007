package persistence

import (
	"strings"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// Codec defines how page bytes are stored in the record payload.
type Codec byte

// Codecs
const (
	CodecNone Codec = iota
	CodecSnappy
	CodecLZ4
)

// ErrUnknownCodec is returned if codec is not supported.
var ErrUnknownCodec = errors.New("unknown codec")

var codecNames = map[Codec]string{
	CodecNone:   "none",
	CodecSnappy: "snappy",
	CodecLZ4:    "lz4",
}

// String returns the name of the codec.
func (c Codec) String() string {
	if name, exists := codecNames[c]; exists {
		return name
	}
	return "unknown"
}

// ParseCodec returns codec by its name.
func ParseCodec(name string) (Codec, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return CodecNone, nil
	}
	for c, n := range codecNames {
		if n == name {
			return c, nil
		}
	}
	return CodecNone, errors.Wrapf(ErrUnknownCodec, "codec %q", name)
}

func validateCodec(c Codec) error {
	if _, exists := codecNames[c]; !exists {
		return errors.Wrapf(ErrUnknownCodec, "codec %d", c)
	}
	return nil
}

// compress returns the payload and the codec actually used to produce it.
// Pages which don't get smaller are stored raw.
func compress(c Codec, compressor *lz4.Compressor, data []byte) ([]byte, Codec, error) {
	switch c {
	case CodecSnappy:
		payload := snappy.Encode(nil, data)
		if len(payload) < len(data) {
			return payload, CodecSnappy, nil
		}
	case CodecLZ4:
		payload := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := compressor.CompressBlock(data, payload)
		if err != nil {
			return nil, CodecNone, errors.WithStack(err)
		}
		if n > 0 && n < len(data) {
			return payload[:n], CodecLZ4, nil
		}
	}
	return data, CodecNone, nil
}

func decompress(c Codec, payload []byte, rawLen int) ([]byte, error) {
	switch c {
	case CodecNone:
		if len(payload) != rawLen {
			return nil, errors.Wrapf(ErrCorruptRecord, "raw payload length %d, expected %d", len(payload), rawLen)
		}
		return payload, nil
	case CodecSnappy:
		data, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, errors.Wrapf(ErrCorruptRecord, "snappy: %s", err)
		}
		if len(data) != rawLen {
			return nil, errors.Wrapf(ErrCorruptRecord, "decoded length %d, expected %d", len(data), rawLen)
		}
		return data, nil
	case CodecLZ4:
		data := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(payload, data)
		if err != nil {
			return nil, errors.Wrapf(ErrCorruptRecord, "lz4: %s", err)
		}
		if n != rawLen {
			return nil, errors.Wrapf(ErrCorruptRecord, "decoded length %d, expected %d", n, rawLen)
		}
		return data, nil
	default:
		return nil, errors.Wrapf(ErrUnknownCodec, "codec %d", c)
	}
}
