package kart

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// minEncodedLen is the longest stored string still treated as "never
// configured". Anything longer must decode.
const minEncodedLen = 16

// Encode renders c as a hex encoded MessagePack array. Integers use their
// smallest representation so stored blobs stay byte-compatible with
// existing tokens.
func Encode(c Config) string {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(&c); err != nil {
		// Config has only fixed-size scalar and string fields.
		panic(fmt.Sprintf("kart: encode config: %v", err))
	}
	return hex.EncodeToString(buf.Bytes())
}

// Decode parses a stored configuration. Short or empty input yields the zero
// Config, which is what a token looks like before its first configure.
func Decode(s string) (Config, error) {
	var c Config
	if len(s) <= minEncodedLen {
		return c, nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Config{}, fmt.Errorf("%w: hex: %v", ErrCodec, err)
	}
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("%w: msgpack: %v", ErrCodec, err)
	}
	return c, nil
}

// configFields is the length of the encoded array.
const configFields = 19

// DecodeMsgpack reads the fixed array and range checks every integer, so an
// out of range value is an error instead of a truncated field.
func (c *Config) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != configFields {
		return fmt.Errorf("config array has %d fields, want %d", n, configFields)
	}
	r := fieldReader{dec: dec}
	next := Config{
		Version:   r.u8("version"),
		Level:     r.u32("level"),
		Left:      r.u8("left"),
		Right:     r.u8("right"),
		Top:       r.u8("top"),
		Front:     r.u8("front"),
		Skin:      r.u8("skin"),
		Transport: r.u8("transport"),
		Color1:    r.u32("color1"),
		Color2:    r.u32("color2"),
		Ex1:       r.u8("ex1"),
		Ex2:       r.u32("ex2"),
		Locked:    r.flag("locked"),
		Decal1:    r.text("decal1"),
		Decal2:    r.text("decal2"),
		Decal3:    r.text("decal3"),
		Extra1:    r.text("extra1"),
		Extra2:    r.text("extra2"),
		Extra3:    r.text("extra3"),
	}
	if r.err != nil {
		return r.err
	}
	*c = next
	return nil
}

// fieldReader decodes array elements in order and keeps the first error.
type fieldReader struct {
	dec *msgpack.Decoder
	err error
}

func (r *fieldReader) unsigned(field string, limit uint64) uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.DecodeInterfaceLoose()
	if err != nil {
		r.err = fmt.Errorf("%s: %w", field, err)
		return 0
	}
	switch n := v.(type) {
	case uint64:
		if n <= limit {
			return n
		}
	case int64:
		if n >= 0 && uint64(n) <= limit {
			return uint64(n)
		}
	default:
		r.err = fmt.Errorf("%s: want integer, got %T", field, v)
		return 0
	}
	r.err = fmt.Errorf("%s: %v out of range", field, v)
	return 0
}

func (r *fieldReader) u8(field string) uint8 {
	return uint8(r.unsigned(field, math.MaxUint8))
}

func (r *fieldReader) u32(field string) uint32 {
	return uint32(r.unsigned(field, math.MaxUint32))
}

func (r *fieldReader) flag(field string) bool {
	if r.err != nil {
		return false
	}
	v, err := r.dec.DecodeBool()
	if err != nil {
		r.err = fmt.Errorf("%s: %w", field, err)
	}
	return v
}

func (r *fieldReader) text(field string) string {
	if r.err != nil {
		return ""
	}
	v, err := r.dec.DecodeString()
	if err != nil {
		r.err = fmt.Errorf("%s: %w", field, err)
	}
	return v
}
