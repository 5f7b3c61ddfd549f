package playdb

import (
	"cmp"

	"github.com/xzrunner/playdb/internal/codec"
)

// KeyCodec converts keys of type K to and from their packed form inside a
// node page. Fixed-width codecs make a node's size a function of its entry
// count alone.
type KeyCodec[K cmp.Ordered] interface {
	// Size returns the packed size of key.
	Size(key K) int
	// Append packs key onto b.
	Append(b []byte, key K) ([]byte, error)
	// Decode unpacks a key from the front of b and reports how many bytes
	// it consumed.
	Decode(b []byte) (key K, n int, err error)
}

//goland:noinspection GoUnusedGlobalVariable
var (
	Int32Key   KeyCodec[int32]   = int32Key{}
	Int64Key   KeyCodec[int64]   = int64Key{}
	IntKey     KeyCodec[int]     = intKey{}
	Uint32Key  KeyCodec[uint32]  = uint32Key{}
	Uint64Key  KeyCodec[uint64]  = uint64Key{}
	Float64Key KeyCodec[float64] = float64Key{}
	// StringKey packs keys with a 16-bit length prefix, so keys are limited
	// to 65534 bytes and node size depends on the keys it holds.
	StringKey KeyCodec[string] = stringKey{}
)

type int32Key struct{}

func (int32Key) Size(int32) int { return 4 }

func (int32Key) Append(b []byte, k int32) ([]byte, error) { return codec.AppendInt32(b, k), nil }

func (int32Key) Decode(b []byte) (int32, int, error) {
	d := codec.NewDecoder(b)
	k := d.Int32()
	return k, d.Offset(), d.Err()
}

type int64Key struct{}

func (int64Key) Size(int64) int { return 8 }

func (int64Key) Append(b []byte, k int64) ([]byte, error) { return codec.AppendInt64(b, k), nil }

func (int64Key) Decode(b []byte) (int64, int, error) {
	d := codec.NewDecoder(b)
	k := d.Int64()
	return k, d.Offset(), d.Err()
}

// intKey always packs int as 64 bits regardless of platform
type intKey struct{}

func (intKey) Size(int) int { return 8 }

func (intKey) Append(b []byte, k int) ([]byte, error) { return codec.AppendInt64(b, int64(k)), nil }

func (intKey) Decode(b []byte) (int, int, error) {
	d := codec.NewDecoder(b)
	k := d.Int64()
	return int(k), d.Offset(), d.Err()
}

type uint32Key struct{}

func (uint32Key) Size(uint32) int { return 4 }

func (uint32Key) Append(b []byte, k uint32) ([]byte, error) { return codec.AppendUint32(b, k), nil }

func (uint32Key) Decode(b []byte) (uint32, int, error) {
	d := codec.NewDecoder(b)
	k := d.Uint32()
	return k, d.Offset(), d.Err()
}

type uint64Key struct{}

func (uint64Key) Size(uint64) int { return 8 }

func (uint64Key) Append(b []byte, k uint64) ([]byte, error) { return codec.AppendUint64(b, k), nil }

func (uint64Key) Decode(b []byte) (uint64, int, error) {
	d := codec.NewDecoder(b)
	k := d.Uint64()
	return k, d.Offset(), d.Err()
}

type float64Key struct{}

func (float64Key) Size(float64) int { return 8 }

func (float64Key) Append(b []byte, k float64) ([]byte, error) { return codec.AppendFloat64(b, k), nil }

func (float64Key) Decode(b []byte) (float64, int, error) {
	d := codec.NewDecoder(b)
	k := d.Float64()
	return k, d.Offset(), d.Err()
}

type stringKey struct{}

func (stringKey) Size(k string) int { return 2 + len(k) }

func (stringKey) Append(b []byte, k string) ([]byte, error) { return codec.AppendString(b, []byte(k)) }

func (stringKey) Decode(b []byte) (string, int, error) {
	d := codec.NewDecoder(b)
	k := d.String()
	return string(k), d.Offset(), d.Err()
}
