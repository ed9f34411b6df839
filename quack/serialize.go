package quack

import (
	"encoding/binary"

	"github.com/flashbots/quack/field"
	"github.com/flashbots/quack/field/inverse"
)

// byteWidth returns the wire width in bytes of T (2, 4 or 8).
func byteWidth[T Narrow]() int {
	var zero T
	switch any(zero).(type) {
	case uint16:
		return 2
	case uint32:
		return 4
	case uint64:
		return 8
	default:
		panic("quack: serialization requires a uint16, uint32 or uint64 narrow type")
	}
}

func putNarrow[T Narrow](buf []byte, v T) {
	switch byteWidth[T]() {
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	default:
		binary.LittleEndian.PutUint64(buf, uint64(v))
	}
}

func getNarrow[T Narrow](buf []byte) T {
	switch byteWidth[T]() {
	case 2:
		return T(binary.LittleEndian.Uint16(buf))
	case 4:
		return T(binary.LittleEndian.Uint32(buf))
	default:
		return T(binary.LittleEndian.Uint64(buf))
	}
}

// Serialize encodes a into its tight little-endian wire format:
//
//	threshold  u16
//	count      u32
//	last_value narrow
//	power_sums narrow x threshold
func Serialize[T Narrow, F field.Field[T]](a *Accumulator[T, F]) []byte {
	width := byteWidth[T]()
	buf := make([]byte, 2+4+width+width*a.threshold)

	binary.LittleEndian.PutUint16(buf[0:2], uint16(a.threshold))
	binary.LittleEndian.PutUint32(buf[2:6], a.count)
	putNarrow(buf[6:6+width], a.lastValue)

	offset := 6 + width
	for i, s := range a.sums {
		putNarrow(buf[offset+i*width:offset+(i+1)*width], s)
	}
	return buf
}

// Deserialize decodes bytes produced by Serialize. It returns
// ErrSerializationFormat if the length is too short for any header, or
// inconsistent with the threshold encoded in the header.
func Deserialize[T Narrow, F field.Field[T]](data []byte) (*Accumulator[T, F], error) {
	width := byteWidth[T]()
	headerLen := 2 + 4 + width
	if len(data) < headerLen {
		return nil, ErrSerializationFormat
	}

	threshold := int(binary.LittleEndian.Uint16(data[0:2]))
	count := binary.LittleEndian.Uint32(data[2:6])
	lastValue := getNarrow[T](data[6 : 6+width])

	if len(data) != headerLen+width*threshold {
		return nil, ErrSerializationFormat
	}

	sums := make([]T, threshold)
	offset := headerLen
	for i := range sums {
		sums[i] = getNarrow[T](data[offset+i*width : offset+(i+1)*width])
	}

	var f F
	return &Accumulator[T, F]{
		threshold:    threshold,
		count:        count,
		lastValue:    lastValue,
		hasLastValue: count > 0,
		sums:         sums,
		invTable:     inverse.Build[T](f, threshold),
	}, nil
}
