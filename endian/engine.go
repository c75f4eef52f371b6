// Package endian provides the byte order engines used by coldecode binary records.
//
// An EndianEngine combines binary.ByteOrder and binary.AppendByteOrder, so record
// writers can append fixed-width fields without temporary buffers:
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, uint32(numBins))
//
// Records default to little-endian. Big-endian is available for consumers that
// exchange decoders with systems writing network byte order.
//
// All functions in this package are safe for concurrent use.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// binary.LittleEndian and binary.BigEndian both satisfy this interface.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// IsLittleEndian reports whether engine writes little-endian.
func IsLittleEndian(engine EndianEngine) bool {
	return engine == binary.LittleEndian
}

// EngineFor returns the big-endian engine when bigEndian is set, little-endian otherwise.
func EngineFor(bigEndian bool) EndianEngine {
	if bigEndian {
		return GetBigEndianEngine()
	}

	return GetLittleEndianEngine()
}
