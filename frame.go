package canopen

import "encoding/binary"

// FunctionMask isolates the function code part of an 11-bit CAN identifier.
const FunctionMask uint32 = 0x780

// Predefined broadcast identifiers (CiA 301).
const (
	BroadcastNMTModuleControl uint32 = 0x000
	BroadcastSync             uint32 = 0x080
	BroadcastTimestamp        uint32 = 0x100
)

// Predefined function codes. A node's actual COB-ID is the function code
// plus its node id, except for the broadcast identifiers above.
const (
	FunctionEmergency    uint32 = 0x080
	FunctionPDO0Transmit uint32 = 0x180 // slave -> master (our TPDO receive)
	FunctionPDO0Receive  uint32 = 0x200 // master -> slave (our RPDO send)
	FunctionPDO1Transmit uint32 = 0x280
	FunctionPDO1Receive  uint32 = 0x300
	FunctionPDO2Transmit uint32 = 0x380
	FunctionPDO2Receive  uint32 = 0x400
	FunctionPDO3Transmit uint32 = 0x480
	FunctionPDO3Receive  uint32 = 0x500
	FunctionSDOServer    uint32 = 0x580 // server (slave) -> client (master)
	FunctionSDOClient    uint32 = 0x600 // client (master) -> server (slave)
	FunctionNMTHeartbeat uint32 = 0x700
)

// MaxPDO is the number of independently addressable receive/transmit PDOs
// this engine tracks per remote node. The original implementation declares
// MAX_PDO = 3 but indexes PDOs 0..3 inclusive; 4 is the correct bound.
const MaxPDO = 4

// Timestamp is an opaque, caller-supplied point in time. The engine never
// reads a clock itself: every timestamp on an Update, a dictionary entry or
// an outgoing Set comes from the driver or the application. The zero value
// is the null timestamp.
type Timestamp struct {
	value   int64
	isValid bool
}

// NewTimestamp wraps a monotonic value (e.g. nanoseconds since some epoch
// chosen by the caller) into a non-null Timestamp.
func NewTimestamp(value int64) Timestamp {
	return Timestamp{value: value, isValid: true}
}

// IsNull reports whether this is the distinguished null timestamp.
func (t Timestamp) IsNull() bool {
	return !t.isValid
}

// Value returns the wrapped value. It is meaningless if IsNull is true.
func (t Timestamp) Value() int64 {
	return t.value
}

// Frame is the fixed-shape CAN frame this engine consumes and produces.
// Only the first DLC bytes of Data are meaningful.
type Frame struct {
	ID   uint32
	DLC  uint8
	Data [8]byte
	Time Timestamp
}

// Bus is the external CAN driver collaborator. The engine never implements
// or calls this interface itself; it is specified here only so callers have
// a common shape to adapt their hardware driver to.
type Bus interface {
	Send(frame Frame) error
	Subscribe(handler func(Frame))
}

// GetFunctionCode extracts the function code part of a frame's identifier.
func GetFunctionCode(frame Frame) uint32 {
	return frame.ID & FunctionMask
}

// GetNodeID extracts the low 7 bits of a frame's identifier, i.e. the node
// id part for any non-broadcast function code.
func GetNodeID(frame Frame) uint8 {
	return uint8(frame.ID & 0x7F)
}

// IsBroadcast reports whether frame.ID is one of the fixed broadcast
// identifiers that carry no node id.
func IsBroadcast(frame Frame) bool {
	switch frame.ID {
	case BroadcastNMTModuleControl, BroadcastSync, BroadcastTimestamp:
		return true
	default:
		return false
	}
}

// putUint8 / putUint16 / putUint32 / putInt8 / putInt16 / putInt32 write the
// little-endian encoding of value into data. Signed forms reinterpret the
// bit pattern of the unsigned encoding of the same width, matching the
// behavior of the original C++ toLittleEndian<T> template.
func putUint8(data []byte, value uint8) {
	data[0] = value
}

func putUint16(data []byte, value uint16) {
	binary.LittleEndian.PutUint16(data, value)
}

func putUint32(data []byte, value uint32) {
	binary.LittleEndian.PutUint32(data, value)
}

func putInt8(data []byte, value int8) {
	putUint8(data, uint8(value))
}

func putInt16(data []byte, value int16) {
	putUint16(data, uint16(value))
}

func putInt32(data []byte, value int32) {
	putUint32(data, uint32(value))
}

// getUint8 / getUint16 / getUint32 / getInt8 / getInt16 / getInt32 read the
// little-endian encoding of the matching width from data.
func getUint8(data []byte) uint8 {
	return data[0]
}

func getUint16(data []byte) uint16 {
	return binary.LittleEndian.Uint16(data)
}

func getUint32(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data)
}

func getInt8(data []byte) int8 {
	return int8(getUint8(data))
}

func getInt16(data []byte) int16 {
	return int16(getUint16(data))
}

func getInt32(data []byte) int32 {
	return int32(getUint32(data))
}

// Integer is the set of fixed-width integer types the little-endian codec
// and the typed dictionary accessors work with.
type Integer interface {
	~uint8 | ~uint16 | ~uint32 | ~int8 | ~int16 | ~int32
}

// sizeOfType returns sizeof(T) in bytes for the supported integer kinds.
func sizeOfType[T Integer]() uint32 {
	var zero T
	switch any(zero).(type) {
	case uint8, int8:
		return 1
	case uint16, int16:
		return 2
	case uint32, int32:
		return 4
	default:
		panic("canopen: unsupported integer type")
	}
}

// ToLittleEndian encodes value into a 4-byte little-endian buffer, using
// only the first sizeof(T) bytes.
func ToLittleEndian[T Integer](value T) [4]byte {
	var data [4]byte
	switch v := any(value).(type) {
	case uint8:
		putUint8(data[:], v)
	case int8:
		putInt8(data[:], v)
	case uint16:
		putUint16(data[:], v)
	case int16:
		putInt16(data[:], v)
	case uint32:
		putUint32(data[:], v)
	case int32:
		putInt32(data[:], v)
	default:
		panic("canopen: unsupported integer type")
	}
	return data
}

// FromLittleEndian decodes a T from the little-endian encoding in data.
// data must hold at least sizeof(T) bytes.
func FromLittleEndian[T Integer](data []byte) T {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return any(getUint8(data)).(T)
	case int8:
		return any(getInt8(data)).(T)
	case uint16:
		return any(getUint16(data)).(T)
	case int16:
		return any(getInt16(data)).(T)
	case uint32:
		return any(getUint32(data)).(T)
	case int32:
		return any(getInt32(data)).(T)
	default:
		panic("canopen: unsupported integer type")
	}
}
