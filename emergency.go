package canopen

import "fmt"

// EmergencyMessage is a parsed CANopen emergency message.
//
// Wire layout (8 bytes): code at [0:2] little-endian, error register at
// [2], 5 bytes of vendor-specific data at [3:8].
type EmergencyMessage struct {
	Code           uint16
	ErrorRegister  uint8
	VendorSpecific [5]byte
}

// QuirkEmergencyErrorRegisterFromFrame, when set on a StateMachine's
// Quirks bitfield, reproduces a bug in the library this engine was ported
// from: ErrorRegister is left at its zero value instead of being read from
// the frame. The default (quirk unset) reads ErrorRegister from the frame,
// which is the CANopen-compliant behavior. This is independent of the
// state machine's own handling of emergency frames, which always writes
// byte 2 into the ErrorRegister dictionary object regardless of this quirk.
const QuirkEmergencyErrorRegisterFromFrame uint64 = 1 << 0

// QuirkPDOCOBIDReservedBit, when set, makes the PDO configuration builder
// also set bit 30 of the COB-ID (in addition to bit 31) when disabling a
// PDO during reconfiguration, to accommodate nodes that require it.
const QuirkPDOCOBIDReservedBit uint64 = 1 << 1

// ParseEmergency decodes an emergency frame. quirks controls whether
// ErrorRegister is populated from the frame; see
// QuirkEmergencyErrorRegisterFromFrame. It fails if frame is not on the
// emergency function code.
func ParseEmergency(frame Frame, quirks uint64) (EmergencyMessage, error) {
	if GetFunctionCode(frame) != FunctionEmergency {
		return EmergencyMessage{}, fmt.Errorf("canopen: expected an emergency frame, got id 0x%03x", frame.ID)
	}
	var em EmergencyMessage
	em.Code = getUint16(frame.Data[0:2])
	if quirks&QuirkEmergencyErrorRegisterFromFrame == 0 {
		em.ErrorRegister = frame.Data[2]
	}
	copy(em.VendorSpecific[:], frame.Data[3:8])
	return em, nil
}
