package canopen

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the dictionary, the SDO/PDO codecs and the
// state machine. Use errors.Is to test for these; some are wrapped with
// additional context via fmt.Errorf("...: %w", ...).
var (
	// ErrProtocolError is returned when observed wire behavior violates the
	// model this engine implements (a size disagreement on a previously
	// known object, or a zero timestamp on an inbound SDO upload reply).
	ErrProtocolError = errors.New("canopen: protocol error")

	// ErrObjectNotRead is returned by a typed Get when the object has been
	// declared but never read from the node.
	ErrObjectNotRead = errors.New("canopen: attempting to get an object that has never been read")

	// ErrBufferTooSmall reports a destination buffer smaller than the
	// stored object size. Dictionary.Get allocates its result and never
	// returns it.
	ErrBufferTooSmall = errors.New("canopen: buffer too small")

	// ErrInvalidObjectType is returned by a typed Get when the requested
	// type's size does not match a known-size dictionary entry.
	ErrInvalidObjectType = errors.New("canopen: unexpected object size for requested type")

	// ErrObjectSizeMismatch is returned when a download, or a PDO mapping
	// declaration, disagrees with an already-registered dictionary size.
	ErrObjectSizeMismatch = errors.New("canopen: object size mismatch")

	// ErrUnsupported is returned for SDO transfers this engine does not
	// implement: non-expedited (segmented/block) downloads of more than 4
	// bytes.
	ErrUnsupported = errors.New("canopen: this engine only supports expedited SDO transfers up to 4 bytes")

	// ErrPDOMappingTooBig is returned by PDOMapping.Add when the cumulative
	// mapped size would exceed 8 bytes.
	ErrPDOMappingTooBig = errors.New("canopen: PDO mapping bigger than 8 bytes")

	// ErrInvalidArgument flags malformed caller input (e.g. a nil timestamp
	// passed to Set, or an out-of-range sync_period/inhibit_time/timer_period).
	ErrInvalidArgument = errors.New("canopen: invalid argument")
)

// EmergencyError is returned by StateMachine.Process when an emergency
// frame with an error code outside the "no error" family is received. The
// "no error" family (code>>8 == 0) never produces this error; see
// Update.Mode EmergencyNoError.
type EmergencyError struct {
	Emergency EmergencyMessage
}

func (e *EmergencyError) Error() string {
	em := e.Emergency
	return fmt.Sprintf(
		"canopen: emergency message received (code=0x%04x, register=0x%02x, vendor=% x)",
		em.Code, em.ErrorRegister, em.VendorSpecific,
	)
}

// SDOAbortError is returned when a server responds to an SDO request with
// an abort frame.
type SDOAbortError struct {
	Index    uint16
	SubIndex uint8
	Code     uint32
}

func (e *SDOAbortError) Error() string {
	return fmt.Sprintf(
		"canopen: SDO domain transfer aborted (index=0x%04x, subindex=0x%02x, code=0x%08x)",
		e.Index, e.SubIndex, e.Code,
	)
}
