package canopen

import "fmt"

// SDOCommand is the command specifier carried in byte 0 of every SDO
// frame. Only expedited transfers are supported: a download of more than
// 4 bytes is rejected with ErrUnsupported, and StateMachine.Process
// ignores non-expedited upload replies.
type SDOCommand uint8

const (
	SDOInitiateDomainDownload      SDOCommand = 1 // client -> server
	SDOInitiateDomainUpload        SDOCommand = 2 // client -> server
	SDOInitiateDomainUploadReply   SDOCommand = 2 // server -> client
	SDOInitiateDomainDownloadReply SDOCommand = 3 // server -> client
	SDOAbortDomainTransfer         SDOCommand = 4 // either direction
)

// SDOCommandByte is the decoded first byte of an SDO frame.
type SDOCommandByte struct {
	Command   SDOCommand
	Toggle    bool
	Expedited bool
	// Size is the payload size in bytes. It is zero if the size-indicated
	// bit is clear; for expedited transfers it is derived from the "n"
	// field; for non-expedited transfers it is read from bytes 4..8.
	Size uint32
}

// MakeInitiateDomainUpload builds the client->server request to read
// (objectID, subID) from nodeID.
func MakeInitiateDomainUpload(nodeID uint8, objectID uint16, subID uint8) Frame {
	var frame Frame
	frame.ID = FunctionSDOClient + uint32(nodeID)
	frame.DLC = 8
	frame.Data[0] = 0x40
	putUint16(frame.Data[1:3], objectID)
	frame.Data[3] = subID
	return frame
}

// MakeInitiateDomainDownload builds the client->server request to write
// payload (up to 4 bytes) to (objectID, subID) on nodeID. sizeKnown
// controls whether the size-indicated bit is set on the outgoing command
// byte; CANopen servers accept both forms for expedited transfers.
// It fails with ErrUnsupported if len(payload) > 4.
func MakeInitiateDomainDownload(nodeID uint8, objectID uint16, subID uint8, payload []byte, sizeKnown bool) (Frame, error) {
	size := len(payload)
	if size > 4 {
		return Frame{}, fmt.Errorf("canopen: SDO download of %d bytes: %w", size, ErrUnsupported)
	}

	var frame Frame
	frame.ID = FunctionSDOClient + uint32(nodeID)
	frame.DLC = 8

	commandByte := byte(0x20) | byte((4-size)<<2)
	if sizeKnown {
		commandByte |= 0x03
	} else {
		commandByte |= 0x02
	}
	frame.Data[0] = commandByte
	putUint16(frame.Data[1:3], objectID)
	frame.Data[3] = subID
	copy(frame.Data[4:4+size], payload)
	return frame, nil
}

// GetSDOObjectID reads the object index from bytes 1..2 of an SDO frame.
func GetSDOObjectID(frame Frame) uint16 {
	return getUint16(frame.Data[1:3])
}

// GetSDOObjectSubID reads the object sub-index from byte 3 of an SDO frame.
func GetSDOObjectSubID(frame Frame) uint8 {
	return frame.Data[3]
}

// GetSDOCommand decodes the command byte of an SDO frame.
func GetSDOCommand(frame Frame) SDOCommandByte {
	b := frame.Data[0]
	cmd := SDOCommandByte{
		Command:   SDOCommand(b >> 5),
		Toggle:    b&0x10 != 0,
		Expedited: b&0x02 != 0,
	}

	sizeIndicated := b&0x01 != 0
	switch {
	case !sizeIndicated:
		cmd.Size = 0
	case cmd.Expedited:
		n := (b >> 2) & 0x03
		cmd.Size = 4 - uint32(n)
	default:
		cmd.Size = getUint32(frame.Data[4:8])
	}
	return cmd
}

// ParseDomainTransferAbort decodes an SDO abort frame and returns its
// SDOAbortError, ready to be returned to the caller.
func ParseDomainTransferAbort(frame Frame) *SDOAbortError {
	return &SDOAbortError{
		Index:    getUint16(frame.Data[1:3]),
		SubIndex: frame.Data[3],
		Code:     getUint32(frame.Data[4:8]),
	}
}
