package canopen

import "fmt"

// GetPDOParametersObjectID returns the dictionary object holding a PDO's
// communication parameters: 0x1400+n for a receive PDO (master -> slave),
// 0x1800+n for a transmit PDO (slave -> master).
func GetPDOParametersObjectID(transmit bool, pdoIndex uint8) uint16 {
	if transmit {
		return 0x1800 + uint16(pdoIndex)
	}
	return 0x1400 + uint16(pdoIndex)
}

// GetPDOMappingObjectID returns the dictionary object holding a PDO's
// mapping: 0x1600+n for a receive PDO, 0x1A00+n for a transmit PDO.
func GetPDOMappingObjectID(transmit bool, pdoIndex uint8) uint16 {
	if transmit {
		return 0x1A00 + uint16(pdoIndex)
	}
	return 0x1600 + uint16(pdoIndex)
}

// GetPDODefaultCOBID returns the predefined connection set COB-ID for a PDO
// when its configured cob_id is zero.
func GetPDODefaultCOBID(transmit bool, pdoIndex uint8, nodeID uint8) uint32 {
	if transmit {
		return FunctionPDO0Transmit + uint32(pdoIndex)<<8 + uint32(nodeID)
	}
	return FunctionPDO0Receive + uint32(pdoIndex)<<8 + uint32(nodeID)
}

// MakePDOCommunicationParametersMessages builds the SDO download sequence
// that configures a PDO's COB-ID, transmission mode and, for an
// asynchronous transmit PDO, its inhibit time and event timer.
func MakePDOCommunicationParametersMessages(
	transmit bool, nodeID uint8, pdoIndex uint8, params PDOCommunicationParameters,
) ([]Frame, error) {
	objID := GetPDOParametersObjectID(transmit, pdoIndex)
	cobID := params.CobID
	if cobID == 0 {
		cobID = GetPDODefaultCOBID(transmit, pdoIndex, nodeID)
	}

	var messages []Frame

	cobIDBytes := ToLittleEndian(cobID)
	cobIDFrame, err := MakeInitiateDomainDownload(nodeID, objID, 1, cobIDBytes[:4], true)
	if err != nil {
		return nil, err
	}
	messages = append(messages, cobIDFrame)

	var modeByte byte
	switch params.TransmissionMode {
	case TransmissionSynchronous:
		if params.SyncPeriod > 251 {
			return nil, fmt.Errorf("canopen: sync_period %d out of range 0..251: %w", params.SyncPeriod, ErrInvalidArgument)
		}
		modeByte = params.SyncPeriod
	case TransmissionSynchronousRTROnly:
		modeByte = 252
	case TransmissionAsynchronousRTROnly:
		modeByte = 253
	case TransmissionAsynchronous:
		modeByte = 254
	default:
		return nil, fmt.Errorf("canopen: unknown transmission mode %d: %w", params.TransmissionMode, ErrInvalidArgument)
	}
	modeFrame, err := MakeInitiateDomainDownload(nodeID, objID, 2, []byte{modeByte}, true)
	if err != nil {
		return nil, err
	}
	messages = append(messages, modeFrame)

	if transmit && params.TransmissionMode >= TransmissionAsynchronousRTROnly {
		inhibitTicks := params.InhibitTime.Microseconds() / 100
		if inhibitTicks > 65535 {
			return nil, fmt.Errorf("canopen: inhibit_time too big, must be < 6.5536s: %w", ErrInvalidArgument)
		}
		inhibitBytes := ToLittleEndian(uint16(inhibitTicks))
		inhibitFrame, err := MakeInitiateDomainDownload(nodeID, objID, 3, inhibitBytes[:2], true)
		if err != nil {
			return nil, err
		}
		messages = append(messages, inhibitFrame)

		timerMs := params.TimerPeriod.Milliseconds()
		if timerMs > 65535 {
			return nil, fmt.Errorf("canopen: timer_period too big, must be < 65.536s: %w", ErrInvalidArgument)
		}
		timerBytes := ToLittleEndian(uint16(timerMs))
		timerFrame, err := MakeInitiateDomainDownload(nodeID, objID, 5, timerBytes[:2], true)
		if err != nil {
			return nil, err
		}
		messages = append(messages, timerFrame)
	}

	return messages, nil
}

// MakePDOMappingMessages builds the SDO download sequence that disables a
// PDO's mapping (sub-index 0 = 0), writes each mapped entry, then
// re-enables the mapping (sub-index 0 = count).
func MakePDOMappingMessages(transmit bool, nodeID uint8, pdoIndex uint8, mapping PDOMapping) ([]Frame, error) {
	objID := GetPDOMappingObjectID(transmit, pdoIndex)
	count := len(mapping.Entries)

	var messages []Frame

	disableFrame, err := MakeInitiateDomainDownload(nodeID, objID, 0, []byte{0, 0, 0, 0}, true)
	if err != nil {
		return nil, err
	}
	messages = append(messages, disableFrame)

	for i, entry := range mapping.Entries {
		value := uint32(entry.ObjectID)<<16 | uint32(entry.SubID)<<8 | uint32(entry.Size)*8
		valueBytes := ToLittleEndian(value)
		frame, err := MakeInitiateDomainDownload(nodeID, objID, uint8(i+1), valueBytes[:4], true)
		if err != nil {
			return nil, err
		}
		messages = append(messages, frame)
	}

	countBytes := ToLittleEndian(uint32(count))
	enableFrame, err := MakeInitiateDomainDownload(nodeID, objID, 0, countBytes[:4], true)
	if err != nil {
		return nil, err
	}
	messages = append(messages, enableFrame)

	return messages, nil
}

// DisablePDOMessage builds the single SDO download frame that disables a
// PDO by setting bit 31 of its COB-ID (and, if quirkReservedBit is set,
// bit 30 as well).
func DisablePDOMessage(transmit bool, nodeID uint8, pdoIndex uint8, cobID uint32, quirkReservedBit bool) (Frame, error) {
	objID := GetPDOParametersObjectID(transmit, pdoIndex)
	if cobID == 0 {
		cobID = GetPDODefaultCOBID(transmit, pdoIndex, nodeID)
	}
	cobID |= 0x80000000
	if quirkReservedBit {
		cobID |= 0x40000000
	}
	cobIDBytes := ToLittleEndian(cobID)
	return MakeInitiateDomainDownload(nodeID, objID, 1, cobIDBytes[:4], true)
}

// MakePDOConfigurationMessages builds the full configuration sequence for
// one PDO: disable (forcing bit 31, and bit 30 under the reserved-bit
// quirk), write communication parameters, write the mapping, then
// re-enable the COB-ID (bit 31 clear; bit 30 stays set under the quirk).
func MakePDOConfigurationMessages(
	transmit bool, nodeID uint8, pdoIndex uint8,
	params PDOCommunicationParameters, mapping PDOMapping,
	quirkReservedBit bool,
) ([]Frame, error) {
	commMessages, err := MakePDOCommunicationParametersMessages(transmit, nodeID, pdoIndex, params)
	if err != nil {
		return nil, err
	}

	enableCOBIDFrame := commMessages[0]
	disableCOBIDFrame := enableCOBIDFrame
	disableCOBIDFrame.Data[7] |= 0x80
	if quirkReservedBit {
		disableCOBIDFrame.Data[7] |= 0x40
		enableCOBIDFrame.Data[7] |= 0x40
	}
	commMessages[0] = disableCOBIDFrame

	mappingMessages, err := MakePDOMappingMessages(transmit, nodeID, pdoIndex, mapping)
	if err != nil {
		return nil, err
	}

	var messages []Frame
	messages = append(messages, commMessages...)
	messages = append(messages, mappingMessages...)
	messages = append(messages, enableCOBIDFrame)
	return messages, nil
}
