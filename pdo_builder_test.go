package canopen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPDODefaultCOBID(t *testing.T) {
	assert.EqualValues(t, FunctionPDO0Transmit+0x20, GetPDODefaultCOBID(true, 0, 0x20))
	assert.EqualValues(t, FunctionPDO0Receive+0x20, GetPDODefaultCOBID(false, 0, 0x20))
	assert.EqualValues(t, FunctionPDO1Transmit+0x20, GetPDODefaultCOBID(true, 1, 0x20))
}

func TestGetPDOParametersAndMappingObjectID(t *testing.T) {
	assert.EqualValues(t, 0x1800, GetPDOParametersObjectID(true, 0))
	assert.EqualValues(t, 0x1400, GetPDOParametersObjectID(false, 0))
	assert.EqualValues(t, 0x1A02, GetPDOMappingObjectID(true, 2))
	assert.EqualValues(t, 0x1602, GetPDOMappingObjectID(false, 2))
}

func TestMakePDOCommunicationParametersMessagesSynchronous(t *testing.T) {
	params := PDOCommunicationParameters{TransmissionMode: TransmissionSynchronous, SyncPeriod: 5}
	messages, err := MakePDOCommunicationParametersMessages(true, 0x20, 0, params)
	assert.NoError(t, err)
	assert.Len(t, messages, 2) // cob-id, transmission mode only -- no inhibit/timer for sync

	assert.EqualValues(t, 1, GetSDOObjectSubID(messages[0]))
	assert.EqualValues(t, FunctionPDO0Transmit+0x20, getUint32(messages[0].Data[4:8]))

	assert.EqualValues(t, 2, GetSDOObjectSubID(messages[1]))
	assert.Equal(t, byte(5), messages[1].Data[4])
}

func TestMakePDOCommunicationParametersMessagesAsynchronous(t *testing.T) {
	params := PDOCommunicationParameters{TransmissionMode: TransmissionAsynchronous}
	messages, err := MakePDOCommunicationParametersMessages(true, 0x20, 0, params)
	assert.NoError(t, err)
	assert.Len(t, messages, 4) // cob-id, mode, inhibit time, timer period
	assert.Equal(t, byte(254), messages[1].Data[4])
}

func TestMakePDOCommunicationParametersMessagesRejectsBadSyncPeriod(t *testing.T) {
	params := PDOCommunicationParameters{TransmissionMode: TransmissionSynchronous, SyncPeriod: 252}
	_, err := MakePDOCommunicationParametersMessages(true, 0x20, 0, params)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMakePDOMappingMessages(t *testing.T) {
	var mapping PDOMapping
	assert.NoError(t, mapping.Add(0x6000, 0x01, 4))
	assert.NoError(t, mapping.Add(0x6001, 0x01, 2))

	messages, err := MakePDOMappingMessages(true, 0x20, 0, mapping)
	assert.NoError(t, err)
	assert.Len(t, messages, 4) // disable, entry 1, entry 2, enable

	assert.EqualValues(t, 0, GetSDOObjectSubID(messages[0]))
	assert.EqualValues(t, 0, getUint32(messages[0].Data[4:8]))

	entry1 := getUint32(messages[1].Data[4:8])
	assert.EqualValues(t, 0x6000<<16|0x01<<8|32, entry1)

	enable := messages[3]
	assert.EqualValues(t, 0, GetSDOObjectSubID(enable))
	assert.EqualValues(t, 2, getUint32(enable.Data[4:8]))
}

func TestDisablePDOMessageSetsBit31(t *testing.T) {
	frame, err := DisablePDOMessage(true, 0x20, 0, 0, false)
	assert.NoError(t, err)
	cobID := getUint32(frame.Data[4:8])
	assert.NotZero(t, cobID&0x80000000)
	assert.Zero(t, cobID&0x40000000)
}

func TestDisablePDOMessageQuirkSetsBit30(t *testing.T) {
	frame, err := DisablePDOMessage(true, 0x20, 0, 0, true)
	assert.NoError(t, err)
	cobID := getUint32(frame.Data[4:8])
	assert.NotZero(t, cobID&0x80000000)
	assert.NotZero(t, cobID&0x40000000)
}

func TestMakePDOConfigurationMessagesSequence(t *testing.T) {
	var mapping PDOMapping
	assert.NoError(t, mapping.Add(0x6000, 0x01, 4))

	params := PDOCommunicationParameters{TransmissionMode: TransmissionAsynchronous}
	messages, err := MakePDOConfigurationMessages(true, 0x20, 0, params, mapping, false)
	assert.NoError(t, err)
	// 4 comm-param frames + 3 mapping frames (disable, 1 entry, enable) + 1 re-enable cob-id
	assert.Len(t, messages, 8)

	disableCobID := getUint32(messages[0].Data[4:8])
	assert.NotZero(t, disableCobID&0x80000000)

	enableCobID := getUint32(messages[len(messages)-1].Data[4:8])
	assert.Zero(t, enableCobID&0x80000000)
}

func TestMakePDOConfigurationMessagesSequenceQuirk(t *testing.T) {
	var mapping PDOMapping
	assert.NoError(t, mapping.Add(0x6000, 0x01, 4))

	params := PDOCommunicationParameters{TransmissionMode: TransmissionAsynchronous}
	messages, err := MakePDOConfigurationMessages(true, 0x02, 1, params, mapping, true)
	assert.NoError(t, err)
	assert.Len(t, messages, 8)

	disableCobID := getUint32(messages[0].Data[4:8])
	assert.EqualValues(t, 0xC0000282, disableCobID)

	enableCobID := getUint32(messages[len(messages)-1].Data[4:8])
	assert.EqualValues(t, 0x40000282, enableCobID)
}
