package canopen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildEmergencyFrame(nodeID uint8, code uint16, errorRegister byte) Frame {
	var frame Frame
	frame.ID = FunctionEmergency + uint32(nodeID)
	frame.DLC = 8
	putUint16(frame.Data[0:2], code)
	frame.Data[2] = errorRegister
	for i := range frame.Data[3:8] {
		frame.Data[3+i] = byte(i + 1)
	}
	return frame
}

func TestParseEmergencyDefault(t *testing.T) {
	frame := buildEmergencyFrame(0x20, 0x1000, 0x04)
	em, err := ParseEmergency(frame, 0)
	assert.NoError(t, err)
	assert.EqualValues(t, 0x1000, em.Code)
	assert.EqualValues(t, 0x04, em.ErrorRegister)
	assert.Equal(t, [5]byte{1, 2, 3, 4, 5}, em.VendorSpecific)
}

func TestParseEmergencyQuirkSuppressesErrorRegister(t *testing.T) {
	frame := buildEmergencyFrame(0x20, 0x1000, 0x04)
	em, err := ParseEmergency(frame, QuirkEmergencyErrorRegisterFromFrame)
	assert.NoError(t, err)
	assert.EqualValues(t, 0, em.ErrorRegister)
}

func TestParseEmergencyWrongFunctionCode(t *testing.T) {
	_, err := ParseEmergency(Frame{ID: FunctionNMTHeartbeat + 0x20}, 0)
	assert.Error(t, err)
}
