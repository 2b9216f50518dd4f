package canopen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeModuleControlCommand(t *testing.T) {
	frame := MakeModuleControlCommand(TransitionStart, 0x20)
	assert.EqualValues(t, BroadcastNMTModuleControl, frame.ID)
	assert.EqualValues(t, 2, frame.DLC)
	assert.Equal(t, byte(0x01), frame.Data[0])
	assert.Equal(t, byte(0x20), frame.Data[1])
}

func TestMakeNMTNodeGuard(t *testing.T) {
	frame := MakeNMTNodeGuard(0x20)
	assert.EqualValues(t, FunctionNMTHeartbeat+0x20, frame.ID)
}

func TestParseHeartbeat(t *testing.T) {
	var frame Frame
	frame.ID = FunctionNMTHeartbeat + 0x20
	frame.Data[0] = byte(NodeOperational)

	nodeID, state, err := ParseHeartbeat(frame)
	assert.NoError(t, err)
	assert.EqualValues(t, 0x20, nodeID)
	assert.Equal(t, NodeOperational, state)
}

func TestParseHeartbeatWrongFunctionCode(t *testing.T) {
	_, _, err := ParseHeartbeat(Frame{ID: FunctionEmergency + 0x20})
	assert.Error(t, err)
}
