package canopen

import "fmt"

// NodeState is the CANopen NMT state a remote node reports in its
// heartbeat or bootup message.
type NodeState uint8

const (
	NodeInitializing  NodeState = 0x00
	NodeStopped       NodeState = 0x04
	NodeOperational   NodeState = 0x05
	NodePreOperational NodeState = 0x7F
)

func (s NodeState) String() string {
	switch s {
	case NodeInitializing:
		return "INITIALIZING"
	case NodeStopped:
		return "STOPPED"
	case NodeOperational:
		return "OPERATIONAL"
	case NodePreOperational:
		return "PRE_OPERATIONAL"
	default:
		return fmt.Sprintf("NodeState(0x%02x)", uint8(s))
	}
}

// NodeStateTransition is an NMT module-control command requesting a node
// change its state.
type NodeStateTransition uint8

const (
	TransitionStart                NodeStateTransition = 0x01
	TransitionStop                 NodeStateTransition = 0x02
	TransitionEnterPreOperational  NodeStateTransition = 0x80
	TransitionReset                NodeStateTransition = 0x81
	TransitionResetCommunication   NodeStateTransition = 0x82
)

// MakeModuleControlCommand builds the broadcast NMT module-control frame
// requesting the given node (0 addresses all nodes) perform transition.
func MakeModuleControlCommand(transition NodeStateTransition, nodeID uint8) Frame {
	var frame Frame
	frame.ID = BroadcastNMTModuleControl
	frame.DLC = 2
	frame.Data[0] = byte(transition)
	frame.Data[1] = nodeID
	return frame
}

// MakeNMTNodeGuard builds a node-guarding request frame for nodeID. A
// server that supports node guarding answers with its current state in a
// single data byte, the same shape as a heartbeat.
func MakeNMTNodeGuard(nodeID uint8) Frame {
	var frame Frame
	frame.ID = FunctionNMTHeartbeat + uint32(nodeID)
	frame.DLC = 0
	return frame
}

// ParseHeartbeat extracts the node id and reported state from a heartbeat
// (or bootup, or node-guard reply) frame. It fails if frame is not on the
// NMT error-control function code.
func ParseHeartbeat(frame Frame) (nodeID uint8, state NodeState, err error) {
	if GetFunctionCode(frame) != FunctionNMTHeartbeat {
		return 0, 0, fmt.Errorf("canopen: expected a heartbeat frame, got id 0x%03x", frame.ID)
	}
	return GetNodeID(frame), NodeState(frame.Data[0]), nil
}
