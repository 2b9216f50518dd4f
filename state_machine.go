package canopen

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// StateMachine is a pure, synchronous master-side CANopen state machine for
// a single remote node. It holds no clock, no bus and no goroutines: every
// incoming frame is handed to Process, and every outgoing frame is returned
// by one of the Make*/Query*/Sync/Upload/Download methods for the caller to
// send on its own CAN driver.
type StateMachine struct {
	// NodeID is the CANopen node id this state machine tracks.
	NodeID uint8
	// Quirks enables opt-in deviations from strict CANopen semantics; see
	// QuirkEmergencyErrorRegisterFromFrame and QuirkPDOCOBIDReservedBit.
	Quirks uint64
	// UseUnknownSizes, when true, omits the size-indicated bit from outgoing
	// SDO download frames built by Download. It has no effect on inbound
	// SDO upload replies: a reply that carries no size indication is
	// always accepted, falling back to the dictionary's existing size for
	// the object or, failing that, 4 bytes with the entry's size left
	// unknown until the first typed read pins it.
	UseUnknownSizes bool
	// Log receives diagnostic entries for frames that were swallowed rather
	// than surfaced as an error (unknown commands, PDOs with no mapping,
	// and so on). Defaults to logrus.StandardLogger() if nil.
	Log logrus.FieldLogger

	Dictionary *Dictionary

	rpdoMappings [MaxPDO]PDOMapping
	tpdoMappings [MaxPDO]PDOMapping

	lastMessageTime  Timestamp
	lastStateUpdate  Timestamp
	nodeState        NodeState
	haveNodeState    bool
}

// NewStateMachine returns a StateMachine tracking nodeID, with an empty
// dictionary and no declared PDO mappings.
func NewStateMachine(nodeID uint8) *StateMachine {
	return &StateMachine{
		NodeID:     nodeID,
		Dictionary: NewDictionary(),
		Log:        logrus.StandardLogger(),
	}
}

func (s *StateMachine) logger() logrus.FieldLogger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}

// LastMessageTime returns the timestamp of the last frame accepted from
// this node (i.e. that passed the node id check), or the null Timestamp if
// none has been processed yet.
func (s *StateMachine) LastMessageTime() Timestamp {
	return s.lastMessageTime
}

// NodeState returns the last NMT state reported by this node's heartbeat,
// and whether one has been observed yet.
func (s *StateMachine) NodeState() (NodeState, bool) {
	return s.nodeState, s.haveNodeState
}

// NodeStateTimestamp returns the time of the last heartbeat that updated
// NodeState.
func (s *StateMachine) NodeStateTimestamp() Timestamp {
	return s.lastStateUpdate
}

// Process advances the state machine with one incoming frame, updating the
// dictionary and node state as needed, and reports what happened via the
// returned Update. A non-nil error means an SDOAbortError or EmergencyError
// was observed, or a protocol invariant was violated. With an
// EmergencyError the Update still reports the Emergency mode and the
// updated ErrorRegister; with any other error it is the zero Update.
func (s *StateMachine) Process(frame Frame) (Update, error) {
	switch frame.ID {
	case BroadcastSync, BroadcastTimestamp, BroadcastNMTModuleControl:
		return Update{Mode: IgnoredMessage}, nil
	}

	functionCode := GetFunctionCode(frame)
	switch functionCode {
	case FunctionEmergency:
		return s.processEmergency(frame)
	case FunctionNMTHeartbeat:
		return s.processHeartbeat(frame)
	case FunctionSDOServer:
		return s.processSDOReceive(frame)
	case FunctionPDO0Transmit, FunctionPDO1Transmit, FunctionPDO2Transmit, FunctionPDO3Transmit:
		return s.processPDOReceive(pdoIndexFromTransmitFunction(functionCode), frame)
	default:
		return Update{Mode: IgnoredMessage}, nil
	}
}

func pdoIndexFromTransmitFunction(functionCode uint32) uint8 {
	switch functionCode {
	case FunctionPDO0Transmit:
		return 0
	case FunctionPDO1Transmit:
		return 1
	case FunctionPDO2Transmit:
		return 2
	default:
		return 3
	}
}

func (s *StateMachine) acceptFrom(frame Frame) bool {
	if GetNodeID(frame) != s.NodeID {
		return false
	}
	s.lastMessageTime = frame.Time
	return true
}

func (s *StateMachine) processEmergency(frame Frame) (Update, error) {
	if !s.acceptFrom(frame) {
		return Update{Mode: NotForMe}, nil
	}

	em, err := ParseEmergency(frame, s.Quirks)
	if err != nil {
		return Update{}, err
	}
	if err := s.Dictionary.writeFromFrame(ErrorRegisterObject.Index, ErrorRegisterObject.SubIndex, frame.Data[2:3], frame.Time, true); err != nil {
		return Update{}, err
	}
	updated := []ObjectID{{Index: ErrorRegisterObject.Index, SubIndex: ErrorRegisterObject.SubIndex}}

	if em.Code>>8 == 0 {
		return Update{Mode: EmergencyNoError, Updated: updated}, nil
	}
	return Update{Mode: Emergency, Updated: updated}, &EmergencyError{Emergency: em}
}

func (s *StateMachine) processHeartbeat(frame Frame) (Update, error) {
	if !s.acceptFrom(frame) {
		return Update{Mode: NotForMe}, nil
	}
	_, state, err := ParseHeartbeat(frame)
	if err != nil {
		return Update{}, err
	}
	s.nodeState = state
	s.haveNodeState = true
	s.lastStateUpdate = frame.Time
	return Update{Mode: Heartbeat}, nil
}

func (s *StateMachine) processSDOReceive(frame Frame) (Update, error) {
	if !s.acceptFrom(frame) {
		return Update{Mode: NotForMe}, nil
	}

	cmd := GetSDOCommand(frame)
	switch cmd.Command {
	case SDOAbortDomainTransfer:
		return Update{}, ParseDomainTransferAbort(frame)
	case SDOInitiateDomainUploadReply:
		return s.processSDOUploadReply(frame, cmd)
	case SDOInitiateDomainDownloadReply:
		return Update{Mode: SDOInitiateDownload}, nil
	default:
		s.logger().WithFields(logrus.Fields{
			"node_id": s.NodeID,
			"command": cmd.Command,
		}).Debug("canopen: ignoring unknown SDO command")
		return Update{Mode: SDOUnknownCommand}, nil
	}
}

func (s *StateMachine) processSDOUploadReply(frame Frame, cmd SDOCommandByte) (Update, error) {
	objectID := GetSDOObjectID(frame)
	subID := GetSDOObjectSubID(frame)

	if !cmd.Expedited {
		s.logger().WithFields(logrus.Fields{
			"node_id":   s.NodeID,
			"object_id": fmt.Sprintf("0x%04x", objectID),
			"sub_id":    subID,
		}).Debug("canopen: ignoring non-expedited SDO upload reply")
		return Update{Mode: SDOIgnoredCommand}, nil
	}

	if frame.Time.IsNull() {
		return Update{}, fmt.Errorf("canopen: received CAN message with zero timestamp: %w", ErrProtocolError)
	}

	size := cmd.Size
	newEntryKnownSize := true
	if size == 0 {
		if existing, ok := s.Dictionary.sizeIfDeclared(objectID, subID); ok {
			size = existing
		} else {
			size = 4
			newEntryKnownSize = false
		}
	}

	if err := s.Dictionary.writeFromFrame(objectID, subID, frame.Data[4:4+size], frame.Time, newEntryKnownSize); err != nil {
		return Update{}, err
	}
	return Update{Mode: SDO, Updated: []ObjectID{{Index: objectID, SubIndex: subID}}}, nil
}

func (s *StateMachine) processPDOReceive(pdoIndex uint8, frame Frame) (Update, error) {
	if !s.acceptFrom(frame) {
		return Update{Mode: NotForMe}, nil
	}

	mapping := s.tpdoMappings[pdoIndex]
	if mapping.Empty() {
		s.logger().WithFields(logrus.Fields{
			"node_id":   s.NodeID,
			"pdo_index": pdoIndex,
		}).Debug("canopen: ignoring PDO with no declared mapping")
		return Update{Mode: PDOUnexpected}, nil
	}

	var updated []ObjectID
	offset := uint8(0)
	for _, entry := range mapping.Entries {
		if err := s.Dictionary.writeFromFrame(entry.ObjectID, entry.SubID, frame.Data[offset:offset+entry.Size], frame.Time, true); err != nil {
			return Update{}, err
		}
		updated = append(updated, ObjectID{Index: entry.ObjectID, SubIndex: entry.SubID})
		offset += entry.Size
	}
	return Update{Mode: PDO, Updated: updated}, nil
}

// QueryState builds the NMT node-guard request frame for this node.
func (s *StateMachine) QueryState() Frame {
	return MakeNMTNodeGuard(s.NodeID)
}

// QueryStateTransition builds the NMT module-control command frame
// requesting this node perform transition.
func (s *StateMachine) QueryStateTransition(transition NodeStateTransition) Frame {
	return MakeModuleControlCommand(transition, s.NodeID)
}

// Sync builds the broadcast SYNC frame.
func Sync() Frame {
	var frame Frame
	frame.ID = BroadcastSync
	frame.DLC = 0
	return frame
}

// Upload builds the SDO request to read (objectID, subID) from this node.
func (s *StateMachine) Upload(objectID uint16, subID uint8) Frame {
	return MakeInitiateDomainUpload(s.NodeID, objectID, subID)
}

// Download builds the SDO request to write the raw bytes of payload (up
// to 4 bytes) to (objectID, subID) on this node. It fails with
// ErrObjectSizeMismatch if the dictionary already holds this object with a
// different size. The size-indicated bit is set unless UseUnknownSizes.
func (s *StateMachine) Download(objectID uint16, subID uint8, payload []byte) (Frame, error) {
	if existing, ok := s.Dictionary.sizeIfDeclared(objectID, subID); ok && existing != uint32(len(payload)) {
		return Frame{}, fmt.Errorf("canopen: object %04x:%02x has size %d, download carries %d: %w",
			objectID, subID, existing, len(payload), ErrObjectSizeMismatch)
	}
	return MakeInitiateDomainDownload(s.NodeID, objectID, subID, payload, !s.UseUnknownSizes)
}

// DownloadValue builds the SDO request to write a typed little-endian value
// to (objectID, subID) on this node.
func DownloadValue[T Integer](s *StateMachine, objectID uint16, subID uint8, value T) (Frame, error) {
	encoded := ToLittleEndian(value)
	return s.Download(objectID, subID, encoded[:sizeOfType[T]()])
}

// DeclareTPDOMapping registers the objects a transmit PDO (sent by this
// node, received by us) carries, so Process knows how to unpack
// it. It also declares each mapped object in the dictionary.
func (s *StateMachine) DeclareTPDOMapping(pdoIndex uint8, mapping PDOMapping) error {
	if pdoIndex >= MaxPDO {
		return fmt.Errorf("canopen: PDO index %d out of range 0..%d: %w", pdoIndex, MaxPDO-1, ErrInvalidArgument)
	}
	for _, entry := range mapping.Entries {
		if err := s.Dictionary.Declare(entry.ObjectID, entry.SubID, uint32(entry.Size)); err != nil {
			return err
		}
	}
	s.tpdoMappings[pdoIndex] = mapping
	return nil
}

// DeclareRPDOMapping registers the objects a receive PDO (sent by us to
// this node) carries, so GetRPDOMessage knows how to pack it. It also
// declares each mapped object in the dictionary.
func (s *StateMachine) DeclareRPDOMapping(pdoIndex uint8, mapping PDOMapping) error {
	if pdoIndex >= MaxPDO {
		return fmt.Errorf("canopen: PDO index %d out of range 0..%d: %w", pdoIndex, MaxPDO-1, ErrInvalidArgument)
	}
	for _, entry := range mapping.Entries {
		if err := s.Dictionary.Declare(entry.ObjectID, entry.SubID, uint32(entry.Size)); err != nil {
			return err
		}
	}
	s.rpdoMappings[pdoIndex] = mapping
	return nil
}

// GetRPDOMessage packs the current dictionary values of the declared
// receive PDO mapping into an outgoing frame addressed to this node.
func (s *StateMachine) GetRPDOMessage(pdoIndex uint8) (Frame, error) {
	if pdoIndex >= MaxPDO {
		return Frame{}, fmt.Errorf("canopen: PDO index %d out of range 0..%d: %w", pdoIndex, MaxPDO-1, ErrInvalidArgument)
	}
	mapping := s.rpdoMappings[pdoIndex]
	if mapping.Empty() {
		return Frame{}, fmt.Errorf("canopen: RPDO %d has no declared mapping: %w", pdoIndex, ErrInvalidArgument)
	}

	var frame Frame
	frame.ID = GetPDODefaultCOBID(false, pdoIndex, s.NodeID)
	offset := uint8(0)
	for _, entry := range mapping.Entries {
		data, err := s.Dictionary.Get(entry.ObjectID, entry.SubID)
		if err != nil {
			return Frame{}, err
		}
		copy(frame.Data[offset:offset+entry.Size], data)
		offset += entry.Size
	}
	frame.DLC = offset
	return frame, nil
}

// ConfigurePDO builds the full SDO download sequence that disables,
// reconfigures and re-enables one of this node's PDOs: communication
// parameters, mapping, then the original COB-ID.
func (s *StateMachine) ConfigurePDO(transmit bool, pdoIndex uint8, params PDOCommunicationParameters, mapping PDOMapping) ([]Frame, error) {
	return MakePDOConfigurationMessages(transmit, s.NodeID, pdoIndex, params, mapping, s.Quirks&QuirkPDOCOBIDReservedBit != 0)
}

// ConfigurePDOParameters builds the SDO download sequence that writes a
// PDO's communication parameters only.
func (s *StateMachine) ConfigurePDOParameters(transmit bool, pdoIndex uint8, params PDOCommunicationParameters) ([]Frame, error) {
	return MakePDOCommunicationParametersMessages(transmit, s.NodeID, pdoIndex, params)
}

// ConfigurePDOMapping builds the SDO download sequence that writes a PDO's
// mapping only.
func (s *StateMachine) ConfigurePDOMapping(transmit bool, pdoIndex uint8, mapping PDOMapping) ([]Frame, error) {
	return MakePDOMappingMessages(transmit, s.NodeID, pdoIndex, mapping)
}

// DisablePDO builds the single SDO download frame that disables one of
// this node's PDOs.
func (s *StateMachine) DisablePDO(transmit bool, pdoIndex uint8, cobID uint32) (Frame, error) {
	return DisablePDOMessage(transmit, s.NodeID, pdoIndex, cobID, s.Quirks&QuirkPDOCOBIDReservedBit != 0)
}
