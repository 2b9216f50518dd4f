package canopen

// RemoteNode is a typed façade over a StateMachine, grouping the
// operations an application actually performs against one remote node:
// query its state, read and write typed objects, and inspect what has been
// read so far. It adds no behavior of its own beyond the generic dispatch
// ObjectDescriptor needs; every frame it builds or consumes still goes
// through the underlying StateMachine.
type RemoteNode struct {
	*StateMachine
}

// NewRemoteNode returns a RemoteNode tracking nodeID.
func NewRemoteNode(nodeID uint8) *RemoteNode {
	return &RemoteNode{StateMachine: NewStateMachine(nodeID)}
}

// resolveOffsets applies the optional (idOffset, subOffset) pair every
// façade method accepts to descriptor, for addressing array-like objects
// relative to a compile-time descriptor (e.g. the same descriptor reused
// across a family of sub-nodes or sub-indices). Omitted offsets default to
// zero; offsets beyond the first two are ignored.
func resolveOffsets[T Integer](descriptor ObjectDescriptor[T], offsets []int) (uint16, uint8) {
	idOffset, subOffset := 0, 0
	if len(offsets) > 0 {
		idOffset = offsets[0]
	}
	if len(offsets) > 1 {
		subOffset = offsets[1]
	}
	return uint16(int(descriptor.Index) + idOffset), uint8(int(descriptor.SubIndex) + subOffset)
}

// Has reports whether descriptor's object (optionally shifted by
// idOffset, subOffset) has an entry in the local dictionary, whether
// declared, written with SetObject, or read from this node.
func Has[T Integer](n *RemoteNode, descriptor ObjectDescriptor[T], offsets ...int) bool {
	index, subIndex := resolveOffsets(descriptor, offsets)
	return n.Dictionary.Has(index, subIndex)
}

// GetObject returns the current value of descriptor's object (optionally
// shifted by idOffset, subOffset), decoded as T. It fails with
// ErrObjectNotRead if the object has never been read.
func GetObject[T Integer](n *RemoteNode, descriptor ObjectDescriptor[T], offsets ...int) (T, error) {
	index, subIndex := resolveOffsets(descriptor, offsets)
	return Get[T](n.Dictionary, index, subIndex)
}

// TimestampOf returns the time descriptor's object (optionally shifted by
// idOffset, subOffset) was last updated.
func TimestampOf[T Integer](n *RemoteNode, descriptor ObjectDescriptor[T], offsets ...int) (Timestamp, error) {
	index, subIndex := resolveOffsets(descriptor, offsets)
	return n.Dictionary.Timestamp(index, subIndex)
}

// QueryUpload builds the SDO request frame to read descriptor's object,
// optionally shifted by idOffset, subOffset.
func QueryUpload[T Integer](n *RemoteNode, descriptor ObjectDescriptor[T], offsets ...int) Frame {
	index, subIndex := resolveOffsets(descriptor, offsets)
	return n.Upload(index, subIndex)
}

// QueryDownload builds the SDO request frame to write value to
// descriptor's object, optionally shifted by idOffset, subOffset.
func QueryDownload[T Integer](n *RemoteNode, descriptor ObjectDescriptor[T], value T, offsets ...int) (Frame, error) {
	index, subIndex := resolveOffsets(descriptor, offsets)
	return DownloadValue(n.StateMachine, index, subIndex, value)
}

// SetObject writes value into descriptor's object (optionally shifted by
// idOffset, subOffset) in the local dictionary directly, without going
// over the bus. This is how an application seeds a node's initial state,
// or applies a value it already confirmed via a separate transport.
func SetObject[T Integer](n *RemoteNode, descriptor ObjectDescriptor[T], value T, at Timestamp, offsets ...int) error {
	index, subIndex := resolveOffsets(descriptor, offsets)
	return Set[T](n.Dictionary, index, subIndex, value, at)
}
