package canopen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoteNodeSetAndGetObject(t *testing.T) {
	node := NewRemoteNode(0x20)
	assert.False(t, Has(node, IdentityObjectSerialNumber))

	assert.NoError(t, SetObject(node, IdentityObjectSerialNumber, uint32(0x12345678), NewTimestamp(1)))
	assert.True(t, Has(node, IdentityObjectSerialNumber))

	value, err := GetObject(node, IdentityObjectSerialNumber)
	assert.NoError(t, err)
	assert.EqualValues(t, 0x12345678, value)

	ts, err := TimestampOf(node, IdentityObjectSerialNumber)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, ts.Value())
}

func TestRemoteNodeSetAndGetObjectWithOffsets(t *testing.T) {
	node := NewRemoteNode(0x20)

	// ConsumerHeartbeatTime is 0x1016:0x02; address its first array entry
	// (sub-index 1) via an explicit sub-offset.
	assert.NoError(t, SetObject(node, ConsumerHeartbeatTime, uint32(100), NewTimestamp(1), 0, -1))
	assert.False(t, Has(node, ConsumerHeartbeatTime))
	assert.True(t, Has(node, ConsumerHeartbeatTime, 0, -1))

	value, err := GetObject(node, ConsumerHeartbeatTime, 0, -1)
	assert.NoError(t, err)
	assert.EqualValues(t, 100, value)
}

func TestRemoteNodeQueryUploadAndDownload(t *testing.T) {
	node := NewRemoteNode(0x20)

	uploadFrame := QueryUpload(node, ProducerHeartbeatTime)
	assert.EqualValues(t, FunctionSDOClient+0x20, uploadFrame.ID)
	assert.EqualValues(t, ProducerHeartbeatTime.Index, GetSDOObjectID(uploadFrame))

	downloadFrame, err := QueryDownload(node, ProducerHeartbeatTime, uint32(1000))
	assert.NoError(t, err)
	assert.EqualValues(t, 1000, getUint32(downloadFrame.Data[4:8]))
}
