package canopen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeInitiateDomainUpload(t *testing.T) {
	frame := MakeInitiateDomainUpload(0x20, 0x1018, 0x04)
	assert.EqualValues(t, FunctionSDOClient+0x20, frame.ID)
	assert.EqualValues(t, 8, frame.DLC)
	assert.Equal(t, byte(0x40), frame.Data[0])
	assert.EqualValues(t, 0x1018, GetSDOObjectID(frame))
	assert.EqualValues(t, 0x04, GetSDOObjectSubID(frame))
}

func TestMakeInitiateDomainDownload(t *testing.T) {
	frame, err := MakeInitiateDomainDownload(0x20, 0x2000, 0x01, []byte{0x01, 0x02}, true)
	assert.NoError(t, err)
	assert.EqualValues(t, FunctionSDOClient+0x20, frame.ID)
	// command byte: 0x20 | ((4-2)<<2) | 0x03 = 0x20 | 0x08 | 0x03 = 0x2b
	assert.Equal(t, byte(0x2b), frame.Data[0])
	assert.Equal(t, []byte{0x01, 0x02}, frame.Data[4:6])

	cmd := GetSDOCommand(frame)
	assert.Equal(t, SDOInitiateDomainDownload, cmd.Command)
	assert.True(t, cmd.Expedited)
	assert.EqualValues(t, 2, cmd.Size)
}

func TestMakeInitiateDomainDownloadRejectsOversize(t *testing.T) {
	_, err := MakeInitiateDomainDownload(0x20, 0x2000, 0x01, []byte{1, 2, 3, 4, 5}, true)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestGetSDOCommandExpeditedSize(t *testing.T) {
	frame, err := MakeInitiateDomainDownload(0x20, 0x2000, 0x01, []byte{0xAA}, true)
	assert.NoError(t, err)
	cmd := GetSDOCommand(frame)
	assert.EqualValues(t, 1, cmd.Size)
}

func TestParseDomainTransferAbort(t *testing.T) {
	var frame Frame
	frame.ID = FunctionSDOServer + 0x20
	frame.Data[0] = byte(SDOAbortDomainTransfer) << 5
	putUint16(frame.Data[1:3], 0x1018)
	frame.Data[3] = 0x01
	putUint32(frame.Data[4:8], 0x06020000)

	abort := ParseDomainTransferAbort(frame)
	assert.EqualValues(t, 0x1018, abort.Index)
	assert.EqualValues(t, 0x01, abort.SubIndex)
	assert.EqualValues(t, 0x06020000, abort.Code)
	assert.Contains(t, abort.Error(), "0x1018")
}
