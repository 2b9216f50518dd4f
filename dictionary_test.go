package canopen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDictionaryGetBeforeReadFails(t *testing.T) {
	d := NewDictionary()
	require := assert.New(t)
	_, err := d.Get(0x2000, 0x01)
	require.ErrorIs(err, ErrObjectNotRead)
}

func TestDictionarySetThenGetRoundTrip(t *testing.T) {
	d := NewDictionary()
	assert.NoError(t, Set[uint32](d, 0x1018, 0x04, 0xDEADBEEF, NewTimestamp(1)))

	value, err := Get[uint32](d, 0x1018, 0x04)
	assert.NoError(t, err)
	assert.EqualValues(t, 0xDEADBEEF, value)

	ts, err := d.Timestamp(0x1018, 0x04)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, ts.Value())
}

func TestDictionaryDeclareSizeMismatch(t *testing.T) {
	d := NewDictionary()
	assert.NoError(t, d.Declare(0x2000, 0x01, 2))
	err := d.Declare(0x2000, 0x01, 4)
	assert.ErrorIs(t, err, ErrObjectSizeMismatch)
}

func TestDictionarySetSizeMismatch(t *testing.T) {
	d := NewDictionary()
	assert.NoError(t, Set[uint16](d, 0x2000, 0x01, 7, NewTimestamp(1)))
	err := Set[uint32](d, 0x2000, 0x01, 7, NewTimestamp(2))
	assert.ErrorIs(t, err, ErrObjectSizeMismatch)
}

func TestDictionarySetRejectsNullTimestamp(t *testing.T) {
	d := NewDictionary()
	err := Set[uint32](d, 0x1018, 0x04, 0xDEADBEEF, Timestamp{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDictionaryGetPinsUnknownSize(t *testing.T) {
	d := NewDictionary()
	assert.NoError(t, d.writeFromFrame(0x1018, 0x04, []byte{0xFE, 0x03, 0x00, 0x00}, NewTimestamp(1), false))

	value, err := Get[uint16](d, 0x1018, 0x04)
	assert.NoError(t, err)
	assert.EqualValues(t, 0x03FE, value)

	// The entry is now pinned to size 2; a mismatched typed Get fails with
	// ErrInvalidObjectType instead of silently reinterpreting the bytes.
	_, err = Get[uint32](d, 0x1018, 0x04)
	assert.ErrorIs(t, err, ErrInvalidObjectType)
}

func TestDictionaryGetKnownSizeMismatchIsInvalidObjectType(t *testing.T) {
	d := NewDictionary()
	assert.NoError(t, d.Declare(0x2000, 0x01, 2))
	assert.NoError(t, d.writeFromFrame(0x2000, 0x01, []byte{0x01, 0x02}, NewTimestamp(1), true))

	_, err := Get[uint32](d, 0x2000, 0x01)
	assert.ErrorIs(t, err, ErrInvalidObjectType)
}

func TestDictionaryWriteFromFrameKnownSizeMismatchIsProtocolError(t *testing.T) {
	d := NewDictionary()
	assert.NoError(t, d.Declare(0x2000, 0x01, 2))
	err := d.writeFromFrame(0x2000, 0x01, []byte{0x01, 0x02, 0x03, 0x04}, NewTimestamp(1), true)
	assert.ErrorIs(t, err, ErrProtocolError)
}

func TestDictionaryEntries(t *testing.T) {
	d := NewDictionary()
	assert.NoError(t, Set[uint8](d, 0x1001, 0x00, 0, NewTimestamp(1)))
	assert.NoError(t, Set[uint32](d, 0x1017, 0x00, 1000, NewTimestamp(1)))
	assert.Len(t, d.Entries(), 2)
}
