package canopen

import "fmt"

// dictionaryEntry is one object in a Dictionary: its raw byte value, the
// time it was last updated, and whether its size is authoritative.
//
// knownSize is true for an entry declared explicitly (Declare, a PDO
// mapping) or written explicitly (Set). It is false for an entry created
// implicitly by an SDO upload reply that carried no size indication; such
// an entry starts at size 4 and is pinned to sizeof(T) by the first typed
// Get[T] that reads it.
type dictionaryEntry struct {
	data      []byte
	timestamp Timestamp
	knownSize bool
}

type objectKey struct {
	objectID uint16
	subID    uint8
}

// Dictionary holds the local mirror of a remote node's object values, keyed
// by (objectID, subID). Entries are declared either explicitly, by
// DeclareTPDOMapping/DeclareRPDOMapping, or implicitly on first receipt of
// an SDO or PDO value.
type Dictionary struct {
	entries map[objectKey]*dictionaryEntry
}

// NewDictionary returns an empty Dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{entries: make(map[objectKey]*dictionaryEntry)}
}

// Declare registers an object of the given byte size, without a value.
// It is a no-op if the object is already declared with the same size, and
// fails with ErrObjectSizeMismatch if it is declared with a different one.
func (d *Dictionary) Declare(objectID uint16, subID uint8, size uint32) error {
	key := objectKey{objectID, subID}
	if existing, ok := d.entries[key]; ok {
		if uint32(len(existing.data)) != size {
			return fmt.Errorf("canopen: object %04x:%02x already declared with size %d, got %d: %w",
				objectID, subID, len(existing.data), size, ErrObjectSizeMismatch)
		}
		return nil
	}
	d.entries[key] = &dictionaryEntry{data: make([]byte, size), knownSize: true}
	return nil
}

// Has reports whether (objectID, subID) has been declared.
func (d *Dictionary) Has(objectID uint16, subID uint8) bool {
	_, ok := d.entries[objectKey{objectID, subID}]
	return ok
}

// SizeOf returns the declared byte size of (objectID, subID), or
// ErrObjectNotRead if it has not been declared.
func (d *Dictionary) SizeOf(objectID uint16, subID uint8) (uint32, error) {
	entry, ok := d.entries[objectKey{objectID, subID}]
	if !ok {
		return 0, fmt.Errorf("canopen: object %04x:%02x not declared: %w", objectID, subID, ErrObjectNotRead)
	}
	return uint32(len(entry.data)), nil
}

// Timestamp returns the time (objectID, subID) was last updated. It fails
// with ErrObjectNotRead if the object has never received a value.
func (d *Dictionary) Timestamp(objectID uint16, subID uint8) (Timestamp, error) {
	entry, ok := d.entries[objectKey{objectID, subID}]
	if !ok || entry.timestamp.IsNull() {
		return Timestamp{}, fmt.Errorf("canopen: object %04x:%02x not read: %w", objectID, subID, ErrObjectNotRead)
	}
	return entry.timestamp, nil
}

// Get returns the raw byte value of (objectID, subID). It fails with
// ErrObjectNotRead if the object has never received a value.
func (d *Dictionary) Get(objectID uint16, subID uint8) ([]byte, error) {
	entry, ok := d.entries[objectKey{objectID, subID}]
	if !ok || entry.timestamp.IsNull() {
		return nil, fmt.Errorf("canopen: object %04x:%02x not read: %w", objectID, subID, ErrObjectNotRead)
	}
	out := make([]byte, len(entry.data))
	copy(out, entry.data)
	return out, nil
}

// setRaw overwrites the value of (objectID, subID) from an application-level
// write (Set), declaring it with knownSize=true first if necessary. It
// fails with ErrObjectSizeMismatch if the object already exists with a
// different size than len(data): this is the declare/application boundary,
// not the wire boundary, so a mismatch here is the caller's mistake, not a
// protocol violation.
func (d *Dictionary) setRaw(objectID uint16, subID uint8, data []byte, at Timestamp) error {
	key := objectKey{objectID, subID}
	entry, ok := d.entries[key]
	if !ok {
		entry = &dictionaryEntry{data: make([]byte, len(data)), knownSize: true}
		d.entries[key] = entry
	}
	if len(entry.data) != len(data) {
		return fmt.Errorf("canopen: object %04x:%02x has size %d, got %d: %w",
			objectID, subID, len(entry.data), len(data), ErrObjectSizeMismatch)
	}
	copy(entry.data, data)
	entry.timestamp = at
	return nil
}

// sizeIfDeclared returns the byte size of (objectID, subID) and true if the
// object has been declared or written, or (0, false) if it has not.
func (d *Dictionary) sizeIfDeclared(objectID uint16, subID uint8) (uint32, bool) {
	entry, ok := d.entries[objectKey{objectID, subID}]
	if !ok {
		return 0, false
	}
	return uint32(len(entry.data)), true
}

// writeFromFrame writes data observed on an incoming CAN frame into
// (objectID, subID), creating the entry if it does not yet exist.
// newEntryKnownSize sets the knownSize flag recorded for a newly created
// entry; it has no effect if the entry already exists. A size disagreement
// with an already-known-size entry is a protocol error: the wire disagrees
// with what this engine already believes about the remote node.
func (d *Dictionary) writeFromFrame(objectID uint16, subID uint8, data []byte, at Timestamp, newEntryKnownSize bool) error {
	key := objectKey{objectID, subID}
	entry, ok := d.entries[key]
	switch {
	case !ok:
		entry = &dictionaryEntry{data: make([]byte, len(data)), knownSize: newEntryKnownSize}
		d.entries[key] = entry
	case entry.knownSize && len(entry.data) != len(data):
		return fmt.Errorf("canopen: object %04x:%02x has size %d, frame carries %d: %w",
			objectID, subID, len(entry.data), len(data), ErrProtocolError)
	case len(entry.data) != len(data):
		entry.data = make([]byte, len(data))
	}
	copy(entry.data, data)
	entry.timestamp = at
	return nil
}

// Entries returns the (objectID, subID) pairs currently declared, in no
// particular order.
func (d *Dictionary) Entries() []ObjectID {
	out := make([]ObjectID, 0, len(d.entries))
	for key := range d.entries {
		out = append(out, ObjectID{Index: key.objectID, SubIndex: key.subID})
	}
	return out
}

// ObjectID identifies an object dictionary entry.
type ObjectID struct {
	Index    uint16
	SubIndex uint8
}

// Get reads the typed value of (objectID, subID) out of d, decoding it as
// little-endian T. It fails with ErrObjectNotRead if the object has never
// been read. If the entry's size is not yet known (created implicitly by
// an SDO upload reply that carried no size indication), this pins it to
// sizeof(T) and succeeds. If the size is already known and disagrees with
// sizeof(T), it fails with ErrInvalidObjectType.
func Get[T Integer](d *Dictionary, objectID uint16, subID uint8) (T, error) {
	entry, ok := d.entries[objectKey{objectID, subID}]
	if !ok || entry.timestamp.IsNull() {
		return 0, fmt.Errorf("canopen: object %04x:%02x not read: %w", objectID, subID, ErrObjectNotRead)
	}

	size := sizeOfType[T]()
	if entry.knownSize {
		if uint32(len(entry.data)) != size {
			return 0, fmt.Errorf("canopen: object %04x:%02x has size %d, requested sizeof(T)=%d: %w",
				objectID, subID, len(entry.data), size, ErrInvalidObjectType)
		}
	} else if uint32(len(entry.data)) != size {
		entry.data = entry.data[:size]
		entry.knownSize = true
	} else {
		entry.knownSize = true
	}

	out := make([]byte, size)
	copy(out, entry.data)
	return FromLittleEndian[T](out), nil
}

// Set writes the typed value of (objectID, subID) into d, encoding it as
// little-endian, declaring it with sizeof(T) and knownSize=true if not
// already present. at must be non-null; a null timestamp is rejected with
// ErrInvalidArgument.
func Set[T Integer](d *Dictionary, objectID uint16, subID uint8, value T, at Timestamp) error {
	if at.IsNull() {
		return fmt.Errorf("canopen: Set(%04x:%02x) requires a non-null timestamp: %w", objectID, subID, ErrInvalidArgument)
	}
	encoded := ToLittleEndian(value)
	size := sizeOfType[T]()
	return d.setRaw(objectID, subID, encoded[:size], at)
}
