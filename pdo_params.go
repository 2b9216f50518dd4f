package canopen

import "time"

// TransmissionMode selects how a PDO is triggered, encoded into
// sub-index 2 of its communication parameter object.
type TransmissionMode uint8

const (
	TransmissionSynchronous       TransmissionMode = iota // periodic, SyncPeriod SYNCs apart
	TransmissionSynchronousRTROnly                        // sent only on RTR, between SYNCs
	TransmissionAsynchronousRTROnly                       // sent only on RTR
	TransmissionAsynchronous                              // event/timer driven
)

// PDOCommunicationParameters configures a single PDO's communication
// parameter object (0x1400+n / 0x1800+n).
type PDOCommunicationParameters struct {
	TransmissionMode TransmissionMode
	// CobID is the 32-bit COB-ID to configure. Zero selects the default
	// COB-ID for this PDO's role, index and node id (see
	// GetPDODefaultCOBID).
	CobID uint32
	// SyncPeriod is the number of SYNCs between transmissions in
	// TransmissionSynchronous mode; must be 0..251.
	SyncPeriod uint8
	// InhibitTime is the minimum time between two transmissions of an
	// asynchronous TPDO. Ignored for RPDOs. Must be < 6.5536s.
	InhibitTime time.Duration
	// TimerPeriod is the event timer period of an asynchronous TPDO.
	// Ignored for RPDOs. Must be < 65.536s.
	TimerPeriod time.Duration
}
