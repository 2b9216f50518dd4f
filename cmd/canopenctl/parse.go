package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/samsamfire/canopen-master"
)

// parseStateTransition parses a -state-set argument into the
// NodeStateTransition it names.
func parseStateTransition(s string) (canopen.NodeStateTransition, error) {
	switch strings.ToUpper(s) {
	case "START":
		return canopen.TransitionStart, nil
	case "STOP":
		return canopen.TransitionStop, nil
	case "ENTER_PRE_OPERATIONAL":
		return canopen.TransitionEnterPreOperational, nil
	case "RESET":
		return canopen.TransitionReset, nil
	case "RESET_COMMUNICATION":
		return canopen.TransitionResetCommunication, nil
	default:
		return 0, fmt.Errorf("unknown state transition %q", s)
	}
}

// parseObjectRef parses "index:subindex" (hex index, decimal subindex)
// as used by -sdo-get.
func parseObjectRef(s string) (objectID uint16, subID uint8, err error) {
	fields := strings.Split(s, ":")
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected index:subindex, got %q", s)
	}
	index, err := strconv.ParseUint(fields[0], 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid index %q: %w", fields[0], err)
	}
	sub, err := strconv.ParseUint(fields[1], 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid subindex %q: %w", fields[1], err)
	}
	return uint16(index), uint8(sub), nil
}

// parseObjectWrite parses "index:subindex:hexvalue" as used by -sdo-set.
func parseObjectWrite(s string) (objectID uint16, subID uint8, payload []byte, err error) {
	fields := strings.SplitN(s, ":", 3)
	if len(fields) != 3 {
		return 0, 0, nil, fmt.Errorf("expected index:subindex:hexvalue, got %q", s)
	}
	objectID, subID, err = parseObjectRef(fields[0] + ":" + fields[1])
	if err != nil {
		return 0, 0, nil, err
	}
	payload, err = hex.DecodeString(fields[2])
	if err != nil {
		return 0, 0, nil, fmt.Errorf("invalid hex value %q: %w", fields[2], err)
	}
	return objectID, subID, payload, nil
}
