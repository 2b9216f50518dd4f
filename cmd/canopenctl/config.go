package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samsamfire/canopen-master"
	"gopkg.in/ini.v1"
)

// pdoConfig holds one PDO's communication parameters and mapping, as
// loaded from a config file section.
type pdoConfig struct {
	params  canopen.PDOCommunicationParameters
	mapping canopen.PDOMapping
}

// config is this CLI's parsed view of a .ini node configuration file,
// modeled after the teacher's EDS loading idiom (gopkg.in/ini.v1) but
// describing a master-side node rather than a device's object dictionary.
type config struct {
	nodeID          uint8
	quirks          uint64
	useUnknownSizes bool
	rpdo            map[uint8]pdoConfig
	tpdo            map[uint8]pdoConfig
}

var quirkNames = map[string]uint64{
	"emergency_error_register_from_frame": canopen.QuirkEmergencyErrorRegisterFromFrame,
	"pdo_cobid_reserved_bit":              canopen.QuirkPDOCOBIDReservedBit,
}

var transmissionModeNames = map[string]canopen.TransmissionMode{
	"synchronous":          canopen.TransmissionSynchronous,
	"synchronous_rtr_only":  canopen.TransmissionSynchronousRTROnly,
	"asynchronous_rtr_only": canopen.TransmissionAsynchronousRTROnly,
	"asynchronous":          canopen.TransmissionAsynchronous,
}

func loadConfig(path string) (*config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	nodeSection := file.Section("node")
	nodeID, err := nodeSection.Key("id").Int()
	if err != nil {
		return nil, fmt.Errorf("config %s: [node] id: %w", path, err)
	}

	cfg := &config{
		nodeID:          uint8(nodeID),
		useUnknownSizes: nodeSection.Key("use_unknown_sizes").MustBool(false),
		rpdo:            make(map[uint8]pdoConfig),
		tpdo:            make(map[uint8]pdoConfig),
	}

	for _, name := range strings.Split(nodeSection.Key("quirks").String(), ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		bit, ok := quirkNames[name]
		if !ok {
			return nil, fmt.Errorf("config %s: [node] quirks: unknown quirk %q", path, name)
		}
		cfg.quirks |= bit
	}

	for _, section := range file.Sections() {
		switch {
		case strings.HasPrefix(section.Name(), "rpdo."):
			index, pdo, err := parsePDOSection(section)
			if err != nil {
				return nil, fmt.Errorf("config %s: %w", path, err)
			}
			cfg.rpdo[index] = pdo
		case strings.HasPrefix(section.Name(), "tpdo."):
			index, pdo, err := parsePDOSection(section)
			if err != nil {
				return nil, fmt.Errorf("config %s: %w", path, err)
			}
			cfg.tpdo[index] = pdo
		}
	}

	return cfg, nil
}

func parsePDOSection(section *ini.Section) (uint8, pdoConfig, error) {
	parts := strings.SplitN(section.Name(), ".", 2)
	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, pdoConfig{}, fmt.Errorf("section %s: invalid PDO index: %w", section.Name(), err)
	}

	modeName := section.Key("transmission_mode").MustString("asynchronous")
	mode, ok := transmissionModeNames[modeName]
	if !ok {
		return 0, pdoConfig{}, fmt.Errorf("section %s: unknown transmission_mode %q", section.Name(), modeName)
	}

	pdo := pdoConfig{
		params: canopen.PDOCommunicationParameters{
			TransmissionMode: mode,
			CobID:            uint32(section.Key("cob_id").MustUint(0)),
			SyncPeriod:       uint8(section.Key("sync_period").MustUint(0)),
			InhibitTime:      time.Duration(section.Key("inhibit_time_us").MustInt(0)) * time.Microsecond,
			TimerPeriod:      time.Duration(section.Key("timer_period_ms").MustInt(0)) * time.Millisecond,
		},
	}

	for _, entry := range strings.Split(section.Key("mapping").String(), ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.Split(entry, ":")
		if len(fields) != 3 {
			return 0, pdoConfig{}, fmt.Errorf("section %s: mapping entry %q must be index:subindex:size", section.Name(), entry)
		}
		objectID, err := strconv.ParseUint(strings.TrimPrefix(fields[0], "0x"), 16, 16)
		if err != nil {
			return 0, pdoConfig{}, fmt.Errorf("section %s: mapping entry %q: %w", section.Name(), entry, err)
		}
		subID, err := strconv.ParseUint(fields[1], 10, 8)
		if err != nil {
			return 0, pdoConfig{}, fmt.Errorf("section %s: mapping entry %q: %w", section.Name(), entry, err)
		}
		size, err := strconv.ParseUint(fields[2], 10, 8)
		if err != nil {
			return 0, pdoConfig{}, fmt.Errorf("section %s: mapping entry %q: %w", section.Name(), entry, err)
		}
		if err := pdo.mapping.Add(uint16(objectID), uint8(subID), uint8(size)); err != nil {
			return 0, pdoConfig{}, fmt.Errorf("section %s: %w", section.Name(), err)
		}
	}

	return uint8(index), pdo, nil
}
