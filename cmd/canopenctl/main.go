// Command canopenctl drives a single remote CANopen node over a socketcan
// interface: apply PDO configuration from a config file, watch heartbeats
// and PDOs, and issue ad-hoc SDO reads/writes.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/samsamfire/canopen-master"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetLevel(log.InfoLevel)

	interfaceName := flag.String("i", "can0", "socketcan interface, e.g. can0, vcan0")
	configPath := flag.String("c", "", "node config file path (.ini)")
	sdoGet := flag.String("sdo-get", "", "read an object, as index:subindex, e.g. 1018:4")
	sdoSet := flag.String("sdo-set", "", "write an object, as index:subindex:hexvalue")
	doSync := flag.Bool("sync", false, "send a SYNC frame and exit")
	stateGet := flag.Bool("state-get", false, "query the node's NMT state and exit")
	stateSet := flag.String("state-set", "", "request an NMT state transition: START, STOP, ENTER_PRE_OPERATIONAL, RESET, or RESET_COMMUNICATION")
	doRead := flag.Bool("read", false, "dump every object currently held in the dictionary and exit")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "canopenctl: -c <config.ini> is required")
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("canopenctl: failed to load config")
	}

	bus, err := newSocketcanBus(*interfaceName)
	if err != nil {
		log.WithError(err).Fatalf("canopenctl: failed to connect to %s", *interfaceName)
	}

	node := canopen.NewRemoteNode(cfg.nodeID)
	node.Quirks = cfg.quirks
	node.UseUnknownSizes = cfg.useUnknownSizes
	node.Log = log.StandardLogger()

	bus.Subscribe(func(frame canopen.Frame) {
		update, err := node.Process(frame)
		if err != nil {
			log.WithError(err).WithField("node_id", cfg.nodeID).Warn("canopenctl: frame processing error")
			return
		}
		switch update.Mode {
		case canopen.Heartbeat:
			state, _ := node.NodeState()
			log.WithFields(log.Fields{"node_id": cfg.nodeID, "state": state}).Info("canopenctl: heartbeat")
		case canopen.PDO, canopen.SDO:
			log.WithFields(log.Fields{"node_id": cfg.nodeID, "updated": update.Updated}).Debug("canopenctl: objects updated")
		}
	})
	bus.Connect()

	if err := applyPDOConfiguration(bus, node, cfg); err != nil {
		log.WithError(err).Fatal("canopenctl: failed to apply PDO configuration")
	}

	if *doSync {
		if err := bus.Send(canopen.Sync()); err != nil {
			log.WithError(err).Fatal("canopenctl: failed to send SYNC")
		}
		return
	}

	if *stateGet {
		if err := bus.Send(node.QueryState()); err != nil {
			log.WithError(err).Fatal("canopenctl: failed to send NMT node-guard request")
		}
		time.Sleep(200 * time.Millisecond)
		state, ok := node.NodeState()
		if !ok {
			log.Fatal("canopenctl: no heartbeat observed yet")
		}
		fmt.Printf("state = %s\n", state)
		return
	}

	if *stateSet != "" {
		transition, err := parseStateTransition(*stateSet)
		if err != nil {
			log.WithError(err).Fatal("canopenctl: -state-set")
		}
		if err := bus.Send(node.QueryStateTransition(transition)); err != nil {
			log.WithError(err).Fatal("canopenctl: failed to send NMT module-control command")
		}
		return
	}

	if *doRead {
		for _, id := range node.Dictionary.Entries() {
			data, err := node.Dictionary.Get(id.Index, id.SubIndex)
			if err != nil {
				continue
			}
			fmt.Printf("%04x:%02x = % x\n", id.Index, id.SubIndex, data)
		}
		return
	}

	if *sdoGet != "" {
		objectID, subID, err := parseObjectRef(*sdoGet)
		if err != nil {
			log.WithError(err).Fatal("canopenctl: -sdo-get")
		}
		if err := bus.Send(node.Upload(objectID, subID)); err != nil {
			log.WithError(err).Fatal("canopenctl: failed to send SDO upload request")
		}
		time.Sleep(200 * time.Millisecond)
		data, err := node.Dictionary.Get(objectID, subID)
		if err != nil {
			log.WithError(err).Fatal("canopenctl: SDO upload did not complete")
		}
		fmt.Printf("%04x:%02x = % x\n", objectID, subID, data)
		return
	}

	if *sdoSet != "" {
		objectID, subID, payload, err := parseObjectWrite(*sdoSet)
		if err != nil {
			log.WithError(err).Fatal("canopenctl: -sdo-set")
		}
		frame, err := node.Download(objectID, subID, payload)
		if err != nil {
			log.WithError(err).Fatal("canopenctl: failed to build SDO download request")
		}
		if err := bus.Send(frame); err != nil {
			log.WithError(err).Fatal("canopenctl: failed to send SDO download request")
		}
		return
	}

	select {}
}

// applyPDOConfiguration sends the configuration sequence for every PDO
// named in cfg: all RPDOs first, then all TPDOs. Within each group the
// order follows map iteration, so PDO index order is not defined.
func applyPDOConfiguration(bus canopen.Bus, node *canopen.RemoteNode, cfg *config) error {
	for index, pdo := range cfg.rpdo {
		if err := node.DeclareRPDOMapping(index, pdo.mapping); err != nil {
			return err
		}
		frames, err := node.ConfigurePDO(false, index, pdo.params, pdo.mapping)
		if err != nil {
			return err
		}
		if err := sendAll(bus, frames); err != nil {
			return err
		}
	}
	for index, pdo := range cfg.tpdo {
		if err := node.DeclareTPDOMapping(index, pdo.mapping); err != nil {
			return err
		}
		frames, err := node.ConfigurePDO(true, index, pdo.params, pdo.mapping)
		if err != nil {
			return err
		}
		if err := sendAll(bus, frames); err != nil {
			return err
		}
	}
	return nil
}

func sendAll(bus canopen.Bus, frames []canopen.Frame) error {
	for _, frame := range frames {
		if err := bus.Send(frame); err != nil {
			return err
		}
	}
	return nil
}
