package main

import (
	"time"

	"github.com/brutella/can"
	"github.com/samsamfire/canopen-master"
)

// socketcanBus is a thin adapter from github.com/brutella/can's socketcan
// binding to this engine's canopen.Bus interface. The engine never parses
// or builds socketcan frames itself; this is the one place that crosses
// into real CAN I/O.
type socketcanBus struct {
	bus     *can.Bus
	handler func(canopen.Frame)
}

// Handle implements brutella/can's Handler interface, receiving every
// frame published on the bus.
func (b *socketcanBus) Handle(f can.Frame) {
	if b.handler == nil {
		return
	}
	b.handler(canopen.Frame{
		ID:   f.ID,
		DLC:  f.Length,
		Data: f.Data,
		Time: canopen.NewTimestamp(time.Now().UnixNano()),
	})
}

func newSocketcanBus(interfaceName string) (*socketcanBus, error) {
	bus, err := can.NewBusForInterfaceWithName(interfaceName)
	if err != nil {
		return nil, err
	}
	return &socketcanBus{bus: bus}, nil
}

func (b *socketcanBus) Connect() {
	go b.bus.ConnectAndPublish()
}

// Send implements canopen.Bus.
func (b *socketcanBus) Send(frame canopen.Frame) error {
	return b.bus.Publish(can.Frame{
		ID:     frame.ID,
		Length: frame.DLC,
		Data:   frame.Data,
	})
}

// Subscribe implements canopen.Bus. handler is invoked with the receive
// timestamp taken at dispatch time, since brutella/can does not surface one
// from the driver itself.
func (b *socketcanBus) Subscribe(handler func(canopen.Frame)) {
	b.handler = handler
	b.bus.Subscribe(b)
}
