package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Serial line defaults for Cisco console ports.
const (
	DefaultBaudRate    = 9600
	DefaultReadTimeout = time.Second
)

// SerialOpener opens a local serial device (a USB console cable or a
// built-in COM port) at 8N1.
type SerialOpener struct {
	Device      string
	BaudRate    int           // default 9600
	ReadTimeout time.Duration // default 1s
}

// Open claims the serial device and discards anything left in its
// input buffer from before the run.
func (o *SerialOpener) Open(_ context.Context) (Link, error) {
	mode := &serial.Mode{
		BaudRate: o.baudRate(),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(o.Device, mode)
	if err != nil {
		return nil, describeSerialError(err)
	}
	if err := port.SetReadTimeout(o.readTimeout()); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("reset input buffer: %w", err)
	}
	return port, nil
}

func (o *SerialOpener) String() string { return "serial:" + o.Device }

func (o *SerialOpener) baudRate() int {
	if o.BaudRate > 0 {
		return o.BaudRate
	}
	return DefaultBaudRate
}

func (o *SerialOpener) readTimeout() time.Duration {
	if o.ReadTimeout > 0 {
		return o.ReadTimeout
	}
	return DefaultReadTimeout
}

// ListPorts returns the serial devices present on this machine.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("listing serial ports: %w", err)
	}
	return ports, nil
}

// describeSerialError adds operator guidance to the common failures.
func describeSerialError(err error) error {
	var pe *serial.PortError
	if !errors.As(err, &pe) {
		return err
	}
	switch pe.Code() {
	case serial.PortBusy:
		return fmt.Errorf("%w (console connection is busy; unplug and re-plug the cable)", err)
	case serial.PortNotFound:
		return fmt.Errorf("%w (check the device name with --list-ports)", err)
	case serial.PermissionDenied:
		return fmt.Errorf("%w (add your user to the dialout group or run with sufficient privileges)", err)
	default:
		return err
	}
}
