package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jacobsa/go-serial/serial"
)

// SerialSource reads NMEA sentences from a GPS receiver on a serial port.
type SerialSource struct {
	options serial.OpenOptions
	logger  *slog.Logger

	port io.ReadWriteCloser
	src  *NMEASource
}

// NewSerialSource creates a source for the given port at the given baud
// rate, e.g. NewSerialSource("/dev/ttyUSB0", 9600, logger).
func NewSerialSource(portName string, baudRate uint, logger *slog.Logger) *SerialSource {
	return &SerialSource{
		options: serial.OpenOptions{
			PortName:        portName,
			BaudRate:        baudRate,
			DataBits:        8,
			StopBits:        1,
			MinimumReadSize: 1,
			ParityMode:      serial.PARITY_NONE,
		},
		logger: logger,
	}
}

// Samples opens the port and streams samples from it. The port stays open
// until Close is called.
func (s *SerialSource) Samples(ctx context.Context) (<-chan Sample, error) {
	port, err := serial.Open(s.options)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", s.options.PortName, err)
	}
	s.port = port
	s.src = NewNMEASource(port, WithLogger(s.logger))

	s.logger.Info("serial port opened",
		slog.String("port", s.options.PortName),
		slog.Uint64("baud", uint64(s.options.BaudRate)))

	return s.src.Samples(ctx)
}

// Err reports the error that terminated the sentence stream, if any.
func (s *SerialSource) Err() error {
	if s.src == nil {
		return nil
	}
	return s.src.Err()
}

// Close releases the serial port, which also unblocks the scanner.
func (s *SerialSource) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
