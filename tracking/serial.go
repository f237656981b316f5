package tracking

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"go.bug.st/serial.v1"
)

// DefaultBaudRate is used when Serial.BaudRate is unset.
const DefaultBaudRate = 115200

// Serial is a device bridged over a serial port: a companion board forwards
// the sensor frames as JSON lines.
type Serial struct {
	Port     string
	BaudRate int
}

// Connect opens the port.
func (s *Serial) Connect() (Connection, error) {
	baud := s.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(s.Port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("open serial port "+s.Port, "Cannot open serial port "+s.Port))
	}
	return NewStream(port), nil
}
