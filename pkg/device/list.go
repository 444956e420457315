package device

import (
	"sort"

	"github.com/albenik/go-serial/v2"
)

// ListPorts lists the serial devices present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	sort.Strings(ports)
	return ports, nil
}
