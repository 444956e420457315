package sh

import "github.com/robotalks/serterm/pkg/device"

var listPorts = device.ListPorts
