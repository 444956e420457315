package mqtt

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/denisbrodbeck/machineid"
)

const clientIDApp = "serterm"

// DefaultClientID derives a client id stable on this machine.
// It falls back to a random id if the machine id is unavailable.
func DefaultClientID() string {
	id, err := machineid.ProtectedID(clientIDApp)
	if err != nil || len(id) < 12 {
		return fmt.Sprintf("%s-%v-%v", clientIDApp, time.Now().Unix(), rand.Intn(1000000))
	}
	return clientIDApp + "-" + id[:12]
}
