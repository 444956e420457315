package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	conf := DefaultConfig()
	require.Equal(t, "/dev/ttyACM0", conf.Path)
	require.Equal(t, 115200, conf.Baud)
	require.Equal(t, time.Second, conf.ReadTimeout)
}

func TestMillis(t *testing.T) {
	require.Equal(t, 0, millis(0))
	require.Equal(t, 1, millis(time.Microsecond))
	require.Equal(t, 1000, millis(time.Second))
	require.Equal(t, 20, millis(20*time.Millisecond))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open(Config{Path: "/dev/serterm-test-no-such-device"})
	require.Error(t, err)
}
