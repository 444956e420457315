// Package env provides the configuration shared by the commands.
package env

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robotalks/serterm/pkg/device"
	"github.com/robotalks/serterm/pkg/framing"
	"github.com/robotalks/serterm/pkg/term"
)

// Config provides common options to open a device session.
type Config struct {
	Device       device.Config
	PollInterval time.Duration
	Framing      string
	Invalid      string
	HistoryFile  string

	// MQTTURL enables the MQTT bridge when not empty.
	// e.g. mqtt://host:port/topic-prefix
	MQTTURL string
	// ListenAddr enables the WebSocket bridge when not empty.
	ListenAddr string
}

// Environment variables overriding defaults.
const (
	EnvDevice  = "SERTERM_DEVICE"
	EnvBaud    = "SERTERM_BAUD"
	EnvFraming = "SERTERM_FRAMING"
	EnvMQTTURL = "SERTERM_MQTT_URL"
	EnvListen  = "SERTERM_LISTEN"
)

var defaultConfig = Config{
	Device:       device.DefaultConfig(),
	PollInterval: term.DefaultPollInterval,
	Framing:      "delimiter",
	Invalid:      framing.InvalidReport.String(),
}

func init() {
	applyEnv(&defaultConfig, os.Getenv)
}

func applyEnv(conf *Config, getenv func(string) string) {
	if val := getenv(EnvDevice); val != "" {
		conf.Device.Path = val
	}
	if val := getenv(EnvBaud); val != "" {
		if baud, err := strconv.Atoi(val); err == nil && baud > 0 {
			conf.Device.Baud = baud
		}
	}
	if val := getenv(EnvFraming); val != "" {
		conf.Framing = val
	}
	if val := getenv(EnvMQTTURL); val != "" {
		conf.MQTTURL = val
	}
	if val := getenv(EnvListen); val != "" {
		conf.ListenAddr = val
	}
}

// SetupFlags sets up command line flags for the device and framing.
func SetupFlags() {
	setupFlags(flag.CommandLine, &defaultConfig)
}

// SetupBridgeFlags sets up command line flags for the bridges.
func SetupBridgeFlags() {
	setupBridgeFlags(flag.CommandLine, &defaultConfig)
}

func setupFlags(fs *flag.FlagSet, conf *Config) {
	fs.StringVar(&conf.Device.Path, "device", conf.Device.Path, "Serial device to open.")
	fs.IntVar(&conf.Device.Baud, "baud", conf.Device.Baud, "Baud rate.")
	fs.DurationVar(&conf.Device.ReadTimeout, "read-timeout", conf.Device.ReadTimeout, "Timeout of a single read.")
	fs.DurationVar(&conf.PollInterval, "poll", conf.PollInterval, "Poll interval when no data is available, 0 uses blocking reads.")
	fs.StringVar(&conf.Framing, "framing", conf.Framing, "Message framing: delimiter or line.")
	fs.StringVar(&conf.Invalid, "invalid", conf.Invalid, "Non-decodable messages: report or discard.")
	fs.StringVar(&conf.HistoryFile, "history", conf.HistoryFile, "Command history file.")
}

func setupBridgeFlags(fs *flag.FlagSet, conf *Config) {
	fs.StringVar(&conf.MQTTURL, "mqtt", conf.MQTTURL, "MQTT broker URL to bridge messages, e.g. mqtt://localhost:1883/serterm/")
	fs.StringVar(&conf.ListenAddr, "listen", conf.ListenAddr, "Address to serve the WebSocket bridge, e.g. :8080")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewFraming creates the configured Framing.
func (c *Config) NewFraming() (framing.Framing, error) {
	return framing.ByName(c.Framing)
}

// InvalidPolicy parses the configured InvalidPolicy.
func (c *Config) InvalidPolicy() (framing.InvalidPolicy, error) {
	return framing.ParseInvalidPolicy(c.Invalid)
}

// Open opens the configured device.
func (c *Config) Open() (*device.Port, error) {
	return device.Open(c.Device)
}

// NewSession opens the device and creates a Session on it.
func (c *Config) NewSession(lines term.LineSource, out io.Writer) (*term.Session, error) {
	f, err := c.NewFraming()
	if err != nil {
		return nil, err
	}
	invalid, err := c.InvalidPolicy()
	if err != nil {
		return nil, err
	}
	port, err := c.Open()
	if err != nil {
		return nil, err
	}
	s := term.NewSession(port, f, lines, out)
	s.Reader.Invalid = invalid
	s.Reader.PollInterval = c.PollInterval
	return s, nil
}

// MustNewSession creates a Session and fails on error.
func (c *Config) MustNewSession(lines term.LineSource, out io.Writer) *term.Session {
	s, err := c.NewSession(lines, out)
	if err != nil {
		log.Fatalln(err)
	}
	return s
}

// Describe returns a one-line summary for the operator.
func (c *Config) Describe() string {
	return fmt.Sprintf("%s @ %d (%s framing)", c.Device.Path, c.Device.Baud, c.Framing)
}
