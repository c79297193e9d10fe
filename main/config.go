package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TransportType selects where receiver bytes come from.
type TransportType string

const (
	TransportSerial TransportType = "serial"
	TransportTCP    TransportType = "tcp"
	TransportUDP    TransportType = "udp"
	TransportReplay TransportType = "replay"
)

const (
	defaultConfigLocation = "/etc/linkdecoder.yaml"
	defaultSerialDevice   = "/dev/ttyACM0"
	defaultSerialBaud     = 115200
	defaultLogDir         = "/var/log/linkdecoder"
	defaultNATSSubject    = "linkdecoder"
	standardAltimeterInHg = 29.92
	minAltimeterInHg      = 26.0
	maxAltimeterInHg      = 32.0
)

type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type TCPConfig struct {
	Address string `yaml:"address"`
}

type UDPConfig struct {
	Listen string `yaml:"listen"`
}

type ReplayConfig struct {
	File     string   `yaml:"file"`
	Speed    float64  `yaml:"speed"`
	Skip     int64    `yaml:"skip_minutes,omitempty"`
	Contexts []string `yaml:"contexts,omitempty"`
}

type LogConfig struct {
	Dir   string `yaml:"dir"`
	Debug bool   `yaml:"debug"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

type UIConfig struct {
	Listen string `yaml:"listen"`
}

type DatalogConfig struct {
	File string `yaml:"file"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Config is the daemon configuration. Defaults are applied first, then the
// YAML file, then command line flags.
type Config struct {
	Transport      TransportType `yaml:"transport"`
	Serial         SerialConfig  `yaml:"serial"`
	TCP            TCPConfig     `yaml:"tcp"`
	UDP            UDPConfig     `yaml:"udp"`
	Replay         ReplayConfig  `yaml:"replay"`
	AltimeterInHg  float64       `yaml:"altimeter_inhg"`
	Log            LogConfig     `yaml:"log"`
	Metrics        MetricsConfig `yaml:"metrics"`
	UI             UIConfig      `yaml:"ui"`
	Datalog        DatalogConfig `yaml:"datalog"`
	NATS           NATSConfig    `yaml:"nats"`
	KnownLocations []string      `yaml:"known_locations"`
}

func DefaultConfig() Config {
	return Config{
		Transport:     TransportSerial,
		Serial:        SerialConfig{Device: defaultSerialDevice, Baud: defaultSerialBaud},
		Replay:        ReplayConfig{Speed: 1},
		AltimeterInHg: standardAltimeterInHg,
		Log:           LogConfig{Dir: defaultLogDir},
		NATS:          NATSConfig{Subject: defaultNATSSubject},
	}
}

// LoadConfig reads filename over the defaults and validates the result.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportSerial:
		if c.Serial.Device == "" {
			return fmt.Errorf("serial transport requires serial.device")
		}
		if c.Serial.Baud <= 0 {
			return fmt.Errorf("invalid serial.baud %d", c.Serial.Baud)
		}
	case TransportTCP:
		if c.TCP.Address == "" {
			return fmt.Errorf("tcp transport requires tcp.address")
		}
	case TransportUDP:
		if c.UDP.Listen == "" {
			return fmt.Errorf("udp transport requires udp.listen")
		}
	case TransportReplay:
		if c.Replay.File == "" {
			return fmt.Errorf("replay transport requires replay.file")
		}
		if c.Replay.Speed <= 0 {
			return fmt.Errorf("invalid replay.speed %g", c.Replay.Speed)
		}
	default:
		return fmt.Errorf("invalid transport %q (must be serial, tcp, udp or replay)", c.Transport)
	}

	if c.AltimeterInHg < minAltimeterInHg || c.AltimeterInHg > maxAltimeterInHg {
		return fmt.Errorf("altimeter_inhg %.2f outside %.0f-%.0f", c.AltimeterInHg, minAltimeterInHg, maxAltimeterInHg)
	}

	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return fmt.Errorf("nats.url requires nats.subject")
	}

	for i, loc := range c.KnownLocations {
		if len(loc) != 4 {
			return fmt.Errorf("known_locations[%d]: %q is not a 4 character identifier", i, loc)
		}
		c.KnownLocations[i] = strings.ToUpper(loc)
	}
	return nil
}

// locationValidator returns the hook that keeps the leading K of FIS-B text
// locations listed in known_locations.
func (c *Config) locationValidator() func(string) bool {
	if len(c.KnownLocations) == 0 {
		return nil
	}
	known := make(map[string]bool, len(c.KnownLocations))
	for _, loc := range c.KnownLocations {
		known[loc] = true
	}
	return func(loc string) bool {
		return known[loc]
	}
}
