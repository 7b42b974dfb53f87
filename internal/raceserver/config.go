package raceserver

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"justapengu.in/ghostrace/internal/race"
)

type Config struct {
	Server ServerConfig    `json:"server" yaml:"server"`
	Track  TrackConfig     `json:"track" yaml:"track"`
	Race   race.RaceConfig `json:"race" yaml:"race"`
}

type ServerConfig struct {
	HTTPPort uint16 `json:"http_port" yaml:"http_port"`

	// TickRate is the number of simulation ticks per second.
	TickRate int `json:"tick_rate" yaml:"tick_rate"`
	// IdleSleepTime (ms) is used in place of the tick rate when no race is running and nobody is watching.
	IdleSleepTime int `json:"idle_sleep_time" yaml:"idle_sleep_time"`
	// StreamInterval is the number of ticks between snapshots sent to websocket clients.
	StreamInterval int `json:"stream_interval" yaml:"stream_interval"`
	// CarUpdateInterval (ms) is how often listeners receive car updates. Zero disables them.
	CarUpdateInterval int `json:"car_update_interval" yaml:"car_update_interval"`

	UDPPluginAddress   string `json:"udp_plugin_address" yaml:"udp_plugin_address"`
	UDPPluginLocalPort int    `json:"udp_plugin_local_port" yaml:"udp_plugin_local_port"`

	StorePath     string `json:"store_path" yaml:"store_path"`
	GhostPathFile string `json:"ghost_path_file" yaml:"ghost_path_file"`
	TiltDevice    string `json:"tilt_device" yaml:"tilt_device"`

	LogLevel string `json:"log_level" yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:       8772,
			TickRate:       60,
			IdleSleepTime:  100,
			StreamInterval: 2,
			StorePath:      "ghostrace.db",
			GhostPathFile:  "ghost_path.json",
			LogLevel:       "info",
		},
		Track: DefaultTrackConfig(),
		Race:  race.DefaultRaceConfig(),
	}
}

// ReadConfig reads a yaml config file. Anything the file leaves out keeps its default.
func ReadConfig(filename string) (*Config, error) {
	data, err := ioutil.ReadFile(filename)

	if err != nil {
		return nil, errors.Wrapf(err, "raceserver: could not read config file %s", filename)
	}

	config := DefaultConfig()

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "raceserver: could not parse config file %s", filename)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.Server.TickRate < 1 {
		return errors.New("raceserver: tick_rate must be at least 1")
	}

	if c.Server.StreamInterval < 0 || c.Server.CarUpdateInterval < 0 {
		return errors.New("raceserver: intervals must not be negative")
	}

	if len(c.Track.Track) == 0 && len(c.Track.Triangles) == 0 {
		return errors.New("raceserver: track has no geometry")
	}

	return errors.Wrap(c.Race.Validate(), "raceserver: invalid race config")
}
