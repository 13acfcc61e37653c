package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the server. Every field has a
// sensible default, so a config file is optional.
type Config struct {
	Server ServerConfig `yaml:"server"`
	World  WorldConfig  `yaml:"world"`
	Game   GameConfig   `yaml:"game"`
}

type ServerConfig struct {
	TCPPort     int    `yaml:"tcp_port"`
	WSPort      int    `yaml:"ws_port"`
	APIPort     int    `yaml:"api_port"`
	DatabaseURL string `yaml:"database_url"`
}

type WorldConfig struct {
	Path   string `yaml:"path"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Levels int    `yaml:"levels"`
	Seed   int64  `yaml:"seed"`
}

type GameConfig struct {
	Creative  bool `yaml:"creative"`
	GameSpeed int  `yaml:"game_speed"`
}

// GetTCPPort returns the game port with priority: config, env, default.
func (s *ServerConfig) GetTCPPort() int {
	return portWithEnvFallback(s.TCPPort, "BURROW_TCP_PORT", 4225)
}

// GetWSPort returns the WebSocket port with priority: config, env, default.
func (s *ServerConfig) GetWSPort() int {
	return portWithEnvFallback(s.WSPort, "BURROW_WS_PORT", 4226)
}

// GetAPIPort returns the admin API port with priority: config, env, default.
func (s *ServerConfig) GetAPIPort() int {
	return portWithEnvFallback(s.APIPort, "BURROW_API_PORT", 4227)
}

func portWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}
	return defaultPort
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			DatabaseURL: "file://world",
		},
		World: WorldConfig{
			Path:   "world",
			Width:  128,
			Height: 128,
			Levels: 3,
		},
		Game: GameConfig{
			GameSpeed: 1,
		},
	}
}

// Load reads a YAML configuration file. If path is empty it falls back
// to the BURROW_CONFIG environment variable, and if that is unset the
// defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("BURROW_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	return cfg, nil
}
