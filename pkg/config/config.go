package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type CameraConfig struct {
	ID        string `mapstructure:"id"`
	URL       string `mapstructure:"url"`
	Transport string `mapstructure:"transport"` // "v4l2" or "rtsp"
}

type AMQPConfig struct {
	AmqpURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
}

// PublishConfig holds the startup values for the mutable publish settings.
// They can be changed at runtime through the control API.
type PublishConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Width   int    `mapstructure:"width"`
	Height  int    `mapstructure:"height"`
	Type    string `mapstructure:"type"` // "color" or "grayscale"
}

type PipelineConfig struct {
	MaxWorkers         int `mapstructure:"max_workers"`
	BufferSize         int `mapstructure:"buffer_size"`
	CircuitMaxFailures int `mapstructure:"circuit_max_failures"`
	CircuitResetSec    int `mapstructure:"circuit_reset_seconds"`
}

type RedisConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Address    string `mapstructure:"address"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	Prefix     string `mapstructure:"prefix"`
}

type RegistrationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIURL  string `mapstructure:"api_url"`
}

type ControlConfig struct {
	Address string `mapstructure:"address"`
}

type MemoryConfig struct {
	MaxMemoryMB uint64 `mapstructure:"max_memory_mb"`
}

type Config struct {
	TargetFPS    float64            `mapstructure:"target_fps"`
	Protocol     string             `mapstructure:"protocol"` // "amqp" or "mqtt"
	Camera       CameraConfig       `mapstructure:"camera"`
	AMQP         AMQPConfig         `mapstructure:"amqp"`
	MQTT         MQTTConfig         `mapstructure:"mqtt"`
	Publish      PublishConfig      `mapstructure:"publish"`
	Pipeline     PipelineConfig     `mapstructure:"pipeline"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Registration RegistrationConfig `mapstructure:"registration"`
	Control      ControlConfig      `mapstructure:"control"`
	Memory       MemoryConfig       `mapstructure:"memory"`
}

// GetFrameInterval converts TargetFPS into the ticker interval for the
// capture loop. Falls back to 1 FPS, the sci cam is a stills camera and is
// never driven at video rates.
func (c *Config) GetFrameInterval() time.Duration {
	if c.TargetFPS <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / c.TargetFPS)
}

// Validate rejects configurations the publisher could never start with.
func (c *Config) Validate() error {
	if c.Protocol != "amqp" && c.Protocol != "mqtt" {
		return fmt.Errorf("invalid protocol %q: must be amqp or mqtt", c.Protocol)
	}
	if c.Publish.Width <= 0 || c.Publish.Height <= 0 {
		return fmt.Errorf("invalid publish size %dx%d", c.Publish.Width, c.Publish.Height)
	}
	if c.Publish.Type != "color" && c.Publish.Type != "grayscale" {
		return fmt.Errorf("invalid publish type %q: must be color or grayscale", c.Publish.Type)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)

	viper.SetDefault("target_fps", 1.0)
	viper.SetDefault("protocol", "amqp")
	viper.SetDefault("publish.enabled", true)
	viper.SetDefault("publish.width", 640)
	viper.SetDefault("publish.height", 480)
	viper.SetDefault("publish.type", "color")
	viper.SetDefault("pipeline.max_workers", 2)
	viper.SetDefault("pipeline.buffer_size", 8)
	viper.SetDefault("pipeline.circuit_max_failures", 5)
	viper.SetDefault("pipeline.circuit_reset_seconds", 30)
	viper.SetDefault("control.address", ":8942")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
