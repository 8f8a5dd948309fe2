/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the environment-variable prefix: ASYNCRPC_SCHEDULER_WORKERS
// overrides scheduler.workers, and so on.
const EnvPrefix = "ASYNCRPC"

// Config is the full runtime configuration.
type Config struct {
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Session   SessionConfig   `mapstructure:"session" validate:"required"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Pool      PoolConfig      `mapstructure:"pool"`
	Log       LogConfig       `mapstructure:"log"`
}

// SchedulerConfig sizes the reactor's worker pool.
type SchedulerConfig struct {
	Workers int `mapstructure:"workers" validate:"min=1,max=256"`
}

// SessionConfig tunes the per-connection heartbeat and call deadline.
type SessionConfig struct {
	// HeartbeatInterval is the client-side emit cadence that
	// HeartbeatTimeout is validated against. No component reads it to
	// configure a client.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" validate:"min=1s"`
	// HeartbeatTimeout is the server-side silence deadline; it must
	// exceed the emit interval or healthy peers get cut.
	HeartbeatTimeout time.Duration `mapstructure:"heartbeat_timeout" validate:"min=1s,gtfield=HeartbeatInterval"`
	CallTimeout      time.Duration `mapstructure:"call_timeout" validate:"min=1ms"`
	// ConnectTimeout bounds connection establishment, process-wide
	// (the hook layer keeps one connect timeout for the whole process,
	// unlike the per-descriptor send/receive timeouts). Zero, the
	// protocol default, means unbounded.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"min=0"`
	// SendTimeout bounds socket writes per established connection.
	// Zero means unbounded.
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"min=0"`
}

// RegistryConfig locates the registry and tunes its sweeper.
type RegistryConfig struct {
	Address       string        `mapstructure:"address" validate:"omitempty,hostname_port"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"min=1s"`
}

// PoolConfig tunes the consumer-side connection pool.
type PoolConfig struct {
	Strategy string `mapstructure:"strategy" validate:"oneof=random round_robin hash_local"`
	MaxDials int    `mapstructure:"max_dials" validate:"min=1,max=64"`
}

// LogConfig selects the log level and sinks.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=trace debug info warning error fatal panic"`
	File  string `mapstructure:"file"`
	Color bool   `mapstructure:"color"`
}

// Default returns the configuration used when no file or environment
// override is present. The heartbeat numbers are the protocol defaults:
// 30s emit, 40s silence deadline.
func Default() Config {
	return Config{
		Scheduler: SchedulerConfig{Workers: 4},
		Session: SessionConfig{
			HeartbeatInterval: 30 * time.Second,
			HeartbeatTimeout:  40 * time.Second,
			CallTimeout:       10 * time.Second,
			ConnectTimeout:    0,
			SendTimeout:       0,
		},
		Registry: RegistryConfig{SweepInterval: 5 * time.Second},
		Pool:     PoolConfig{Strategy: "random", MaxDials: 4},
		Log:      LogConfig{Level: "info", Color: true},
	}
}

func bindDefaults(v *viper.Viper, c Config) {
	v.SetDefault("scheduler.workers", c.Scheduler.Workers)
	v.SetDefault("session.heartbeat_interval", c.Session.HeartbeatInterval)
	v.SetDefault("session.heartbeat_timeout", c.Session.HeartbeatTimeout)
	v.SetDefault("session.call_timeout", c.Session.CallTimeout)
	v.SetDefault("session.connect_timeout", c.Session.ConnectTimeout)
	v.SetDefault("session.send_timeout", c.Session.SendTimeout)
	v.SetDefault("registry.address", c.Registry.Address)
	v.SetDefault("registry.sweep_interval", c.Registry.SweepInterval)
	v.SetDefault("pool.strategy", c.Pool.Strategy)
	v.SetDefault("pool.max_dials", c.Pool.MaxDials)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.file", c.Log.File)
	v.SetDefault("log.color", c.Log.Color)
}

// Load reads path (any format viper understands; empty means defaults
// and environment only), layers ASYNCRPC_* environment variables on
// top, and validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	bindDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the struct tags on c.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
