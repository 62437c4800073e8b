/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
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
 */

// Package config loads the configuration of the quiz service from an
// optional YAML file and the environment. Environment variables win over the
// file, which wins over the defaults.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/tochemey/quizakt/internal/errorschain"
	"github.com/tochemey/quizakt/log"
	"github.com/tochemey/quizakt/store/postgres"
	"github.com/tochemey/quizakt/store/redis"
)

// Store backends
const (
	MemoryBackend   = "memory"
	BoltBackend     = "bolt"
	PostgresBackend = "postgres"
	RedisBackend    = "redis"
)

var systemNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-_.]*$`)

// Config is the configuration of the quiz service
type Config struct {
	System   System   `yaml:"system" env-prefix:"QUIZAKT_SYSTEM_"`
	Log      Log      `yaml:"log" env-prefix:"QUIZAKT_LOG_"`
	Store    Store    `yaml:"store" env-prefix:"QUIZAKT_STORE_"`
	Remoting Remoting `yaml:"remoting" env-prefix:"QUIZAKT_REMOTING_"`
	Actors   Actors   `yaml:"actors" env-prefix:"QUIZAKT_ACTORS_"`
}

// System identifies the actor system of the service
type System struct {
	Name            string        `yaml:"name" env:"NAME" env-default:"quizakt"`
	Host            string        `yaml:"host" env:"HOST" env-default:"127.0.0.1"`
	Port            int           `yaml:"port" env:"PORT" env-default:"7777"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Log configures the logger
type Log struct {
	Level string `yaml:"level" env:"LEVEL" env-default:"info"`
}

// Store selects and configures the persistent store
type Store struct {
	Backend  string          `yaml:"backend" env:"BACKEND" env-default:"memory"`
	Retries  int             `yaml:"retries" env:"RETRIES" env-default:"3"`
	Bolt     Bolt            `yaml:"bolt" env-prefix:"BOLT_"`
	Postgres postgres.Config `yaml:"postgres" env-prefix:"POSTGRES_"`
	Redis    redis.Config    `yaml:"redis" env-prefix:"REDIS_"`
}

// Bolt configures the embedded store
type Bolt struct {
	Path string `yaml:"path" env:"PATH" env-default:"quizakt.db"`
}

// Remoting configures the NATS transport to the client systems. Remoting is
// disabled when the URL is empty.
type Remoting struct {
	URL         string        `yaml:"url" env:"URL"`
	Compression bool          `yaml:"compression" env:"COMPRESSION" env-default:"false"`
	TellTimeout time.Duration `yaml:"tell_timeout" env:"TELL_TIMEOUT" env-default:"2s"`
}

// Actors tunes the domain actors
type Actors struct {
	CacheIdle    time.Duration `yaml:"cache_idle" env:"CACHE_IDLE" env-default:"2h"`
	ReapInterval time.Duration `yaml:"reap_interval" env:"REAP_INTERVAL" env-default:"1m"`
	AskTimeout   time.Duration `yaml:"ask_timeout" env:"ASK_TIMEOUT" env-default:"5s"`
}

// Load reads the configuration. path may be empty, in which case only the
// environment and the defaults are used.
func Load(path string) (*Config, error) {
	config := new(Config)
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("config: read environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	chain := errorschain.New(errorschain.ReturnAll()).
		AddAssertion(systemNamePattern.MatchString(c.System.Name), fmt.Sprintf("system name %q is invalid", c.System.Name)).
		AddAssertion(c.System.Host != "", "system host is required").
		AddAssertion(c.System.Port > 0 && c.System.Port < 65536, fmt.Sprintf("system port %d is out of range", c.System.Port)).
		AddAssertion(log.ParseLevel(c.Log.Level) != log.InvalidLevel, fmt.Sprintf("log level %q is unknown", c.Log.Level)).
		AddAssertion(c.Store.Retries >= 0, "store retries cannot be negative").
		AddAssertion(c.Actors.CacheIdle > 0, "cache idle threshold must be positive").
		AddAssertion(c.Actors.ReapInterval > 0, "reap interval must be positive").
		AddAssertion(c.Actors.AskTimeout > 0, "ask timeout must be positive")

	switch c.Store.Backend {
	case MemoryBackend:
	case BoltBackend:
		chain.AddAssertion(c.Store.Bolt.Path != "", "bolt path is required")
	case PostgresBackend:
		chain.AddAssertion(c.Store.Postgres.DSN != "", "postgres dsn is required")
	case RedisBackend:
		chain.AddAssertion(c.Store.Redis.Addr != "", "redis address is required")
	default:
		chain.AddError(fmt.Errorf("store backend %q is unknown", c.Store.Backend))
	}

	if err := chain.Error(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LogLevel returns the parsed log level
func (c *Config) LogLevel() log.Level {
	return log.ParseLevel(c.Log.Level)
}
