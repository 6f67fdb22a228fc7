/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package session

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// configuration defaults
const (
	DefaultKeepAliveSeconds   = 30
	DefaultDeadTimerSeconds   = 120
	DefaultRequestTimeSeconds = 30
	DefaultMaxUnknownRequests = 5
	DefaultMaxUnknownMessages = 5
)

// openKeepWaitSeconds is how long we wait for the PCE Open, RFC 5440 sec 7.2
const openKeepWaitSeconds = 60

// Config carries the session values a PCC proposes in its Open and the
// local protocol limits. The same shape holds the values learned from the
// PCE Open.
type Config struct {
	KeepAliveSeconds   int `yaml:"keep_alive_seconds"`
	DeadTimerSeconds   int `yaml:"dead_timer_seconds"`
	RequestTimeSeconds int `yaml:"request_time_seconds"`
	MaxUnknownRequests int `yaml:"max_unknown_requests"`
	MaxUnknownMessages int `yaml:"max_unknown_messages"`
	// MinDeadTimerMultiple is the acceptability floor for the remote dead
	// timer relative to its keepalive; RFC 5440 recommends 4, 2 is the
	// lowest we accept
	MinDeadTimerMultiple int `yaml:"min_dead_timer_multiple"`
	// RequireStatefulPCE rejects PCEs whose Open lacks the
	// STATEFUL-PCE-CAPABILITY TLV
	RequireStatefulPCE bool `yaml:"require_stateful_pce"`
	// ConnectTimeout bounds the TCP connect to the PCE
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// MonitoringPort serves the JSON counters when non-zero
	MonitoringPort int `yaml:"monitoring_port"`
}

// DefaultConfig returns a config with the RFC-recommended session values
func DefaultConfig() *Config {
	return &Config{
		KeepAliveSeconds:     DefaultKeepAliveSeconds,
		DeadTimerSeconds:     DefaultDeadTimerSeconds,
		RequestTimeSeconds:   DefaultRequestTimeSeconds,
		MaxUnknownRequests:   DefaultMaxUnknownRequests,
		MaxUnknownMessages:   DefaultMaxUnknownMessages,
		MinDeadTimerMultiple: 2,
	}
}

// Validate Config is sane
func (c *Config) Validate() error {
	if c.KeepAliveSeconds < 1 || c.KeepAliveSeconds > 255 {
		return fmt.Errorf("keep_alive_seconds must be between 1 and 255")
	}
	if c.DeadTimerSeconds < 0 || c.DeadTimerSeconds > 255 {
		return fmt.Errorf("dead_timer_seconds must be between 0 and 255")
	}
	if c.DeadTimerSeconds != 0 && c.DeadTimerSeconds < 2*c.KeepAliveSeconds {
		return fmt.Errorf("dead_timer_seconds must be at least twice keep_alive_seconds")
	}
	if c.RequestTimeSeconds <= 0 {
		return fmt.Errorf("request_time_seconds must be positive")
	}
	if c.MaxUnknownRequests <= 0 {
		return fmt.Errorf("max_unknown_requests must be positive")
	}
	if c.MaxUnknownMessages <= 0 {
		return fmt.Errorf("max_unknown_messages must be positive")
	}
	if c.MinDeadTimerMultiple < 2 {
		return fmt.Errorf("min_dead_timer_multiple must be at least 2")
	}
	return nil
}

// ReadConfig loads Config from a yaml file
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(cData, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
