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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_defaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func Test_configValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "keepalive zero", mutate: func(c *Config) { c.KeepAliveSeconds = 0 }, wantErr: true},
		{name: "keepalive too big", mutate: func(c *Config) { c.KeepAliveSeconds = 256 }, wantErr: true},
		{name: "deadtimer below twice keepalive", mutate: func(c *Config) { c.DeadTimerSeconds = 40 }, wantErr: true},
		{name: "deadtimer disabled", mutate: func(c *Config) { c.DeadTimerSeconds = 0 }},
		{name: "request time zero", mutate: func(c *Config) { c.RequestTimeSeconds = 0 }, wantErr: true},
		{name: "unknown requests zero", mutate: func(c *Config) { c.MaxUnknownRequests = 0 }, wantErr: true},
		{name: "unknown messages zero", mutate: func(c *Config) { c.MaxUnknownMessages = 0 }, wantErr: true},
		{name: "dead timer multiple too low", mutate: func(c *Config) { c.MinDeadTimerMultiple = 1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func Test_readConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcepc.yaml")
	content := `
keep_alive_seconds: 10
dead_timer_seconds: 40
request_time_seconds: 5
monitoring_port: 8888
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.KeepAliveSeconds)
	assert.Equal(t, 40, cfg.DeadTimerSeconds)
	assert.Equal(t, 5, cfg.RequestTimeSeconds)
	assert.Equal(t, 8888, cfg.MonitoringPort)
	// unset keys keep their defaults
	assert.Equal(t, DefaultMaxUnknownMessages, cfg.MaxUnknownMessages)
}

func Test_readConfigRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcepc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keep_alive_seconds: 0\n"), 0644))
	_, err := ReadConfig(path)
	require.Error(t, err)

	_, err = ReadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
