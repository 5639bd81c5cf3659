// Copyright 2026 The Corvid Authors
// This file is part of Corvid.
//
// Corvid is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Corvid is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Corvid. If not, see <http://www.gnu.org/licenses/>.

// Package engine ties the key/value backend (internal/kv), the
// transaction facade (internal/txn), the catalog (internal/catalog) and
// the background workers (internal/tasks) into one Datastore, the
// boundary a wire transport or admin CLI would sit in front of. Grounded
// on the Options-struct-plus-With...-functional-options idiom from
// other_examples/fcd3c4c7_aalhour-rockyardkv__options.go.go: a decodable
// Config for file/env-sourced settings, and functional Options layered on
// top for programmatic construction.
package engine

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Backend names which internal/kv adapter Open selects.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendBolt   Backend = "bolt"
)

// Config is the file/env-sourced half of a Datastore's settings. Zero
// values fall back to DefaultConfig's.
type Config struct {
	Backend Backend `mapstructure:"backend" yaml:"backend"`
	DataDir string  `mapstructure:"data_dir" yaml:"data_dir"`

	RecordCacheCapacity int `mapstructure:"record_cache_capacity" yaml:"record_cache_capacity"`

	HeartbeatInterval       time.Duration `mapstructure:"heartbeat_interval" yaml:"heartbeat_interval"`
	MembershipDeadline      time.Duration `mapstructure:"membership_deadline" yaml:"membership_deadline"`
	ArchiveGracePeriod      time.Duration `mapstructure:"archive_grace_period" yaml:"archive_grace_period"`
	MembershipCheckInterval time.Duration `mapstructure:"membership_check_interval" yaml:"membership_check_interval"`
	ChangeLogRetention      time.Duration `mapstructure:"change_log_retention" yaml:"change_log_retention"`
	ChangeLogCheckInterval  time.Duration `mapstructure:"change_log_check_interval" yaml:"change_log_check_interval"`
	CompactionInterval      time.Duration `mapstructure:"compaction_interval" yaml:"compaction_interval"`

	NodeID string `mapstructure:"node_id" yaml:"node_id"`
}

// DefaultConfig mirrors internal/tasks' own defaults so a Datastore opened
// with a zero Config behaves the same as one opened with no config file at
// all.
func DefaultConfig() Config {
	return Config{
		Backend:                 BackendMemory,
		RecordCacheCapacity:     4096,
		HeartbeatInterval:       5 * time.Second,
		MembershipDeadline:      15 * time.Second,
		ArchiveGracePeriod:      time.Hour,
		MembershipCheckInterval: 5 * time.Second,
		ChangeLogRetention:      24 * time.Hour,
		ChangeLogCheckInterval:  time.Minute,
		CompactionInterval:      10 * time.Second,
		NodeID:                  "node-1",
	}
}

// DecodeConfig decodes raw (typically unmarshalled from YAML via
// gopkg.in/yaml.v3 beforehand) into a Config layered over DefaultConfig,
// the way a deployment's config file supplies only the keys it wants to
// override.
func DecodeConfig(raw map[string]any) (Config, error) {
	cfg := DefaultConfig()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DecodeConfigYAML parses a YAML document into a Config, the on-disk
// counterpart to DecodeConfig.
func DecodeConfigYAML(doc []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(doc, &raw); err != nil {
		return Config{}, err
	}
	return DecodeConfig(raw)
}

// Option customizes a Datastore at Open time, for programmatic
// construction that does not go through a Config file.
type Option func(*openSettings)

type openSettings struct {
	cfg    Config
	logger *zap.Logger
}

// WithConfig overrides the whole Config in one call, e.g. one decoded via
// DecodeConfigYAML.
func WithConfig(cfg Config) Option {
	return func(s *openSettings) { s.cfg = cfg }
}

// WithBackend selects the internal/kv adapter.
func WithBackend(b Backend) Option {
	return func(s *openSettings) { s.cfg.Backend = b }
}

// WithNodeID sets the identity internal/tasks' membership workers publish
// heartbeats under.
func WithNodeID(id string) Option {
	return func(s *openSettings) { s.cfg.NodeID = id }
}

// WithLogger supplies the *zap.Logger threaded through every transaction
// Execute begins and every background worker. Without it, Open falls back to zap.NewNop.
func WithLogger(l *zap.Logger) Option {
	return func(s *openSettings) { s.logger = l }
}
