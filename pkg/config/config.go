// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config holds the process-wide configuration value recognized
// by the core. Loading is an ambient concern; the recognized option set
// is normative (spec.md §6).
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the immutable configuration value passed into each
// component at construction.
type Config struct {
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Advanced  AdvancedConfig  `yaml:"advanced"`
	Search    SearchConfig    `yaml:"search"`
	Indexing  IndexingConfig  `yaml:"indexing"`
}

type QdrantConfig struct {
	URL                string        `yaml:"qdrant_url"`
	APIKey             string        `yaml:"qdrant_api_key,omitempty"`
	CollectionName     string        `yaml:"qdrant_collection_name"`
	CallGraphCollection string       `yaml:"qdrant_call_graph_collection"`
	PoolSize           int           `yaml:"qdrant_pool_size"`
	PoolMinSize        int           `yaml:"qdrant_pool_min_size"`
	PoolTimeout        time.Duration `yaml:"qdrant_pool_timeout"`
	PoolRecycle        time.Duration `yaml:"qdrant_pool_recycle"`
	PreferGRPC         bool          `yaml:"qdrant_prefer_grpc"`
}

type EmbeddingConfig struct {
	Model string `yaml:"embedding_model"`
}

type AdvancedConfig struct {
	ReadOnlyMode bool `yaml:"read_only_mode"`
}

type SearchConfig struct {
	RetrievalGateEnabled bool `yaml:"retrieval_gate_enabled"`
}

type IndexingConfig struct {
	AutoIndexEnabled   bool `yaml:"auto_index_enabled"`
	AutoIndexOnStartup bool `yaml:"auto_index_on_startup"`
}

// Default returns a config with sensible defaults for local development.
// Environment variables override the defaults where noted.
func Default() *Config {
	return &Config{
		Qdrant: QdrantConfig{
			URL:                 getEnv("QDRANT_URL", "http://localhost:6334"),
			APIKey:              getEnv("QDRANT_API_KEY", ""),
			CollectionName:      getEnv("QDRANT_COLLECTION_NAME", "memories"),
			CallGraphCollection: getEnv("QDRANT_CALL_GRAPH_COLLECTION", "code_call_graph"),
			PoolSize:            getEnvInt("QDRANT_POOL_SIZE", 10),
			PoolMinSize:         getEnvInt("QDRANT_POOL_MIN_SIZE", 1),
			PoolTimeout:         getEnvDuration("QDRANT_POOL_TIMEOUT", 10*time.Second),
			PoolRecycle:         getEnvDuration("QDRANT_POOL_RECYCLE", 30*time.Minute),
			PreferGRPC:          true,
		},
		Embedding: EmbeddingConfig{
			Model: getEnv("EMBEDDING_MODEL", "all-MiniLM-L6-v2"),
		},
		Advanced: AdvancedConfig{
			ReadOnlyMode: getEnvBool("ADVANCED_READ_ONLY_MODE", false),
		},
		Search: SearchConfig{
			RetrievalGateEnabled: getEnvBool("SEARCH_RETRIEVAL_GATE_ENABLED", false),
		},
		Indexing: IndexingConfig{
			AutoIndexEnabled:   getEnvBool("INDEXING_AUTO_INDEX_ENABLED", true),
			AutoIndexOnStartup: getEnvBool("INDEXING_AUTO_INDEX_ON_STARTUP", false),
		},
	}
}

// Load reads a YAML config file and overlays it on top of Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
