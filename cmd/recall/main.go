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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/recall/pkg/config"
	"github.com/kraklabs/recall/pkg/memory"
	"github.com/kraklabs/recall/pkg/orchestrator"
	"github.com/kraklabs/recall/pkg/qdrant"
	"github.com/kraklabs/recall/pkg/vectorpool"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// defaultVectorSize matches nomic-embed-text's output width, the
// teacher's documented default embedding model.
const defaultVectorSize = 768

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to a recall config YAML file")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("recall version %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		os.Exit(0)
	}

	logger := slog.Default()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	o, err := buildOrchestrator(cfg, logger)
	if err != nil {
		logger.Error("build orchestrator", "error", err)
		os.Exit(1)
	}

	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		logger.Error("decode request", "error", err)
		os.Exit(1)
	}

	env, err := dispatch(context.Background(), o, req)
	if err != nil {
		logger.Error("dispatch operation", "operation", req.Operation, "error", err)
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"error": err.Error()})
		os.Exit(1)
	}

	if err := json.NewEncoder(os.Stdout).Encode(env); err != nil {
		logger.Error("encode response", "error", err)
		os.Exit(1)
	}
}

// buildOrchestrator wires pkg/config's values through pkg/qdrant and
// pkg/vectorpool into a pkg/orchestrator.Orchestrator. It performs no
// I/O beyond opening the pool's minimum connections.
func buildOrchestrator(cfg *config.Config, logger *slog.Logger) (*orchestrator.Orchestrator, error) {
	host, port, useTLS, err := splitQdrantURL(cfg.Qdrant.URL)
	if err != nil {
		return nil, err
	}

	factory := func() (qdrant.Client, error) {
		return qdrant.Dial(host, port, cfg.Qdrant.APIKey, useTLS)
	}

	poolCfg := vectorpool.DefaultConfig(cfg.Qdrant.PoolMinSize, cfg.Qdrant.PoolSize, cfg.Qdrant.PoolTimeout, cfg.Qdrant.PoolRecycle)
	pool, err := vectorpool.New("recall", poolCfg, factory, logger)
	if err != nil {
		return nil, err
	}

	embedCache := memory.NewInMemoryCache()

	return orchestrator.New(
		pool,
		cfg.Qdrant.CallGraphCollection,
		cfg.Qdrant.CollectionName,
		defaultVectorSize,
		nil, // find_dependencies/find_dependents: no file-dependency service wired by this minimal binary
		newOllamaEmbedder(),
		embedCache,
		logger,
	), nil
}

// splitQdrantURL parses a "scheme://host:port" URL into Dial's
// host/port/useTLS parameters, defaulting the port to Qdrant's
// standard gRPC port when absent.
func splitQdrantURL(raw string) (host string, port int, useTLS bool, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("parse qdrant url %q: %w", raw, err)
	}
	host = u.Hostname()
	useTLS = u.Scheme == "https" || u.Scheme == "grpcs"
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("parse qdrant url port %q: %w", p, err)
		}
	} else {
		port = 6334
	}
	return host, port, useTLS, nil
}
