package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// config holds the defaults applied to atlas.Options when a subcommand
// doesn't override them on the command line.
type config struct {
	AlignWidth      int32 `json:"align_width,omitempty"`
	AlignHeight     int32 `json:"align_height,omitempty"`
	NumColumns      int32 `json:"num_columns,omitempty"`
	VerticalShelves bool  `json:"vertical_shelves,omitempty"`
	ToleranceQ28_4  int32 `json:"tolerance_q28_4,omitempty"`
}

const configFileName = "config.json"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigFileRead     = errors.New("failed to read config file")
	errConfigInvalid      = errors.New("invalid config file")
)

// defaultConfig returns the configuration used when no file overrides it.
func defaultConfig() config {
	return config{
		AlignWidth:     1,
		AlignHeight:    1,
		NumColumns:     1,
		ToleranceQ28_4: 4,
	}
}

// globalConfigPath returns $XDG_CONFIG_HOME/atlaspack/config.json, or
// ~/.config/atlaspack/config.json if XDG_CONFIG_HOME is unset. Returns
// empty string if the home directory cannot be determined.
func globalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "atlaspack", configFileName)
		}
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "atlaspack", configFileName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "atlaspack", configFileName)
}

// loadConfig applies, in increasing precedence: built-in defaults, the
// global config file (if present), and an explicit config file passed via
// -c/--config (if non-empty; must exist when given explicitly).
func loadConfig(explicitPath string, env []string) (config, error) {
	cfg := defaultConfig()

	if global := globalConfigPath(env); global != "" {
		fileCfg, loaded, err := loadConfigFile(global, false)
		if err != nil {
			return config{}, err
		}
		if loaded {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	if explicitPath != "" {
		fileCfg, _, err := loadConfigFile(explicitPath, true)
		if err != nil {
			return config{}, err
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	return cfg, nil
}

func loadConfigFile(path string, mustExist bool) (config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-controlled by design
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return config{}, false, fmt.Errorf("%w: %s", errConfigFileNotFound, path)
			}
			return config{}, false, nil
		}
		return config{}, false, fmt.Errorf("%w: %s: %w", errConfigFileRead, path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return config{}, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	var cfg config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return config{}, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func mergeConfig(base, overlay config) config {
	if overlay.AlignWidth != 0 {
		base.AlignWidth = overlay.AlignWidth
	}
	if overlay.AlignHeight != 0 {
		base.AlignHeight = overlay.AlignHeight
	}
	if overlay.NumColumns != 0 {
		base.NumColumns = overlay.NumColumns
	}
	if overlay.VerticalShelves {
		base.VerticalShelves = true
	}
	if overlay.ToleranceQ28_4 != 0 {
		base.ToleranceQ28_4 = overlay.ToleranceQ28_4
	}
	return base
}
