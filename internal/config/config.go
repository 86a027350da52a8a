// Package config wires Viper with config paths, environment variables, and
// flag bindings. The environment supplies default asset locations for the
// engine bundles; everything per-request flows through EngineConfig.
package config

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RevoLabs-IO/video2gif/internal/dirs"
)

// EnvPrefix namespaces the VIDEO2GIF_* environment variables.
const EnvPrefix = "VIDEO2GIF"

// Init wires Viper with config paths, env, defaults, and flag bindings.
// It is non-fatal: any errors are returned for optional handling by caller.
func Init(root *cobra.Command) error {
	_ = dirs.EnsureAll()

	if cfgDir, err := dirs.ConfigDir(); err == nil {
		_ = dirs.Ensure(cfgDir)
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	_ = viper.BindPFlag("out_dir", root.PersistentFlags().Lookup("out-dir"))
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("asset_dir", root.PersistentFlags().Lookup("asset-dir"))
	_ = viper.BindPFlag("ffmpeg", root.PersistentFlags().Lookup("ffmpeg"))
	_ = viper.BindPFlag("ffprobe", root.PersistentFlags().Lookup("ffprobe"))
	_ = viper.BindPFlag("jobs", root.PersistentFlags().Lookup("jobs"))

	// Read config file if present (ignore not found)
	_ = viper.ReadInConfig()

	return nil
}

// get reads a key through Viper when initialized, falling back to a direct
// environment lookup so library callers work without Init.
func get(key string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return os.Getenv(EnvPrefix + "_" + strings.ToUpper(key))
}

// FFmpegPath returns the configured engine binary path, or "".
func FFmpegPath() string { return get("ffmpeg") }

// FFprobePath returns the configured probe binary path, or "".
func FFprobePath() string { return get("ffprobe") }

// AssetDir returns the default engine bundle directory for the given
// threading mode: the mode-specific value when set, else the generic one,
// else "" (binary resolution falls through to PATH).
func AssetDir(multi bool) string {
	if multi {
		if v := get("asset_dir_multi"); v != "" {
			return v
		}
	} else {
		if v := get("asset_dir_single"); v != "" {
			return v
		}
	}
	return get("asset_dir")
}
