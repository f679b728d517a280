// Package config loads Slumber's runtime configuration the same way the
// teacher does: flags bound into viper by cmd/slumber/main.go, env vars
// layered on top, Load() doing a pull-based read of whatever won.
package config

import "github.com/spf13/viper"

// Config holds the core's runtime configuration (spec.md §6: "Environment
// variables read by core").
type Config struct {
	// ConfigPath is the collection file to load (SLUMBER_CONFIG_PATH).
	ConfigPath string
	// DataDir holds the persistent store's sqlite file unless overridden.
	DataDir string
	// DBPath overrides the store location entirely (SLUMBER_DB). It is
	// honored in every build; there is no debug-only gating.
	DBPath string
	// Profile is the default profile ID to render against when none is
	// given explicitly.
	Profile string
	// Persist is the session-level switch gating whether successful
	// exchanges are written to the store at all (still subject to each
	// recipe's own persist flag).
	Persist bool
	// TriggersAllowed gates whether a Request-sourced chain may launch a
	// sub-request (spec.md §4.5), as opposed to failing closed to history
	// only.
	TriggersAllowed bool
	// InsecureHosts disables TLS verification for exactly these hosts
	// (spec.md §4.6).
	InsecureHosts []string
	// FollowRedirects toggles HTTP redirect following.
	FollowRedirects bool
	// Overrides are CLI-supplied `key=value` expression-text overrides
	// (spec.md §6).
	Overrides map[string]string
}

// Load reads configuration from viper, which merges flag values, env vars,
// and defaults (set up by the cobra command in cmd/slumber).
func Load() Config {
	return Config{
		ConfigPath:      viper.GetString("config_path"),
		DataDir:         viper.GetString("data_dir"),
		DBPath:          viper.GetString("db"),
		Profile:         viper.GetString("profile"),
		Persist:         viper.GetBool("persist"),
		TriggersAllowed: viper.GetBool("triggers_allowed"),
		InsecureHosts:   viper.GetStringSlice("insecure_hosts"),
		FollowRedirects: viper.GetBool("follow_redirects"),
	}
}
