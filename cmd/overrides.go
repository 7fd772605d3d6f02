package cmd

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/javanhut/raven-session/config"
)

const envPrefix = "RAVEN"

// Viper keys. With the env prefix and key replacer, "log.level" is also read
// from RAVEN_LOG_LEVEL.
const (
	keyLogLevel    = "log.level"
	keyLastTab     = "on_last_tab_closed"
	keyTheme       = "theme"
	keyMaxTabs     = "max_tabs"
	keyMaxPanes    = "max_panes"
	keyMetricsAddr = "metrics_addr"
)

var flagKeys = map[string]string{
	"log-level":    keyLogLevel,
	"on-last-tab":  keyLastTab,
	"theme":        keyTheme,
	"metrics-addr": keyMetricsAddr,
}

func registerOverrideFlags(fs *pflag.FlagSet) {
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("on-last-tab", "", "what closing the last tab does: close-window or new-tab")
	fs.String("theme", "", "tab bar theme")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
}

// newOverrides returns a viper instance layering RAVEN_* environment
// variables and command line flags over the config file.
func newOverrides(fs *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for flag, key := range flagKeys {
		if f := fs.Lookup(flag); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
	return v
}

// applyOverrides copies the values set through v onto cfg and validates
// the result. Flags win over environment variables.
func applyOverrides(cfg *config.Config, v *viper.Viper) error {
	if s := v.GetString(keyLogLevel); s != "" {
		cfg.Log.Level = s
	}
	if s := v.GetString(keyLastTab); s != "" {
		cfg.OnLastTabClosed = s
	}
	if s := v.GetString(keyTheme); s != "" {
		cfg.Theme = s
	}
	if v.IsSet(keyMaxTabs) {
		cfg.MaxTabs = v.GetInt(keyMaxTabs)
	}
	if v.IsSet(keyMaxPanes) {
		cfg.MaxPanes = v.GetInt(keyMaxPanes)
	}
	return cfg.Validate()
}
