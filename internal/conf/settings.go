// Package conf loads and validates service configuration from a YAML file
// and SYSMGMT_-prefixed environment variables.
package conf

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/fleetops/sysmgmt/internal/errors"
)

// Settings is the root configuration for both the server and the device
// agent.
type Settings struct {
	LogLevel string         `mapstructure:"log_level"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Push     PushConfig     `mapstructure:"push"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Device   DeviceConfig   `mapstructure:"device"`
}

// HTTPConfig controls the API listener.
type HTTPConfig struct {
	Listen string `mapstructure:"listen"`
}

// DatabaseConfig selects the durable store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "mysql"
	DSN    string `mapstructure:"dsn"`
}

// AdminConfig holds the shared admin credential for the ingestion endpoint.
type AdminConfig struct {
	Token string `mapstructure:"token"`
}

// PushConfig holds the Web Push transport settings.
type PushConfig struct {
	VAPIDPublicKey  string   `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string   `mapstructure:"vapid_private_key"`
	Subscriber      string   `mapstructure:"subscriber"` // contact for the push service, e.g. mailto:ops@example.com
	SendTimeout     Duration `mapstructure:"send_timeout"`
	TTL             int      `mapstructure:"ttl"`
	Concurrency     int      `mapstructure:"concurrency"`
}

// NotifyConfig controls best-effort operator escalation of critical
// incidents via shoutrrr service URLs.
type NotifyConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	URLs    []string `mapstructure:"urls"`
}

// DeviceConfig controls the device agent: the persisted active-error slot
// and the simulated local alert schedule.
type DeviceConfig struct {
	SlotPath        string   `mapstructure:"slot_path"`
	PollInterval    Duration `mapstructure:"poll_interval"`
	ScheduleDays    int      `mapstructure:"schedule_days"`
	MaxAlertsPerDay int      `mapstructure:"max_alerts_per_day"`
	SchedulePath    string   `mapstructure:"schedule_path"`
}

// Load reads configuration from the given file (optional) and the
// environment, applying defaults for everything not required.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SYSMGMT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WithCode(errors.CategoryConfig, "config-file-unreadable", err)
		}
	} else {
		v.SetConfigName("sysmgmt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/sysmgmt")
		// A missing default config file is fine; env and defaults apply.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.WithCode(errors.CategoryConfig, "config-file-unreadable", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, errors.WithCode(errors.CategoryConfig, "config-unmarshal-failed", err)
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http.listen", ":8090")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "sysmgmt.db")
	// Secrets default to empty so the keys are known to viper and can be
	// supplied by environment alone; ValidateServe rejects the blanks.
	v.SetDefault("admin.token", "")
	v.SetDefault("push.vapid_public_key", "")
	v.SetDefault("push.vapid_private_key", "")
	v.SetDefault("push.subscriber", "mailto:admin@example.com")
	v.SetDefault("push.send_timeout", "5s")
	v.SetDefault("push.ttl", 60)
	v.SetDefault("push.concurrency", 8)
	v.SetDefault("notify.enabled", false)
	v.SetDefault("device.slot_path", "active_error.json")
	v.SetDefault("device.schedule_path", "alert_schedule.json")
	v.SetDefault("device.poll_interval", "1s")
	v.SetDefault("device.schedule_days", 30)
	v.SetDefault("device.max_alerts_per_day", 2)
}

// ValidateServe checks the settings the HTTP service cannot run without.
// Each missing value fails with its own machine-readable code so operators
// can tell exactly what is unset.
func (s *Settings) ValidateServe() error {
	if s.Database.DSN == "" {
		return errors.NewCoded(errors.CategoryConfig, "config-database-dsn-missing")
	}
	if s.Admin.Token == "" {
		return errors.NewCoded(errors.CategoryConfig, "config-admin-token-missing")
	}
	if s.Push.VAPIDPublicKey == "" || s.Push.VAPIDPrivateKey == "" {
		return errors.NewCoded(errors.CategoryConfig, "config-vapid-keys-missing")
	}
	return nil
}
