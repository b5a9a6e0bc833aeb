// Package daemon runs the long-lived process: configuration, the periodic
// auto-save and auto-import tasks, and the localhost API server. Both
// periodic tasks and direct API actions funnel through the engine's lock,
// preserving the at-most-one-writer invariant.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/clubledger/clubledger/internal/domain"
	"github.com/clubledger/clubledger/internal/infra/logging"
	"github.com/clubledger/clubledger/internal/ledger"
)

// Config is the full daemon configuration, loaded from config.toml.
type Config struct {
	API     APIConfig      `toml:"api"`
	Data    DataConfig     `toml:"data"`
	Ledger  LedgerConfig   `toml:"ledger"`
	Auto    AutoConfig     `toml:"auto"`
	Journal JournalConfig  `toml:"journal"`
	Log     logging.Config `toml:"log"`
}

// APIConfig configures the localhost HTTP surface.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// Addr returns host:port.
func (a APIConfig) Addr() string { return fmt.Sprintf("%s:%d", a.Host, a.Port) }

// DataConfig configures file locations. Relative paths resolve under Dir.
type DataConfig struct {
	Dir           string `toml:"dir"`
	File          string `toml:"file"`
	BackupDir     string `toml:"backup_dir"`
	KeepBackups   int    `toml:"keep_backups"`
	AutoImportDir string `toml:"auto_import_dir"`
}

// LedgerConfig configures the business parameters.
type LedgerConfig struct {
	LevelRules           map[string]float64 `toml:"level_rules"`
	PointsRate           float64            `toml:"points_rate"`
	ExchangeRate         float64            `toml:"points_exchange_rate"`
	RedeemUnit           float64            `toml:"redeem_unit"`
	RedeemFloor          float64            `toml:"redeem_floor"`
	BirthdayReminderDays int                `toml:"birthday_reminder_days"`
}

// AutoConfig configures the periodic task intervals.
type AutoConfig struct {
	SaveInterval   string `toml:"save_interval"`
	ImportInterval string `toml:"import_interval"`
}

// JournalConfig configures the sqlite audit journal.
type JournalConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns the configuration used when no config.toml exists.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    7341,
			Metrics: true,
		},
		Data: DataConfig{
			Dir:           filepath.Join(home, ".clubledger"),
			File:          "members_data.json",
			BackupDir:     "backups",
			KeepBackups:   10,
			AutoImportDir: "autoimport",
		},
		Ledger: LedgerConfig{
			LevelRules: map[string]float64{
				domain.TierBase:    0,
				domain.TierSilver:  1000,
				domain.TierGold:    5000,
				domain.TierDiamond: 20000,
			},
			PointsRate:           0.1,
			ExchangeRate:         100,
			RedeemUnit:           100,
			RedeemFloor:          100,
			BirthdayReminderDays: 7,
		},
		Auto: AutoConfig{
			SaveInterval:   "5m",
			ImportInterval: "1m",
		},
		Journal: JournalConfig{Enabled: true},
		Log:     logging.Config{Level: "info", Format: "text", Output: "stderr"},
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigPath returns the default config file location.
func ConfigPath() string {
	return filepath.Join(DefaultConfig().Data.Dir, "config.toml")
}

// resolve joins a possibly relative path under the data dir.
func (d DataConfig) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.Dir, p)
}

// DataFile returns the absolute data file path.
func (d DataConfig) DataFile() string { return d.resolve(d.File) }

// BackupPath returns the absolute backup directory.
func (d DataConfig) BackupPath() string { return d.resolve(d.BackupDir) }

// AutoImportPath returns the absolute auto-import directory.
func (d DataConfig) AutoImportPath() string { return d.resolve(d.AutoImportDir) }

// LedgerConfig converts the file-level parameters into the engine's config.
func (c Config) LedgerConfig() ledger.Config {
	lc := ledger.DefaultConfig()
	if len(c.Ledger.LevelRules) > 0 {
		lc.Tiers = domain.NewTierTable(c.Ledger.LevelRules)
	}
	if c.Ledger.PointsRate > 0 {
		lc.PointsRate = domain.AmountFromFloat(c.Ledger.PointsRate)
	}
	if c.Ledger.ExchangeRate > 0 {
		lc.ExchangeRate = domain.AmountFromFloat(c.Ledger.ExchangeRate)
	}
	if c.Ledger.RedeemUnit > 0 {
		lc.RedeemUnit = domain.AmountFromFloat(c.Ledger.RedeemUnit)
	}
	if c.Ledger.RedeemFloor > 0 {
		lc.RedeemFloor = domain.AmountFromFloat(c.Ledger.RedeemFloor)
	}
	return lc
}

// parseInterval parses a duration string, falling back to def.
func parseInterval(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
