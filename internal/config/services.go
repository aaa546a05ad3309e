package config

import (
	"time"

	"github.com/spf13/viper"
)

// DBConfig holds Postgres connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// StorageConfig selects the pose library backend.
type StorageConfig struct {
	Type       string // memory, sqlite or postgres
	MemoryPath string // pose library file, empty keeps it in memory
	SQLitePath string // empty means in-memory
	DB         DBConfig
}

// GetStorageConfig returns the pose library settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:       viper.GetString("storage.type"),
		MemoryPath: viper.GetString("storage.memory.path"),
		SQLitePath: viper.GetString("storage.sqlite.path"),
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// InfluxConfig holds blend telemetry settings.
type InfluxConfig struct {
	Enabled    bool
	URL        string
	Token      string
	Org        string
	Bucket     string
	BackupPath string
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled: viper.GetBool("influx.enabled"),
		URL: viper.GetString("influx.protocol") + "://" +
			viper.GetString("influx.host") + ":" + viper.GetString("influx.port"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// SchedulerConfig holds frame loop settings.
type SchedulerConfig struct {
	FrameRate int
	Frames    uint64 // 0 runs until stopped
}

// Interval returns the frame period, defaulting to 90 Hz for non-positive
// frame rates.
func (c SchedulerConfig) Interval() time.Duration {
	rate := c.FrameRate
	if rate <= 0 {
		rate = 90
	}
	return time.Second / time.Duration(rate)
}

// GetSchedulerConfig returns the frame loop settings.
func GetSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		FrameRate: viper.GetInt("scheduler.frameRate"),
		Frames:    viper.GetUint64("scheduler.frames"),
	}
}
