// Package config loads handpose settings from handpose.cfg.json via viper.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/OCAP2/handpose/internal/blend"
	"github.com/OCAP2/handpose/internal/curve"
	"github.com/OCAP2/handpose/internal/drive"
	"github.com/OCAP2/handpose/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "handpose.cfg.json"

// ErrInvalidWeight is returned when a blend weight is NaN or infinite.
var ErrInvalidWeight = errors.New("invalid blend weight")

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./handposelogs")

	viper.SetDefault("driver.mode", "squeeze")
	viper.SetDefault("driver.customValue", 0.0)

	for _, f := range core.Fingers {
		viper.SetDefault("weights."+f.String(), 1.0)
	}
	viper.SetDefault("weights.handPosition", 0.0)
	viper.SetDefault("weights.handRotation", 0.0)

	viper.SetDefault("curve.wrap", "clamp")
	viper.SetDefault("curve.keys", []map[string]any{
		{"time": 0.0, "value": 0.0, "inTangent": 1.0, "outTangent": 1.0},
		{"time": 1.0, "value": 1.0, "inTangent": 1.0, "outTangent": 1.0},
	})
	viper.SetDefault("channels", []string{})

	viper.SetDefault("poses.from", "open")
	viper.SetDefault("poses.to", "closed")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.path", "")
	viper.SetDefault("storage.sqlite.path", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "handpose")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "handpose")
	viper.SetDefault("influx.bucket", "pose_telemetry")
	viper.SetDefault("influx.backupPath", "./handposelogs/pose_telemetry.lp.gz")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "handpose")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("scheduler.frameRate", 90)
	viper.SetDefault("scheduler.frames", 0)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// Drive is the blend configuration of a session.
type Drive struct {
	Mode        drive.Mode
	ModeName    string
	CustomValue float64
	Weights     blend.Weights
	Curve       *curve.Curve
	Channels    []string
	FromPose    string
	ToPose      string
}

// GetDriveConfig builds the blend configuration. Unknown driver modes are not
// an error; they resolve every drive value to 0.
func GetDriveConfig() (Drive, error) {
	modeName := viper.GetString("driver.mode")
	mode, _ := drive.ParseMode(modeName)

	d := Drive{
		Mode:        mode,
		ModeName:    modeName,
		CustomValue: viper.GetFloat64("driver.customValue"),
		Channels:    viper.GetStringSlice("channels"),
		FromPose:    viper.GetString("poses.from"),
		ToPose:      viper.GetString("poses.to"),
	}

	for _, f := range core.Fingers {
		d.Weights.Fingers[f] = viper.GetFloat64("weights." + f.String())
	}
	d.Weights.HandPosition = viper.GetFloat64("weights.handPosition")
	d.Weights.HandRotation = viper.GetFloat64("weights.handRotation")

	if err := validateWeights(d.Weights); err != nil {
		return Drive{}, err
	}

	wrap, err := curve.ParseWrapMode(viper.GetString("curve.wrap"))
	if err != nil {
		return Drive{}, fmt.Errorf("curve: %w", err)
	}
	var keys []curve.Key
	if err := viper.UnmarshalKey("curve.keys", &keys); err != nil {
		return Drive{}, fmt.Errorf("curve keys: %w", err)
	}
	d.Curve = curve.New(wrap, keys...)

	return d, nil
}

func validateWeights(w blend.Weights) error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeight, name, v)
		}
		return nil
	}
	for _, f := range core.Fingers {
		if err := check(f.String(), w.Fingers[f]); err != nil {
			return err
		}
	}
	if err := check("handPosition", w.HandPosition); err != nil {
		return err
	}
	return check("handRotation", w.HandRotation)
}
