// Command handpose runs a headless hand pose blending simulation: it loads
// the pose library, attaches two reference hands to a session and ramps the
// drive input over a number of frames.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OCAP2/handpose/internal/channel"
	"github.com/OCAP2/handpose/internal/config"
	"github.com/OCAP2/handpose/internal/drive"
	"github.com/OCAP2/handpose/internal/endpoint"
	"github.com/OCAP2/handpose/internal/influx"
	"github.com/OCAP2/handpose/internal/logging"
	intOtel "github.com/OCAP2/handpose/internal/otel"
	"github.com/OCAP2/handpose/internal/rig"
	"github.com/OCAP2/handpose/internal/scheduler"
	"github.com/OCAP2/handpose/internal/session"
	"github.com/OCAP2/handpose/internal/storage"
	"github.com/OCAP2/handpose/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "handpose"
)

const configFileHint = config.FileName

// loopFrames is the squeeze period when running without a frame limit.
const loopFrames = 180

func main() {
	opts, err := ParseOptions(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, opts); err != nil {
		log.Fatalf("handpose: %v", err)
	}
}

// HandReport is the end state of one simulated hand.
type HandReport struct {
	ID         core.ActorID
	Handedness core.Handedness
	Frames     uint64
	LastDrive  float64
	IndexCurl  float64 // degrees at the index middle joint
}

// Report summarizes a simulation run.
type Report struct {
	Session  string
	Frames   uint64
	Hands    []HandReport
	Channels map[string]float64
}

func applyOverrides(opts Options) {
	if opts.Mode != "" {
		viper.Set("driver.mode", opts.Mode)
	}
	if opts.LogLevel != "" {
		viper.Set("logLevel", opts.LogLevel)
	}
	if opts.Frames > 0 {
		viper.Set("scheduler.frames", opts.Frames)
	}
}

// setupLogging returns the slog manager, the OTel provider, the zerolog
// logger for the scheduler and telemetry, and a cleanup func.
func setupLogging(start time.Time) (*logging.SlogManager, *intOtel.Provider, zerolog.Logger, func()) {
	var out io.Writer
	var logFile *os.File

	logsDir := config.GetString("logsDir")
	logPath := logging.LogFilePath(logsDir, AppName, start)
	if err := os.MkdirAll(logsDir, 0755); err == nil {
		if f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666); err == nil {
			logFile = f
			out = f
		}
	}
	if out == nil {
		out = os.Stdout
	}

	otelCfg := config.GetOTelConfig()
	provider, err := intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: CurrentVersion,
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      out,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		log.Printf("failed to initialize OTel provider: %v", err)
		provider, _ = intOtel.New(intOtel.Config{})
	}

	slogManager := logging.NewSlogManager()
	slogManager.Setup(out, config.GetString("logLevel"), provider.LoggerProvider())

	level, err := zerolog.ParseLevel(config.GetString("logLevel"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zlog := zerolog.New(out).Level(level).With().Timestamp().Str("app", AppName).Logger()

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = slogManager.Flush(ctx)
		_ = provider.Shutdown(ctx)
		if logFile != nil {
			_ = logFile.Close()
		}
	}
	return slogManager, provider, zlog, cleanup
}

func run(ctx context.Context, opts Options) (Report, error) {
	start := time.Now()

	if err := config.Load(opts.ConfigDir); err != nil {
		return Report{}, err
	}
	applyOverrides(opts)

	slogManager, provider, zlog, cleanup := setupLogging(start)
	defer cleanup()
	logger := slogManager.Logger()
	logger.Info("Starting up", "version", CurrentVersion, "buildDate", BuildDate)

	driveCfg, err := config.GetDriveConfig()
	if err != nil {
		return Report{}, fmt.Errorf("invalid blend configuration: %w", err)
	}
	if driveCfg.Mode == drive.ModeUnknown {
		logger.Warn("Unknown driver mode, drive values resolve to 0", "mode", driveCfg.ModeName)
	}

	backend, err := createStorageBackend(config.GetStorageConfig(), logger)
	if err != nil {
		return Report{}, err
	}
	if err := backend.Init(); err != nil {
		return Report{}, fmt.Errorf("failed to initialize pose library: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close pose library", "error", err)
		}
	}()

	for name, snap := range map[string]core.PoseSnapshot{"open": openPose(), "closed": closedPose()} {
		n, err := storage.Seed(backend, name, snap)
		if err != nil {
			return Report{}, fmt.Errorf("failed to seed pose %q: %w", name, err)
		}
		if n > 0 {
			logger.Info("Seeded default pose", "name", name, "sides", n)
		}
	}

	fromSource, err := storage.Source(backend, driveCfg.FromPose)
	if err != nil {
		return Report{}, err
	}
	toSource, err := storage.Source(backend, driveCfg.ToPose)
	if err != nil {
		return Report{}, err
	}

	levels := make([]*channel.Level, 0, len(driveCfg.Channels))
	sinks := make([]channel.Sink, 0, len(driveCfg.Channels))
	for _, name := range driveCfg.Channels {
		lvl := channel.NewLevel(name)
		levels = append(levels, lvl)
		sinks = append(sinks, channel.NewLogged(name, lvl, logger))
	}

	var observer session.Observer
	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		recorder := influx.NewRecorder(influxCfg, zlog.With().Str("component", "influx").Logger())
		if err := recorder.Connect(ctx); err != nil {
			logger.Error("Failed to set up blend telemetry", "error", err)
		} else {
			observer = recorder
		}
		defer func() {
			if err := recorder.Close(); err != nil {
				logger.Error("Failed to close blend telemetry", "error", err)
			}
		}()
	}

	from := endpoint.New(endpoint.From, fromSource)
	to := endpoint.New(endpoint.To, toSource)
	hands := []*rig.Hand{rig.NewHand(1, core.Right), rig.NewHand(2, core.Left)}
	for _, h := range hands {
		from.Attach(h)
	}

	sess := session.New(session.Dependencies{
		From: from,
		To:   to,
		Config: session.Config{
			Resolver: drive.NewResolver(driveCfg.Mode, driveCfg.CustomValue),
			Weights:  driveCfg.Weights,
			Curve:    driveCfg.Curve,
			Channels: sinks,
		},
		Logger:   logger,
		Observer: observer,
	})
	sess.Init()

	loop, err := scheduler.NewWithMeter(
		logging.NewSchedulerLogger(zlog.With().Str("component", "scheduler").Logger()),
		provider.Meter("github.com/OCAP2/handpose/internal/scheduler"),
	)
	if err != nil {
		return Report{}, fmt.Errorf("failed to create scheduler: %w", err)
	}

	schedCfg := config.GetSchedulerConfig()
	if err := loop.Register("rig", rampInputs(hands, schedCfg.Frames), scheduler.Priority(0)); err != nil {
		return Report{}, err
	}
	if err := loop.Register("session", scheduler.TickerFunc(func(context.Context, scheduler.Frame) {
		sess.Tick()
	}), scheduler.Priority(session.Priority)); err != nil {
		return Report{}, err
	}

	logger.Info("Simulation started",
		"session", sess.ID().String(),
		"from", driveCfg.FromPose,
		"to", driveCfg.ToPose,
		"mode", driveCfg.ModeName,
		"frameRate", schedCfg.FrameRate,
		"frames", schedCfg.Frames,
	)

	if err := loop.Run(ctx, schedCfg.Interval(), schedCfg.Frames); err != nil && !errors.Is(err, context.Canceled) {
		return Report{}, err
	}
	sess.Teardown()

	report := buildReport(sess, loop.Frame(), hands, levels)
	for _, h := range report.Hands {
		logger.Info("Hand result",
			"actor", h.ID,
			"handedness", h.Handedness.String(),
			"frames", h.Frames,
			"drive", h.LastDrive,
			"indexCurl", h.IndexCurl,
		)
	}
	logger.Info("Simulation finished", "frames", report.Frames, "elapsed", time.Since(start).String())
	return report, nil
}

// rampInputs drives squeeze and grip from 0 to 1 across frames, or as a
// repeating wave when frames is 0.
func rampInputs(hands []*rig.Hand, frames uint64) scheduler.Ticker {
	return scheduler.TickerFunc(func(_ context.Context, f scheduler.Frame) {
		var v float64
		if frames > 0 {
			v = math.Min(1, float64(f.Number)/float64(frames))
		} else {
			v = 0.5 - 0.5*math.Cos(2*math.Pi*float64(f.Number)/loopFrames)
		}
		for _, h := range hands {
			h.Squeeze = v
			h.Grip = v
		}
	})
}

func buildReport(sess *session.Session, frames uint64, hands []*rig.Hand, levels []*channel.Level) Report {
	report := Report{
		Session:  sess.ID().String(),
		Frames:   frames,
		Channels: make(map[string]float64, len(levels)),
	}
	for _, h := range hands {
		hr := HandReport{ID: h.ID(), Handedness: h.Handedness()}
		if st, ok := sess.Tracked(h.ID()); ok {
			hr.Frames = st.Frames
			hr.LastDrive = st.LastDrive
		}
		q := h.FingerState(core.Index).Joints[core.JointMiddle].Rotation
		hr.IndexCurl = jointAngle(q)
		report.Hands = append(report.Hands, hr)
	}
	for _, lvl := range levels {
		report.Channels[lvl.Name] = lvl.Value()
	}
	return report
}

// jointAngle returns the rotation angle of q in degrees.
func jointAngle(q mgl64.Quat) float64 {
	w := mgl64.Clamp(math.Abs(q.W), 0, 1)
	return mgl64.RadToDeg(2 * math.Acos(w))
}
