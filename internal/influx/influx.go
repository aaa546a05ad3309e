// Package influx records per-frame blend samples to InfluxDB, falling back to
// a gzip line-protocol file when the server is unreachable.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/OCAP2/handpose/internal/config"
	"github.com/OCAP2/handpose/internal/session"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

// Measurement is the name blend samples are written under.
const Measurement = "pose_blend"

// retentionSeconds keeps blend samples for 30 days.
const retentionSeconds = 60 * 60 * 24 * 30

// Recorder writes blend samples. It implements session.Observer.
type Recorder struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Logger       zerolog.Logger

	cfg        config.InfluxConfig
	backupFile *os.File
	now        func() time.Time
	mu         sync.Mutex
	written    uint64
	failed     uint64
}

var _ session.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder. Call Connect before recording.
func NewRecorder(cfg config.InfluxConfig, log zerolog.Logger) *Recorder {
	return &Recorder{
		cfg:    cfg,
		Logger: log,
		now:    time.Now,
	}
}

// Connect pings the server. When it is unreachable the recorder writes to
// the backup file instead.
func (r *Recorder) Connect(ctx context.Context) error {
	if !r.cfg.Enabled {
		return errors.New("influx.enabled is false")
	}

	r.Client = influxdb2.NewClientWithOptions(
		r.cfg.URL,
		r.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := r.Client.Ping(ctx)
	if err != nil || !running {
		r.IsValid = false
		r.Logger.Warn().Err(err).Str("backupPath", r.cfg.BackupPath).
			Msg("InfluxDB unreachable, writing to backup file")
		return r.openBackup()
	}

	if err := r.setupBucket(ctx); err != nil {
		return err
	}

	r.Writer = r.Client.WriteAPI(r.cfg.Org, r.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			r.Logger.Error().Err(writeErr).Str("bucket", r.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(r.Writer.Errors())

	r.IsValid = true
	r.Logger.Info().Str("url", r.cfg.URL).Str("bucket", r.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (r *Recorder) openBackup() error {
	if r.BackupWriter != nil {
		return nil
	}
	if r.cfg.BackupPath == "" {
		return errors.New("influx backup path not set")
	}
	if err := os.MkdirAll(filepath.Dir(r.cfg.BackupPath), 0755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}

	file, err := os.OpenFile(r.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	r.backupFile = file
	r.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (r *Recorder) setupBucket(ctx context.Context) error {
	// ensure org exists
	org, err := r.Client.OrganizationsAPI().FindOrganizationByName(ctx, r.cfg.Org)
	if err != nil {
		r.Logger.Info().Str("org", r.cfg.Org).Msg("Organization not found, creating")
		org, err = r.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, r.cfg.Org)
		if err != nil {
			r.Logger.Error().Err(err).Str("org", r.cfg.Org).Msg("Error creating organization")
			return err
		}
	}

	if _, err := r.Client.BucketsAPI().FindBucketByName(ctx, r.cfg.Bucket); err == nil {
		return nil
	}

	r.Logger.Info().Str("bucket", r.cfg.Bucket).Msg("Bucket not found, creating")
	rule := domain.RetentionRuleTypeExpire
	_, err = r.Client.BucketsAPI().CreateBucketWithName(ctx, org, r.cfg.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: retentionSeconds,
	})
	if err != nil {
		r.Logger.Error().Err(err).Str("bucket", r.cfg.Bucket).Msg("Error creating bucket")
		return err
	}
	return nil
}

// NewPoint converts a blend sample to a point.
func NewPoint(s session.Sample, ts time.Time) *influxdb2_write.Point {
	source := "drive"
	if s.External {
		source = "external"
	}

	return influxdb2_write.NewPoint(
		Measurement,
		map[string]string{
			"session":    s.Session.String(),
			"actor":      strconv.FormatUint(uint64(s.Actor), 10),
			"handedness": s.Handedness.String(),
			"source":     source,
		},
		map[string]any{
			"frame":  s.Frame,
			"drive":  s.Drive,
			"shaped": s.Shaped,
		},
		ts,
	)
}

// WritePoint writes a point to InfluxDB or the backup file.
func (r *Recorder) WritePoint(point *influxdb2_write.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.IsValid {
		r.Writer.WritePoint(point)
		r.written++
		return nil
	}

	if r.BackupWriter == nil {
		r.failed++
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}

	lineProtocol := strings.TrimRight(influxdb2_write.PointToLineProtocol(point, time.Nanosecond), "\n")
	if _, err := r.BackupWriter.Write([]byte(lineProtocol + "\n")); err != nil {
		r.failed++
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	r.written++
	return nil
}

// ObserveBlend implements session.Observer. Write failures are logged and
// counted.
func (r *Recorder) ObserveBlend(s session.Sample) {
	if err := r.WritePoint(NewPoint(s, r.now())); err != nil {
		r.Logger.Error().Err(err).Uint64("frame", s.Frame).Msg("Failed to record blend sample")
	}
}

// Stats returns the number of written and failed samples.
func (r *Recorder) Stats() (written, failed uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written, r.failed
}

// Close flushes pending writes and releases the client and backup file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Writer != nil {
		r.Writer.Flush()
	}
	if r.Client != nil {
		r.Client.Close()
	}

	var errs []error
	if r.BackupWriter != nil {
		errs = append(errs, r.BackupWriter.Close())
		r.BackupWriter = nil
	}
	if r.backupFile != nil {
		errs = append(errs, r.backupFile.Close())
		r.backupFile = nil
	}
	r.IsValid = false
	return errors.Join(errs...)
}
