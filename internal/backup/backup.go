// Package backup uploads encrypted snapshots of the household data to
// S3-compatible storage and restores them.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dukerupert/choreify/internal/apperr"
	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/snapshot"
	"github.com/dukerupert/choreify/internal/store"
)

const defaultRetention = 30 * 24 * time.Hour

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

type Config struct {
	S3         S3Config
	Passphrase string
	Interval   time.Duration
	Retention  time.Duration
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"lastBackup,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Manager runs backups on demand and on a fixed interval. Only one backup
// runs at a time.
type Manager struct {
	cfg       Config
	client    s3Client
	snapshots *snapshot.Service
	backups   *store.BackupStore
	logger    *slog.Logger
	now       func() time.Time

	run    sync.Mutex
	mu     sync.RWMutex
	status Status
}

func NewManager(cfg Config, snaps *snapshot.Service, bs *store.BackupStore, logger *slog.Logger) *Manager {
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	m := &Manager{
		cfg:       cfg,
		snapshots: snaps,
		backups:   bs,
		logger:    logger,
		now:       time.Now,
		status:    Status{State: StateDisabled},
	}
	if cfg.S3.Bucket != "" && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (m *Manager) Enabled() bool {
	return m.client != nil
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

func (m *Manager) fail(id string, err error) error {
	if uerr := m.backups.UpdateStatus(id, model.BackupStatusFailed, err.Error()); uerr != nil {
		m.logger.Error("record backup failure", "backup_id", id, "error", uerr)
	}
	m.setStatus(Status{State: StateError, Error: err.Error()})
	return err
}

// Run backs up every interval until ctx is done. It returns immediately when
// backups are not configured.
func (m *Manager) Run(ctx context.Context) error {
	if !m.Enabled() || m.cfg.Interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := m.RunNow(ctx); err != nil {
				m.logger.Error("scheduled backup failed", "error", err)
				continue
			}
			if err := m.Cleanup(ctx); err != nil {
				m.logger.Error("backup cleanup failed", "error", err)
			}
		}
	}
}

// RunNow exports, encrypts and uploads a snapshot.
func (m *Manager) RunNow(ctx context.Context) (*model.Backup, error) {
	if !m.Enabled() {
		return nil, fmt.Errorf("%w: backups are not configured", apperr.ErrConflict)
	}
	m.run.Lock()
	defer m.run.Unlock()

	m.setStatus(Status{State: StateRunning, LastBackup: m.Status().LastBackup})

	started := m.now().UTC()
	id := uuid.NewString()
	key := fmt.Sprintf("backups/%s-%s.json.enc", started.Format("2006-01-02T150405Z"), id[:8])

	record, err := m.backups.Create(id, key, started)
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return nil, err
	}

	var buf bytes.Buffer
	if err := m.snapshots.Write(ctx, &buf); err != nil {
		return nil, m.fail(id, err)
	}
	sealed, err := Encrypt(buf.Bytes(), m.cfg.Passphrase)
	if err != nil {
		return nil, m.fail(id, err)
	}

	if err := m.backups.UpdateStatus(id, model.BackupStatusUploading, ""); err != nil {
		return nil, m.fail(id, err)
	}
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(record.Key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return nil, m.fail(id, fmt.Errorf("upload to s3: %w", err))
	}

	done := m.now().UTC()
	if err := m.backups.UpdateCompleted(id, int64(len(sealed)), done); err != nil {
		return nil, m.fail(id, err)
	}
	m.setStatus(Status{State: StateIdle, LastBackup: &done})
	m.logger.Info("backup completed", "backup_id", id, "key", key, "bytes", len(sealed))

	return m.backups.GetByID(id)
}

// Restore downloads a completed backup and replaces the current data with it.
func (m *Manager) Restore(ctx context.Context, id string) error {
	if !m.Enabled() {
		return fmt.Errorf("%w: backups are not configured", apperr.ErrConflict)
	}
	m.run.Lock()
	defer m.run.Unlock()

	record, err := m.backups.GetByID(id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("backup %s: %w", id, apperr.ErrNotFound)
	}
	if record.Status != model.BackupStatusCompleted {
		return fmt.Errorf("backup %s is %s: %w", id, record.Status, apperr.ErrConflict)
	}

	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Key:    aws.String(record.Key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer out.Body.Close()

	sealed, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	plain, err := Decrypt(sealed, m.cfg.Passphrase)
	if err != nil {
		return err
	}
	doc, err := snapshot.Read(bytes.NewReader(plain))
	if err != nil {
		return err
	}
	if err := m.snapshots.Import(ctx, doc); err != nil {
		return fmt.Errorf("import backup: %w", err)
	}

	m.logger.Info("backup restored", "backup_id", id)
	return nil
}

// Cleanup deletes backups older than the retention period.
func (m *Manager) Cleanup(ctx context.Context) error {
	if !m.Enabled() {
		return nil
	}

	keys, err := m.backups.DeleteOlderThan(m.now().Add(-m.cfg.Retention))
	if err != nil {
		return fmt.Errorf("delete old backups: %w", err)
	}

	for _, key := range keys {
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.S3.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete backup object", "key", key, "error", err)
		}
	}
	return nil
}

func (m *Manager) List(ctx context.Context, limit int) ([]model.Backup, error) {
	return m.backups.List(limit)
}
