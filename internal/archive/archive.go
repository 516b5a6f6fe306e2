package archive

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sethvargo/go-retry"

	"github.com/rgoodwin/tasktally/internal/model"
	"github.com/rgoodwin/tasktally/internal/store"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds encrypted snapshot configuration.
type Config struct {
	Endpoint      string
	Bucket        string
	Region        string
	AccessKey     string
	SecretKey     string
	Passphrase    string
	RetentionDays int
	DBPath        string
}

// Enabled reports whether enough configuration is present to take snapshots.
func (c Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != "" && c.Passphrase != ""
}

// Manager takes encrypted database snapshots and uploads them to
// S3-compatible storage.
type Manager struct {
	cfg       Config
	db        *sql.DB
	snapshots *store.SnapshotStore
	client    s3Client
	logger    *slog.Logger
	retryBase time.Duration
}

// NewManager creates a snapshot manager. If the configuration is incomplete
// the manager is returned disabled and RunNow reports an error.
func NewManager(cfg Config, db *sql.DB, ss *store.SnapshotStore, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:       cfg,
		db:        db,
		snapshots: ss,
		logger:    logger,
		retryBase: time.Second,
	}
	if cfg.Enabled() {
		m.client = newS3Client(cfg)
	}
	return m
}

func newS3Client(cfg Config) *s3.Client {
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

// Enabled reports whether the manager can take snapshots.
func (m *Manager) Enabled() bool {
	return m.client != nil
}

// RunNow takes a snapshot immediately: checkpoints the WAL, copies the
// database file, encrypts the copy, and uploads it. The snapshot record
// tracks progress through its status column.
func (m *Manager) RunNow(ctx context.Context) (*model.Snapshot, error) {
	if m.client == nil {
		return nil, fmt.Errorf("snapshots not configured")
	}

	timestamp := time.Now().UTC().Format("2006-01-02T150405Z")
	filename := fmt.Sprintf("snapshot-%s.db.enc", timestamp)
	s3Key := fmt.Sprintf("snapshots/%s", filename)

	record, err := m.snapshots.Create(filename, s3Key)
	if err != nil {
		return nil, fmt.Errorf("create snapshot record: %w", err)
	}

	if err := m.upload(ctx, record, s3Key); err != nil {
		if serr := m.snapshots.UpdateStatus(record.ID, model.SnapshotStatusFailed, err.Error()); serr != nil {
			m.logger.Warn("update snapshot status", "id", record.ID, "error", serr)
		}
		return nil, err
	}

	return m.snapshots.GetByID(record.ID)
}

func (m *Manager) upload(ctx context.Context, record *model.Snapshot, s3Key string) error {
	if err := m.snapshots.UpdateStatus(record.ID, model.SnapshotStatusUploading, ""); err != nil {
		m.logger.Warn("update snapshot status", "id", record.ID, "error", err)
	}

	tmpDir := os.TempDir()
	dbCopy := filepath.Join(tmpDir, fmt.Sprintf("tasktally-snapshot-%d.db", record.ID))
	encFile := filepath.Join(tmpDir, fmt.Sprintf("tasktally-snapshot-%d.db.enc", record.ID))
	defer os.Remove(dbCopy)
	defer os.Remove(encFile)

	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}

	if err := copyFile(m.cfg.DBPath, dbCopy); err != nil {
		return fmt.Errorf("copy database: %w", err)
	}

	if err := EncryptFile(dbCopy, encFile, m.cfg.Passphrase); err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}

	stat, err := os.Stat(encFile)
	if err != nil {
		return fmt.Errorf("stat encrypted file: %w", err)
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(m.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		encData, err := os.Open(encFile)
		if err != nil {
			return fmt.Errorf("open encrypted file: %w", err)
		}
		defer encData.Close()

		_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(m.cfg.Bucket),
			Key:           aws.String(s3Key),
			Body:          encData,
			ContentLength: aws.Int64(stat.Size()),
		})
		if err != nil {
			return retry.RetryableError(fmt.Errorf("upload to s3: %w", err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := m.snapshots.MarkCompleted(record.ID, stat.Size()); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// Cleanup deletes snapshots older than the configured retention period,
// both the database records and the S3 objects.
func (m *Manager) Cleanup(ctx context.Context) error {
	if m.client == nil {
		return nil
	}

	before := time.Now().UTC().AddDate(0, 0, -m.cfg.RetentionDays)
	keys, err := m.snapshots.DeleteOlderThan(before)
	if err != nil {
		return fmt.Errorf("delete old snapshots: %w", err)
	}

	for _, key := range keys {
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete s3 object", "key", key, "error", err)
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
