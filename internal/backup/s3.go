// Package backup uploads the service's SQLite database files to an S3
// bucket. Backups are best-effort and optional: when no bucket is
// configured the job is simply never scheduled.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// uploadTimeout bounds one full backup run.
const uploadTimeout = 5 * time.Minute

// Config holds S3 backup settings.
type Config struct {
	Bucket    string
	Region    string
	AccessKey string // optional; default credential chain when empty
	SecretKey string
}

// Uploader copies database files into a date-partitioned S3 prefix.
type Uploader struct {
	cfg     Config
	dataDir string
	log     zerolog.Logger
}

// NewUploader creates an uploader for the .db files under dataDir.
func NewUploader(cfg Config, dataDir string, log zerolog.Logger) *Uploader {
	return &Uploader{
		cfg:     cfg,
		dataDir: dataDir,
		log:     log.With().Str("component", "backup").Logger(),
	}
}

// Run uploads every .db file in the data directory under a
// backups/<date>/ prefix. A partial failure aborts the run; the next
// scheduled run starts over.
func (u *Uploader) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	client, err := u.client(ctx)
	if err != nil {
		return err
	}
	uploader := manager.NewUploader(client)

	files, err := u.databaseFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		u.log.Warn().Str("dir", u.dataDir).Msg("No database files to back up")
		return nil
	}

	prefix := fmt.Sprintf("backups/%s", time.Now().UTC().Format("2006-01-02"))
	for _, path := range files {
		if err := u.uploadFile(ctx, uploader, path, prefix); err != nil {
			return err
		}
	}

	u.log.Info().
		Int("files", len(files)).
		Str("bucket", u.cfg.Bucket).
		Str("prefix", prefix).
		Msg("Backup completed")

	return nil
}

// Name returns the job name for scheduling and logging.
func (u *Uploader) Name() string {
	return "s3_backup"
}

func (u *Uploader) client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(u.cfg.Region),
	}
	if u.cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(u.cfg.AccessKey, u.cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg), nil
}

// databaseFiles lists the SQLite files worth backing up. WAL and SHM
// sidecars are skipped; a live WAL is not restorable on its own.
func (u *Uploader) databaseFiles() ([]string, error) {
	entries, err := os.ReadDir(u.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		files = append(files, filepath.Join(u.dataDir, entry.Name()))
	}

	return files, nil
}

func (u *Uploader) uploadFile(ctx context.Context, uploader *manager.Uploader, path, prefix string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	key := fmt.Sprintf("%s/%s", prefix, filepath.Base(path))
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	u.log.Debug().Str("key", key).Msg("Uploaded database file")
	return nil
}
