package replication

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/helloiwashere/guestbook-backend/config"
	"github.com/helloiwashere/guestbook-backend/logger"
	"go.uber.org/zap"
)

// ObjectPutter is the part of the S3 client used by S3Replicator.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Replicator uploads the changed files to an S3-compatible bucket under a
// key prefix. Each upload overwrites the previous copy of the file.
type S3Replicator struct {
	client  ObjectPutter
	dataDir string
	bucket  string
	prefix  string
	log     *zap.SugaredLogger
}

// NewS3Client builds an S3 client with static credentials on top of the
// default AWS configuration chain. A non-empty endpoint selects an
// S3-compatible service (R2, MinIO) with path-style addressing.
func NewS3Client(ctx context.Context, cfg config.S3ReplicationConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3Replicator returns a replicator that reads files from dataDir.
func NewS3Replicator(client ObjectPutter, dataDir string, cfg config.S3ReplicationConfig) *S3Replicator {
	return &S3Replicator{
		client:  client,
		dataDir: dataDir,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		log:     logger.GetLogger().Named("s3-replicator"),
	}
}

func (r *S3Replicator) Name() string { return "s3" }

// objectKey rejects paths that would escape the prefix.
func (r *S3Replicator) objectKey(p string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean(p))
	for _, segment := range strings.Split(clean, "/") {
		if segment == ".." {
			return "", fmt.Errorf("path traversal detected in %q", p)
		}
	}
	return path.Join(r.prefix, clean), nil
}

// Replicate uploads every path of change and stops at the first failure.
func (r *S3Replicator) Replicate(ctx context.Context, change Change) error {
	for _, p := range change.Paths {
		key, err := r.objectKey(p)
		if err != nil {
			return stageError(StageUpload, err)
		}
		data, err := os.ReadFile(filepath.Join(r.dataDir, p))
		if err != nil {
			return stageError(StageUpload, fmt.Errorf("read %s: %w", p, err))
		}

		_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(r.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
			Metadata:    map[string]string{"change": change.Message},
		})
		if err != nil {
			return stageError(StageUpload, fmt.Errorf("put object %s: %w", key, err))
		}
		r.log.Debugw("Uploaded record file", "bucket", r.bucket, "key", key, "bytes", len(data))
	}
	return nil
}
