package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appconfig "github.com/ja7ad/windpower/internal/config"
)

const uploadTimeout = 2 * time.Minute

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader puts report artifacts into an S3 bucket under
// <prefix>/date=YYYY-MM-DD/run=<id>/.
type Uploader struct {
	client putObjectAPI
	bucket string
	prefix string
}

// NewUploader builds an S3 client from the storage configuration. Static
// credentials are used when both keys are set, otherwise the default AWS
// credential chain applies.
func NewUploader(ctx context.Context, cfg appconfig.S3Config) (*Uploader, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("s3 storage disabled")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return newUploader(client, cfg.Bucket, cfg.Prefix), nil
}

func newUploader(client putObjectAPI, bucket, prefix string) *Uploader {
	return &Uploader{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Key builds the object key of an artifact. An empty runID gets a fresh uuid.
func (u *Uploader) Key(runID string, at time.Time, name string) string {
	if runID == "" {
		runID = uuid.NewString()
	}
	return path.Join(
		u.prefix,
		fmt.Sprintf("date=%s", at.UTC().Format("2006-01-02")),
		fmt.Sprintf("run=%s", runID),
		path.Base(name),
	)
}

// Upload puts one artifact and returns its s3:// location.
func (u *Uploader) Upload(ctx context.Context, key string, a Artifact) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(a.Data),
		ContentType: aws.String(a.ContentType),
		Metadata: map[string]string{
			"artifact": a.Kind,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()
	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
