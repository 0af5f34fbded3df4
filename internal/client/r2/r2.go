// Package r2 is a MediaClient that negotiates uploads directly against an
// S3-compatible bucket (Cloudflare R2, MinIO, AWS S3) instead of going
// through the backend. It is used for self-hosted setups and local
// development: targets are presigned locally and confirmation checks that
// each object landed with the expected size.
package r2

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/postkeeper/internal/client/client"
	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnsupported  = fmt.Errorf("%w in direct storage mode", client.ErrUnsupported)
	ErrSizeMismatch = errors.New("stored object size mismatch")
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

const (
	defaultKeyPrefix = "media"
	defaultExpires   = 15 * time.Minute
	confirmWorkers   = 4
)

// Config describes the bucket. Endpoint is the account endpoint, e.g.
// https://<account>.r2.cloudflarestorage.com.
type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	KeyPrefix       string
	Expires         time.Duration
}

type presignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type objectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

var _ client.MediaClient = (*Client)(nil)

type Client struct {
	cfg     Config
	presign presignAPI
	objects objectAPI
	now     func() time.Time
	newID   func() string
}

// New builds a Client from static credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}

	s3c := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return newClient(cfg, s3.NewPresignClient(s3c), s3c), nil
}

func newClient(cfg Config, p presignAPI, o objectAPI) *Client {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	if cfg.Expires <= 0 {
		cfg.Expires = defaultExpires
	}
	return &Client{
		cfg:     cfg,
		presign: p,
		objects: o,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// storageKey lays objects out by upload date: <prefix>/<yyyy>/<mm>/<id><ext>.
func (c *Client) storageKey(mediaID, fileName string) string {
	d := c.now().UTC()
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("%s/%04d/%02d/%s%s", c.cfg.KeyPrefix, d.Year(), int(d.Month()), mediaID, ext)
}

func (c *Client) publicURL(key string) string {
	if c.cfg.PublicBaseURL == "" {
		return ""
	}
	return strings.TrimRight(c.cfg.PublicBaseURL, "/") + "/" + key
}

func (c *Client) RequestBatchPresignedURLs(ctx context.Context, files []models.FileSpec) ([]models.UploadTarget, error) {
	targets := make([]models.UploadTarget, 0, len(files))
	for _, f := range files {
		mediaID := c.newID()
		key := c.storageKey(mediaID, f.Name)

		in := &s3.PutObjectInput{
			Bucket:        aws.String(c.cfg.Bucket),
			Key:           aws.String(key),
			ContentLength: aws.Int64(f.Size),
		}
		if f.ContentType != "" {
			in.ContentType = aws.String(f.ContentType)
		}

		req, err := c.presign.PresignPutObject(ctx, in, s3.WithPresignExpires(c.cfg.Expires))
		if err != nil {
			return nil, fmt.Errorf("presign %s: %w", f.Name, err)
		}

		targets = append(targets, models.UploadTarget{
			UploadURL:  req.URL,
			MediaID:    mediaID,
			StorageKey: key,
			PublicURL:  c.publicURL(key),
		})
	}
	return targets, nil
}

// ConfirmBatchUpload checks every object exists with the announced size.
// One missing or short object fails the whole batch.
func (c *Client) ConfirmBatchUpload(ctx context.Context, items []models.ConfirmItem) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(confirmWorkers)

	for _, it := range items {
		g.Go(func() error {
			out, err := c.objects.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(c.cfg.Bucket),
				Key:    aws.String(it.StorageKey),
			})
			if err != nil {
				return fmt.Errorf("head %s: %w", it.StorageKey, err)
			}
			if got := aws.ToInt64(out.ContentLength); got != it.FileSize {
				return fmt.Errorf("%w: %s is %d bytes, expected %d", ErrSizeMismatch, it.StorageKey, got, it.FileSize)
			}
			return nil
		})
	}
	return g.Wait()
}

func (c *Client) CreatePost(context.Context, models.CreatePostRequest) (*models.CreatedPost, error) {
	return nil, ErrUnsupported
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.objects.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.cfg.Bucket)})
	return err
}
