package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

type Options struct {
	// Endpoint overrides the service URL. For Cloudflare R2 leave it empty
	// and set AccountID.
	Endpoint        string
	AccountID       string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
	// PublicURL, when set, is used to build the returned location.
	PublicURL string
}

func (o Options) endpoint() string {
	if o.Endpoint != "" {
		return o.Endpoint
	}
	if o.AccountID != "" {
		return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", o.AccountID)
	}
	return ""
}

// Sink uploads artifacts to an S3 compatible bucket.
type Sink struct {
	client    *s3.Client
	bucket    string
	prefix    string
	publicURL string
}

func New(ctx context.Context, opts Options) (*Sink, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not set")
	}
	region := opts.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := opts.endpoint()
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &Sink{
		client:    client,
		bucket:    opts.Bucket,
		prefix:    strings.Trim(opts.Prefix, "/"),
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
	}, nil
}

func (s *Sink) Name() string {
	return "s3"
}

// Put uploads the artifact and returns its public URL, or an s3:// URI when
// no public URL is configured.
func (s *Sink) Put(ctx context.Context, artifact qr.Artifact) (string, error) {
	key := path.Join(s.prefix, artifact.Filename())
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(artifact.Data),
		ContentLength: aws.Int64(int64(len(artifact.Data))),
		ContentType:   aws.String(artifact.Format.ContentType()),
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	if s.publicURL != "" {
		return s.publicURL + "/" + key, nil
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// Delete removes a previously uploaded artifact.
func (s *Sink) Delete(ctx context.Context, artifact qr.Artifact) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path.Join(s.prefix, artifact.Filename())),
	})
	return err
}
