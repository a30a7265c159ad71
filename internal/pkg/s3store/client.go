package s3store

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// Client reads payment sheets from a bucket
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// NewClient creates a new S3 client
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3 compatible services (MinIO, B2) need path-style URLs
			o.UsePathStyle = true
		}
	})

	log.Infof("[S3] Initialized S3 client for bucket: %s", cfg.BucketName)
	return &Client{
		s3Client: s3Client,
		config:   cfg,
	}, nil
}

// Bucket returns the configured bucket name
func (c *Client) Bucket() string {
	return c.config.BucketName
}

// GetObject opens the object body, the caller closes it
func (c *Client) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s from bucket %s: %w", key, c.config.BucketName, err)
	}
	return out.Body, nil
}

// HeadObject checks that the payment object exists
func (c *Client) HeadObject(ctx context.Context, key string) error {
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("object %s not accessible in bucket %s: %w", key, c.config.BucketName, err)
	}
	return nil
}
