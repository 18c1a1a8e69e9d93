// Package storage uploads user files to S3 compatible object storage
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"luxwise/cv-back/config"
)

type S3Client struct {
	C        *s3.Client
	Bucket   *string
	uploader *manager.Uploader
	baseURL  string
}

// NewS3 builds the client and makes sure the bucket exists. A custom endpoint
// switches to path style addressing, which R2 and MinIO expect.
func NewS3(ctx context.Context, c config.S3) (*S3Client, error) {
	region := c.Region
	if region == "" {
		region = "auto"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID,
			c.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	bucket := aws.String(c.Bucket)

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: bucket})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
			return nil, fmt.Errorf("bucket '%s' does not exist", c.Bucket)
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	baseURL := c.PublicURL
	if baseURL == "" {
		if c.Endpoint != "" {
			baseURL = c.Endpoint + "/" + c.Bucket
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, region)
		}
	}

	return &S3Client{
		C:        client,
		Bucket:   bucket,
		uploader: manager.NewUploader(client),
		baseURL:  baseURL,
	}, nil
}

// Put uploads body under key and returns the public URL of the object
func (s *S3Client) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      s.Bucket,
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s, %w", key, err)
	}

	return s.URL(key), nil
}

func (s *S3Client) URL(key string) string {
	return s.baseURL + "/" + key
}
