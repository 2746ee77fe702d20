package sessionstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/bitrise-io/go-utils/v2/log"
)

// S3StoreParams ...
type S3StoreParams struct {
	Region          string
	Bucket          string
	KeyPrefix       string
	AccessKeyID     string
	SecretAccessKey string
}

type s3Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	logger    log.Logger
}

// NewS3Store creates a Store backed by an S3 bucket, one object per
// fingerprint under KeyPrefix. Useful on ephemeral workers where resume
// state must outlive the machine that started the upload.
func NewS3Store(ctx context.Context, params S3StoreParams, logger log.Logger) (Store, error) {
	if params.Bucket == "" {
		return nil, fmt.Errorf("Bucket must not be empty")
	}

	cfg, err := loadAWSCredentials(
		ctx,
		params.Region,
		params.AccessKeyID,
		params.SecretAccessKey,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("load aws credentials: %w", err)
	}

	return &s3Store{
		client:    s3.NewFromConfig(*cfg),
		bucket:    params.Bucket,
		keyPrefix: strings.TrimSuffix(params.KeyPrefix, "/"),
		logger:    logger,
	}, nil
}

func (s *s3Store) Get(ctx context.Context, fingerprint string) (string, bool, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(fingerprint)),
	})
	if err != nil {
		var apiError smithy.APIError
		if errors.As(err, &apiError) {
			switch apiError.(type) {
			case *types.NoSuchKey:
				return "", false, nil
			}
		}
		return "", false, fmt.Errorf("get session object: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	content, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("read session object: %w", err)
	}

	return string(content), true, nil
}

func (s *s3Store) Set(ctx context.Context, fingerprint string, uploadURL string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(fingerprint)),
		Body:   bytes.NewReader([]byte(uploadURL)),
	})
	if err != nil {
		return fmt.Errorf("put session object: %w", err)
	}
	return nil
}

func (s *s3Store) Remove(ctx context.Context, fingerprint string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(fingerprint)),
	})
	if err != nil {
		return fmt.Errorf("delete session object: %w", err)
	}
	return nil
}

func (s *s3Store) objectKey(fingerprint string) string {
	if s.keyPrefix == "" {
		return fingerprint
	}
	return fmt.Sprintf("%s/%s", s.keyPrefix, fingerprint)
}

func loadAWSCredentials(
	ctx context.Context,
	region string,
	accessKeyID string,
	secretKey string,
	logger log.Logger,
) (*aws.Config, error) {
	if region == "" {
		return nil, fmt.Errorf("region must not be empty")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}

	if accessKeyID != "" && secretKey != "" {
		logger.Debugf("aws credentials provided, using them...")
		opts = append(opts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config, %v", err)
	}

	return &cfg, nil
}
