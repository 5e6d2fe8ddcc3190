package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/photovault/internal/common"
)

// Seams for testing the AWS SDK calls without a live endpoint.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Config holds connection settings for an S3-compatible backend
// (MinIO locally, NHN/AWS object storage in production).
type S3Config struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
	PresignTTL   time.Duration
}

// S3Gateway implements Gateway over the AWS SDK. It is stateless per call;
// concurrent uploads never collide because storage keys are globally unique.
type S3Gateway struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	presignTTL time.Duration
}

// NewS3Gateway builds the S3 client and presigner from static credentials.
func NewS3Gateway(cfg S3Config) (*S3Gateway, error) {
	awsCfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Gateway{
		client:     client,
		presigner:  newS3PresignClient(client),
		bucket:     cfg.Bucket,
		presignTTL: cfg.PresignTTL,
	}, nil
}

// Put validates the upload, synthesizes a storage key, and writes the object.
// On a transport error the object's presence is unknown to the caller; the
// returned error wraps common.ErrorUploadFailed.
func (g *S3Gateway) Put(ctx context.Context, ownerID int64, upload Upload) (string, error) {
	if err := ValidateUpload(upload); err != nil {
		return "", err
	}

	key := NewStorageKey(ownerID, upload.Filename)

	_, err := putObject(g.client, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(g.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(upload.Data),
		ContentType:   aws.String(upload.ContentType),
		ContentLength: aws.Int64(int64(len(upload.Data))),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorUploadFailed, err)
	}

	return key, nil
}

// Delete removes the object at storageKey. S3 DeleteObject does not
// distinguish deleting an absent key, so the operation is idempotent; only a
// genuine transport error is reported.
func (g *S3Gateway) Delete(ctx context.Context, storageKey string) error {
	_, err := deleteObject(g.client, ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorDeleteFailed, err)
	}
	return nil
}

// Presign returns a presigned GET URL for storageKey, valid for the
// configured TTL. The URL embeds no long-lived secrets.
func (g *S3Gateway) Presign(ctx context.Context, storageKey string) (string, error) {
	req, err := presignGetObject(g.presigner, ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(storageKey),
	}, s3.WithPresignExpires(g.presignTTL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorPresignFailed, err)
	}
	return req.URL, nil
}
