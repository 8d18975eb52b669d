package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// presigned links handed to clients stay valid this long
const presignedURLExpiration = 15 * time.Minute

// StorageProvider keeps garment photos, body photos and try-on results.
type StorageProvider interface {
	PresignUpload(ctx context.Context, key string) (string, error)
	PresignRead(ctx context.Context, key string) (string, error)
	Upload(ctx context.Context, key string, content []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
}

// R2Service talks to Cloudflare R2 through the S3 API.
type R2Service struct {
	Bucket        string
	Client        *s3.Client
	PresignClient *s3.PresignClient
}

var allowedUploadMimeTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/heic": true,
}

func NewR2Service(ctx context.Context, bucket string) (*R2Service, error) {
	var accountId = GetEnv("R2_ACCOUNT_ID", "")
	var accessKeyId = GetEnv("R2_ACCESS_KEY_ID", "")
	var accessKeySecret = GetEnv("R2_ACCESS_KEY_SECRET", "")
	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountId),
		}, nil
	})
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithEndpointResolverWithOptions(r2Resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyId, accessKeySecret, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &R2Service{
		Bucket:        bucket,
		Client:        client,
		PresignClient: s3.NewPresignClient(client),
	}, nil
}

func (r *R2Service) PresignUpload(ctx context.Context, key string) (string, error) {
	request, err := r.PresignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignedURLExpiration))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return request.URL, nil
}

func (r *R2Service) PresignRead(ctx context.Context, key string) (string, error) {
	request, err := r.PresignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignedURLExpiration))
	if err != nil {
		return "", fmt.Errorf("failed to presign request: %v", err)
	}
	return request.URL, nil
}

// Upload stores generated images, only image payloads are accepted.
func (r *R2Service) Upload(ctx context.Context, key string, content []byte) error {
	mimeType := http.DetectContentType(content)
	if !allowedUploadMimeTypes[mimeType] {
		return fmt.Errorf("unsupported file type: %s", mimeType)
	}
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (r *R2Service) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
