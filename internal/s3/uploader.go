// internal/s3/uploader.go
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"cattle-certification-api-server/config"
	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/models"
)

// ObjectAPI là phần của *s3.Client mà Uploader dùng.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Uploader lưu ảnh và tài liệu PDF trên S3, phục vụ qua CloudFront nếu có cấu hình.
type Uploader struct {
	Client           ObjectAPI
	Bucket           string
	Region           string
	CloudFrontDomain string
}

func NewUploader(ctx context.Context, cfg config.S3Config) (*Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	// Không có key tĩnh thì dùng chuỗi credential mặc định (IAM role, biến môi trường AWS_*).
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	sdkConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Uploader{
		Client:           s3.NewFromConfig(sdkConfig),
		Bucket:           cfg.Bucket,
		Region:           cfg.Region,
		CloudFrontDomain: cfg.CloudFrontDomain,
	}, nil
}

// URL trả về đường dẫn công khai của object.
func (u *Uploader) URL(objectKey string) string {
	if u.CloudFrontDomain != "" {
		return fmt.Sprintf("https://%s/%s", u.CloudFrontDomain, objectKey)
	}
	// Nếu không, quay trở lại xây dựng URL S3 (fallback)
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.Bucket, u.Region, objectKey)
}

// Put uploads a file to S3 and returns a pointer to it.
func (u *Uploader) Put(ctx context.Context, objectKey string, file models.Upload) (models.MediaPointer, error) {
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.Bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(file.Data),
		ContentLength: aws.Int64(int64(len(file.Data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return models.MediaPointer{}, fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return models.MediaPointer{
		Key:         objectKey,
		URL:         u.URL(objectKey),
		FileName:    file.FileName,
		ContentType: contentType,
		Size:        int64(len(file.Data)),
	}, nil
}

func (u *Uploader) Get(ctx context.Context, objectKey string) ([]byte, error) {
	out, err := u.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, apperror.ErrNotFound.Withf("object %s not found", objectKey)
		}
		return nil, fmt.Errorf("failed to download file from S3: %w", err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (u *Uploader) Delete(ctx context.Context, objectKey string) error {
	_, err := u.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}
