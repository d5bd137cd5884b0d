package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
	"github.com/paulIordache/Architecture-Web/core"
	"github.com/paulIordache/Architecture-Web/stores/filesystem"
	"github.com/sirupsen/logrus"
)

// objectAPI is the subset of the S3 client the asset store uses.
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Store struct {
	s3Client objectAPI
	bucket   string
}

// NewStore creates an S3-backed asset store using the default AWS config chain.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}
	return newStore(s3.NewFromConfig(cfg), bucketName)
}

func newStore(client objectAPI, bucket string) *s3Store {
	return &s3Store{s3Client: client, bucket: bucket}
}

func (s *s3Store) Open(ctx context.Context, key string) (io.ReadCloser, *core.AssetInfo, error) {
	cleaned, err := filesystem.CleanKey(key)
	if err != nil {
		return nil, nil, err
	}
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleaned),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			logrus.WithField("key", cleaned).Warn("Asset not found")
			return nil, nil, fmt.Errorf("asset %s: %w", cleaned, core.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("failed to get asset %s: %v", cleaned, err)
	}

	info := &core.AssetInfo{Key: cleaned, ContentType: filesystem.ContentType(cleaned)}
	if resp.ContentType != nil && *resp.ContentType != "" {
		info.ContentType = *resp.ContentType
	}
	if resp.ContentLength != nil {
		info.Size = *resp.ContentLength
	}
	if resp.LastModified != nil {
		info.ModTime = *resp.LastModified
	}
	return resp.Body, info, nil
}

// Put uploads r under key. An empty key gets a generated name.
func (s *s3Store) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	if key == "" {
		key = ulid.Make().String()
	}
	cleaned, err := filesystem.CleanKey(key)
	if err != nil {
		return "", err
	}
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(cleaned),
		Body:        r,
		ContentType: aws.String(filesystem.ContentType(cleaned)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload asset %s: %v", cleaned, err)
	}
	logrus.WithField("key", cleaned).Info("Asset stored")
	return cleaned, nil
}
