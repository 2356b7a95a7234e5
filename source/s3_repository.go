package source

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AwsS3Repository is a struct that implements the Repository interface for
// preset setup files stored below a key prefix in an S3 bucket.
type AwsS3Repository struct {
	presetSet
	Name          string     // Name of the preset source
	BucketName    string     // Name of the S3 bucket
	Prefix        string     // Key prefix of the preset tree; may be empty
	Region        string     // Optional AWS region override
	Endpoint      string     // Optional endpoint override for S3-compatible stores (path-style)
	Client        *s3.Client // S3 client instance
	clientOnce    sync.Once  // Ensures client is initialized only once
	clientInitErr error      // Stores error from client initialization
}

// GetName returns the name of the preset source.
func (a *AwsS3Repository) GetName() string {
	return a.Name
}

// Refresh lists the objects below the prefix and reads every preset file.
func (a *AwsS3Repository) Refresh() error {
	ctx := context.Background()

	if err := a.initClient(ctx); err != nil {
		return err
	}

	c := newCollector(a.Name)
	paginator := s3.NewListObjectsV2Paginator(a.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.BucketName),
		Prefix: aws.String(a.Prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if !IsPresetFile(key) {
				continue
			}
			data, err := a.getObject(ctx, key)
			if err != nil {
				return err
			}
			rel := strings.TrimPrefix(key, a.Prefix)
			if err := c.add(rel, fmt.Sprintf("s3://%s/%s", a.BucketName, key), data); err != nil {
				return err
			}
		}
	}

	a.swap(c.files)
	return nil
}

// Thread-safe client initialization using sync.Once (only if client not pre-configured)
func (a *AwsS3Repository) initClient(ctx context.Context) error {
	if a.Client != nil {
		return nil
	}
	a.clientOnce.Do(func() {
		var opts []func(*config.LoadOptions) error
		if a.Region != "" {
			opts = append(opts, config.WithRegion(a.Region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			a.clientInitErr = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		a.Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			if a.Endpoint != "" {
				o.BaseEndpoint = aws.String(a.Endpoint)
				o.UsePathStyle = true
			}
		})
	})
	return a.clientInitErr
}

func (a *AwsS3Repository) getObject(ctx context.Context, key string) ([]byte, error) {
	result, err := a.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()
	return io.ReadAll(result.Body)
}
