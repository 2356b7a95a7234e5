package source

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GcpStorageRepository is a struct that implements the Repository interface for
// preset setup files stored below a prefix in a GCS bucket.
type GcpStorageRepository struct {
	presetSet
	Name          string          // Name of the preset source
	BucketName    string          // Name of the GCS bucket
	Prefix        string          // Object prefix of the preset tree; may be empty
	Client        *storage.Client // GCS client instance
	clientOnce    sync.Once       // Ensures client is initialized only once
	clientInitErr error           // Stores error from client initialization
}

// GetName returns the name of the preset source.
func (g *GcpStorageRepository) GetName() string {
	return g.Name
}

// Refresh lists the objects below the prefix and reads every preset file.
func (g *GcpStorageRepository) Refresh() error {
	ctx := context.Background()

	// Thread-safe client initialization using sync.Once (only if client not pre-configured)
	if g.Client == nil {
		g.clientOnce.Do(func() {
			g.Client, g.clientInitErr = storage.NewClient(ctx)
		})
		if g.clientInitErr != nil {
			return g.clientInitErr
		}
	}

	bucket := g.Client.Bucket(g.BucketName)
	c := newCollector(g.Name)
	it := bucket.Objects(ctx, &storage.Query{Prefix: g.Prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}
		if !IsPresetFile(attrs.Name) {
			continue
		}
		data, err := readObject(ctx, bucket.Object(attrs.Name))
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(attrs.Name, g.Prefix)
		if err := c.add(rel, fmt.Sprintf("gs://%s/%s", g.BucketName, attrs.Name), data); err != nil {
			return err
		}
	}

	g.swap(c.files)
	return nil
}

func readObject(ctx context.Context, obj *storage.ObjectHandle) ([]byte, error) {
	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
