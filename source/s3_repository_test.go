package source

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 serves ListObjectsV2 and GetObject for one path-style bucket.
func fakeS3(t *testing.T, bucket string, objects map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("list-type") == "2" {
			if r.URL.Path != "/"+bucket {
				http.Error(w, "no such bucket", http.StatusNotFound)
				return
			}
			prefix := r.URL.Query().Get("prefix")
			var b strings.Builder
			b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
			b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
			fmt.Fprintf(&b, "<Name>%s</Name><Prefix>%s</Prefix><IsTruncated>false</IsTruncated>", bucket, prefix)
			for key, body := range objects {
				if strings.HasPrefix(key, prefix) {
					fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", key, len(body))
				}
			}
			b.WriteString(`</ListBucketResult>`)
			w.Header().Set("Content-Type", "application/xml")
			w.Write([]byte(b.String()))
			return
		}
		key := strings.TrimPrefix(r.URL.Path, "/"+bucket+"/")
		body, ok := objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>not found</Message></Error>`))
			return
		}
		w.Write([]byte(body))
	}))
}

func TestAwsS3Repository(t *testing.T) {
	server := fakeS3(t, "test-bucket", map[string]string{
		"presets/opr/all_png.toml":  "lang = \"en\"\n",
		"presets/test/minimal.toml": "[a]\nlang = \"de\"\n",
		"presets/README.md":         "# presets",
		"other/x.toml":              "lang = \"en\"\n",
	})
	defer server.Close()

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("id", "secret", ""),
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
	})
	repo := &AwsS3Repository{Name: "s3", BucketName: "test-bucket", Prefix: "presets/", Client: client}
	if err := repo.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := repo.List(); !reflect.DeepEqual(got, []string{"opr/all_png", "test/minimal"}) {
		t.Errorf("unexpected presets %v", got)
	}
	file, _ := repo.GetData("test/minimal")
	if file.Path != "s3://test-bucket/presets/test/minimal.toml" || string(file.Raw) != "[a]\nlang = \"de\"\n" {
		t.Errorf("unexpected file %+v", file)
	}
}

func TestAwsS3RepositoryEndpoint(t *testing.T) {
	server := fakeS3(t, "test-bucket", map[string]string{"a.toml": "lang = \"en\"\n"})
	defer server.Close()

	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")

	repo := &AwsS3Repository{Name: "s3", BucketName: "test-bucket", Region: "eu-central-1", Endpoint: server.URL}
	if err := repo.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := repo.List(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("unexpected presets %v", got)
	}

	repo = &AwsS3Repository{Name: "s3", BucketName: "missing", Region: "eu-central-1", Endpoint: server.URL}
	if err := repo.Refresh(); err == nil {
		t.Error("expected an error for a missing bucket")
	}
}
