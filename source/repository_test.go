package source

import (
	"errors"
	"testing"

	"github.com/sardine-ai/flexpreset/config"
)

func TestPresetName(t *testing.T) {
	tests := map[string]string{
		"opr/cosmo-1e/all_png.toml": "opr/cosmo-1e/all_png",
		"./test/minimal.toml":       "test/minimal",
		"/abs.toml":                 "abs",
		"a/../b.toml":               "b",
	}
	for in, want := range tests {
		if got := PresetName(in); got != want {
			t.Errorf("PresetName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsPresetFile(t *testing.T) {
	tests := map[string]bool{
		"opr/all_png.toml": true,
		"all_png.toml":     true,
		"opr/.hidden.toml": false,
		"opr/readme.md":    false,
		"opr/toml":         false,
	}
	for in, want := range tests {
		if got := IsPresetFile(in); got != want {
			t.Errorf("IsPresetFile(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewRepository(t *testing.T) {
	tests := []struct {
		src  config.Source
		want interface{}
	}{
		{config.Source{Name: "a", Kind: config.KindFile, Path: "/tmp"}, &FileRepository{}},
		{config.Source{Name: "b", Kind: config.KindEmbed}, &EmbedRepository{}},
		{config.Source{Name: "c", Kind: config.KindGit, URL: "https://example.com/presets.git", Username: "u", Password: "p"}, &GitRepository{}},
		{config.Source{Name: "d", Kind: config.KindHTTP, URL: "https://example.com/presets/", APIKey: "k"}, &WebRepository{}},
		{config.Source{Name: "e", Kind: config.KindS3, Bucket: "bucket", Region: "eu-central-1"}, &AwsS3Repository{}},
		{config.Source{Name: "f", Kind: config.KindGCS, Bucket: "bucket"}, &GcpStorageRepository{}},
	}
	for _, tt := range tests {
		repo, err := NewRepository(tt.src)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.src.Kind, err)
			continue
		}
		if repo.GetName() != tt.src.Name {
			t.Errorf("%s: expected name %q, got %q", tt.src.Kind, tt.src.Name, repo.GetName())
		}
		switch r := repo.(type) {
		case *FileRepository:
			if _, ok := tt.want.(*FileRepository); !ok || r.Path != "/tmp" {
				t.Errorf("%s: unexpected repository %T", tt.src.Kind, repo)
			}
		case *EmbedRepository:
			if _, ok := tt.want.(*EmbedRepository); !ok || r.FS == nil {
				t.Errorf("%s: unexpected repository %T", tt.src.Kind, repo)
			}
		case *GitRepository:
			if _, ok := tt.want.(*GitRepository); !ok || r.Auth == nil || r.Auth.Username != "u" {
				t.Errorf("%s: unexpected repository %T", tt.src.Kind, repo)
			}
		case *WebRepository:
			if _, ok := tt.want.(*WebRepository); !ok || r.APIKey != "k" || r.URL.Host != "example.com" {
				t.Errorf("%s: unexpected repository %T", tt.src.Kind, repo)
			}
		case *AwsS3Repository:
			if _, ok := tt.want.(*AwsS3Repository); !ok || r.Region != "eu-central-1" {
				t.Errorf("%s: unexpected repository %T", tt.src.Kind, repo)
			}
		case *GcpStorageRepository:
			if _, ok := tt.want.(*GcpStorageRepository); !ok || r.BucketName != "bucket" {
				t.Errorf("%s: unexpected repository %T", tt.src.Kind, repo)
			}
		default:
			t.Errorf("%s: unexpected repository %T", tt.src.Kind, repo)
		}
	}

	if _, err := NewRepository(config.Source{Name: "x", Kind: "ftp"}); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for unknown kind, got %v", err)
	}
	if _, err := NewRepository(config.Source{Name: "x", Kind: config.KindS3}); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for missing bucket, got %v", err)
	}
}
