package source

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/pelletier/go-toml/v2"
	"github.com/sardine-ai/flexpreset/config"
	"github.com/sardine-ai/flexpreset/model"
	"github.com/sardine-ai/flexpreset/presets"
)

// Extension of preset setup files.
const Extension = ".toml"

var ErrInvalidPreset = errors.New("invalid preset file")

// Repository is a named source of preset setup files.
type Repository interface {
	GetName() string
	List() []string
	GetData(presetName string) (preset model.PresetFile, isPresent bool)
	GetRawData(presetName string) (raw []byte, isPresent bool)
	Refresh() error
}

// NewRepository creates the repository described by a config source.
// The repository is not refreshed.
func NewRepository(src config.Source) (Repository, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	switch src.Kind {
	case config.KindFile:
		return &FileRepository{Name: src.Name, Path: src.Path}, nil
	case config.KindEmbed:
		return &EmbedRepository{Name: src.Name, FS: presets.FS}, nil
	case config.KindGit:
		u, err := url.Parse(src.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing git url: %w", err)
		}
		repo := &GitRepository{Name: src.Name, URL: u, Path: src.Path, Branch: src.Branch}
		if src.Username != "" || src.Password != "" {
			repo.Auth = &http.BasicAuth{Username: src.Username, Password: src.Password}
		}
		return repo, nil
	case config.KindHTTP:
		u, err := url.Parse(src.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing web url: %w", err)
		}
		return &WebRepository{Name: src.Name, URL: u, APIKey: src.APIKey}, nil
	case config.KindS3:
		return &AwsS3Repository{
			Name:       src.Name,
			BucketName: src.Bucket,
			Prefix:     src.Prefix,
			Region:     src.Region,
			Endpoint:   src.URL,
		}, nil
	case config.KindGCS:
		return &GcpStorageRepository{Name: src.Name, BucketName: src.Bucket, Prefix: src.Prefix}, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", config.ErrInvalidConfig, src.Kind)
}

// PresetName turns a slash-separated file path relative to the source root
// into a preset name, e.g. "opr/cosmo-1e/all_png.toml" -> "opr/cosmo-1e/all_png".
func PresetName(rel string) string {
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	return strings.TrimSuffix(rel, Extension)
}

// IsPresetFile reports whether a file name looks like a preset setup file.
func IsPresetFile(name string) bool {
	base := path.Base(name)
	return strings.HasSuffix(base, Extension) && !strings.HasPrefix(base, ".")
}

// presetSet holds the preset files of a repository. Repositories build a
// complete new set outside the lock and swap it in, so a failed refresh
// leaves the previous data untouched.
type presetSet struct {
	sync.RWMutex
	files map[string]model.PresetFile
	names []string
}

func (s *presetSet) swap(files map[string]model.PresetFile) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	s.Lock()
	s.files = files
	s.names = names
	s.Unlock()
}

// List returns the sorted preset names.
func (s *presetSet) List() []string {
	s.RLock()
	defer s.RUnlock()
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// GetData returns the preset file with the given name.
func (s *presetSet) GetData(presetName string) (preset model.PresetFile, isPresent bool) {
	s.RLock()
	defer s.RUnlock()
	preset, isPresent = s.files[presetName]
	return preset, isPresent
}

// GetRawData returns the raw TOML content of the preset with the given name.
func (s *presetSet) GetRawData(presetName string) (raw []byte, isPresent bool) {
	preset, ok := s.GetData(presetName)
	return preset.Raw, ok
}

// collector accumulates files during a refresh.
type collector struct {
	source string
	files  map[string]model.PresetFile
}

func newCollector(source string) *collector {
	return &collector{source: source, files: map[string]model.PresetFile{}}
}

// add checks that raw is valid TOML and stores it under the preset name
// derived from rel.
func (c *collector) add(rel, location string, raw []byte) error {
	var probe map[string]interface{}
	if err := toml.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPreset, location, err)
	}
	name := PresetName(rel)
	c.files[name] = model.PresetFile{Name: name, Source: c.source, Path: location, Raw: raw}
	return nil
}
