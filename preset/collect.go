package preset

import (
	"fmt"
	"sort"

	"github.com/gobwas/glob"
	"github.com/sardine-ai/flexpreset/model"
	"github.com/sardine-ai/flexpreset/source"
	"github.com/sirupsen/logrus"
)

// Group holds the preset files collected from one repository.
type Group struct {
	Source string
	Files  []model.PresetFile
}

// Collection looks up presets across repositories. Earlier repositories
// shadow later ones when a preset name occurs more than once.
type Collection struct {
	Repositories []source.Repository
}

// NewCollection returns a collection over the given repositories.
func NewCollection(repositories ...source.Repository) *Collection {
	return &Collection{Repositories: repositories}
}

// compilePattern compiles a shell pattern in which "*" also matches "/".
func compilePattern(pattern string) (glob.Glob, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}
	return g, nil
}

// Collect returns the presets matching any of patterns and none of skip,
// grouped by repository in repository order and sorted by name within
// each group. A pattern that matches no preset at all yields a
// *NoPresetFoundError.
func (c *Collection) Collect(patterns, skip []string) ([]Group, error) {
	var skips []glob.Glob
	for _, s := range skip {
		g, err := compilePattern(s)
		if err != nil {
			return nil, err
		}
		skips = append(skips, g)
	}

	selected := make([]map[string]bool, len(c.Repositories))
	for i := range selected {
		selected[i] = map[string]bool{}
	}
	for _, pattern := range patterns {
		g, err := compilePattern(pattern)
		if err != nil {
			return nil, err
		}
		matched := false
		for i, repo := range c.Repositories {
			for _, name := range repo.List() {
				if !g.Match(name) {
					continue
				}
				matched = true
				if matchesAny(skips, name) {
					logrus.WithFields(logrus.Fields{"preset": name, "source": repo.GetName()}).Debug("skipping preset")
					continue
				}
				selected[i][name] = true
			}
		}
		if !matched {
			return nil, &NoPresetFoundError{Pattern: pattern}
		}
	}

	var groups []Group
	for i, repo := range c.Repositories {
		if len(selected[i]) == 0 {
			continue
		}
		names := make([]string, 0, len(selected[i]))
		for name := range selected[i] {
			names = append(names, name)
		}
		sort.Strings(names)
		group := Group{Source: repo.GetName()}
		for _, name := range names {
			if file, ok := repo.GetData(name); ok {
				group.Files = append(group.Files, file)
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// CollectFlat returns the presets matching pattern keyed by name.
func (c *Collection) CollectFlat(pattern string) (map[string]model.PresetFile, error) {
	groups, err := c.Collect([]string{pattern}, nil)
	if err != nil {
		return nil, err
	}
	return Flatten(groups), nil
}

// Flatten merges groups into one map keyed by preset name; the first group
// holding a name wins.
func Flatten(groups []Group) map[string]model.PresetFile {
	out := map[string]model.PresetFile{}
	for _, g := range groups {
		for _, f := range g.Files {
			if _, ok := out[f.Name]; !ok {
				out[f.Name] = f
			}
		}
	}
	return out
}

// Files returns the files of groups in order, dropping shadowed names.
func Files(groups []Group) []model.PresetFile {
	seen := map[string]bool{}
	var out []model.PresetFile
	for _, g := range groups {
		for _, f := range g.Files {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			out = append(out, f)
		}
	}
	return out
}

// Alternatives returns the sorted names of presets containing name, for
// suggestions after a failed lookup.
func (c *Collection) Alternatives(name string) []string {
	flat, err := c.CollectFlat("*" + name + "*")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(flat))
	for n := range flat {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get returns the preset with exactly the given name.
func (c *Collection) Get(name string) (model.PresetFile, error) {
	for _, repo := range c.Repositories {
		if file, ok := repo.GetData(name); ok {
			return file, nil
		}
	}
	return model.PresetFile{}, &NoPresetFoundError{Pattern: name}
}

// Cat returns the content of the preset with the given name, optionally
// preceded by a comment line naming where it was read from.
func (c *Collection) Cat(name string, includeSource bool) (string, error) {
	file, err := c.Get(name)
	if err != nil {
		return "", err
	}
	if !includeSource {
		return string(file.Raw), nil
	}
	return fmt.Sprintf("# %s:%s\n%s", file.Source, file.Path, file.Raw), nil
}

// Setups resolves and validates the setups of the named presets, in the
// given order.
func (c *Collection) Setups(names ...string) ([]model.Setup, error) {
	var out []model.Setup
	for _, name := range names {
		file, err := c.Get(name)
		if err != nil {
			return nil, err
		}
		setups, err := LoadSetups(file)
		if err != nil {
			return nil, err
		}
		out = append(out, setups...)
	}
	return out, nil
}

// LoadSetups parses a preset file, resolves its setups, validates them and
// returns them normalized.
func LoadSetups(file model.PresetFile) ([]model.Setup, error) {
	root, err := Parse(file.Raw)
	if err != nil {
		return nil, fmt.Errorf("preset '%s': %w", file.Name, err)
	}
	setups, err := root.Setups()
	if err != nil {
		return nil, fmt.Errorf("preset '%s': %w", file.Name, err)
	}
	out := make([]model.Setup, 0, len(setups))
	for _, s := range setups {
		if err := Validate(s); err != nil {
			return nil, fmt.Errorf("preset '%s': %w", file.Name, err)
		}
		normalized, err := Normalize(s)
		if err != nil {
			return nil, fmt.Errorf("preset '%s': %w", file.Name, err)
		}
		out = append(out, normalized)
	}
	logrus.WithFields(logrus.Fields{"preset": file.Name, "setups": len(out)}).Debug("resolved preset")
	return out, nil
}

func matchesAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
