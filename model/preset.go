package model

// PresetFile is a single preset setup file as held by a repository.
type PresetFile struct {
	Name   string // Preset name: path below the source root, without the .toml extension.
	Source string // Name of the repository the file was read from.
	Path   string // Location of the file within that repository (path, key or URL).
	Raw    []byte // Raw TOML content.
}

// Params holds the parameters of a resolved setup, keyed by leaf key.
type Params map[string]interface{}

// Setup is one flat plot setup produced by resolving a preset tree.
type Setup struct {
	Name   string `json:"name" yaml:"name"`     // Dotted section path from the root to the branch end.
	Params Params `json:"params" yaml:"params"` // Merged parameters along that path.
}

// Clone returns a copy of the params map. Values are shared.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
