// Package presets holds the preset setup files shipped with flexpreset.
package presets

import "embed"

// FS contains the builtin preset tree; preset names are the paths below
// its root without the .toml extension.
//
//go:embed opr test
var FS embed.FS
