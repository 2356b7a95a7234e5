package preset

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/sardine-ai/flexpreset/model"
	"github.com/sardine-ai/flexpreset/presets"
	"github.com/sardine-ai/flexpreset/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollection(t *testing.T) *Collection {
	t.Helper()
	local := &source.EmbedRepository{Name: "local", FS: fstest.MapFS{
		"opr/cosmo-1e/all_png.toml": {Data: []byte("plot_variable = \"concentration\"\noutfile = \"local.png\"\n")},
		"mine/zoom.toml":            {Data: []byte("domain = \"ch\"\n")},
	}}
	builtin := &source.EmbedRepository{Name: "builtin", FS: presets.FS}
	for _, repo := range []source.Repository{local, builtin} {
		require.NoError(t, repo.Refresh())
	}
	return NewCollection(local, builtin)
}

func groupNames(groups []Group) map[string][]string {
	out := map[string][]string{}
	for _, g := range groups {
		for _, f := range g.Files {
			out[g.Source] = append(out[g.Source], f.Name)
		}
	}
	return out
}

func TestCollect(t *testing.T) {
	c := newTestCollection(t)

	groups, err := c.Collect([]string{"opr/*"}, nil)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "local", groups[0].Source)
	assert.Equal(t, map[string][]string{
		"local":   {"opr/cosmo-1e/all_png"},
		"builtin": {"opr/cosmo-1e-ctrl/all_png", "opr/cosmo-1e/all_png"},
	}, groupNames(groups))
}

func TestCollectSkip(t *testing.T) {
	c := newTestCollection(t)

	groups, err := c.Collect([]string{"*"}, []string{"opr/*", "mi?e/*"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"builtin": {"test/minimal"}}, groupNames(groups))

	// Skipping everything a pattern matches is not an error.
	groups, err = c.Collect([]string{"mine/*"}, []string{"*"})
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestCollectNoMatch(t *testing.T) {
	c := newTestCollection(t)

	_, err := c.Collect([]string{"test/*", "nope/*"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPresetFound)
	var notFound *NoPresetFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope/*", notFound.Pattern)
	assert.Equal(t, "no preset setup file found for 'nope/*'", err.Error())
}

func TestCollectFlatShadowing(t *testing.T) {
	c := newTestCollection(t)

	flat, err := c.CollectFlat("opr/cosmo-1e/*")
	require.NoError(t, err)
	require.Len(t, flat, 1)
	assert.Equal(t, "local", flat["opr/cosmo-1e/all_png"].Source)

	groups, err := c.Collect([]string{"opr/**"}, nil)
	require.NoError(t, err)
	files := Files(groups)
	require.Len(t, files, 2)
	assert.Equal(t, "local", files[0].Source)
	assert.Equal(t, "opr/cosmo-1e-ctrl/all_png", files[1].Name)
}

func TestAlternatives(t *testing.T) {
	c := newTestCollection(t)
	assert.Equal(t, []string{"opr/cosmo-1e-ctrl/all_png", "opr/cosmo-1e/all_png"}, c.Alternatives("all_png"))
	assert.Empty(t, c.Alternatives("does-not-exist"))
}

func TestCat(t *testing.T) {
	c := newTestCollection(t)

	text, err := c.Cat("mine/zoom", false)
	require.NoError(t, err)
	assert.Equal(t, "domain = \"ch\"\n", text)

	text, err = c.Cat("mine/zoom", true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "# local:mine/zoom.toml\n"), text)

	_, err = c.Cat("missing", false)
	assert.ErrorIs(t, err, ErrNoPresetFound)
}

func TestBuiltinPresets(t *testing.T) {
	builtin := &source.EmbedRepository{Name: "builtin", FS: presets.FS}
	require.NoError(t, builtin.Refresh())
	c := NewCollection(builtin)

	tests := []struct {
		preset string
		names  []string
	}{
		{"test/minimal", []string{""}},
		{"opr/cosmo-1e/all_png", []string{"_base._probability", "_base._percentiles"}},
		{"opr/cosmo-1e-ctrl/all_png", []string{
			"_base._concentration.full",
			"_base._concentration.zoom",
			"_base._concentration._multipanel_time+.full",
			"_base._concentration._multipanel_time+.zoom",
			"_base._tot_deposition.full",
			"_base._tot_deposition.zoom",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			setups, err := c.Setups(tt.preset)
			require.NoError(t, err)
			assert.Equal(t, tt.names, setupNames(setups))
		})
	}
}

func TestBuiltinPresetParams(t *testing.T) {
	builtin := &source.EmbedRepository{Name: "builtin", FS: presets.FS}
	require.NoError(t, builtin.Refresh())
	c := NewCollection(builtin)

	setups, err := c.Setups("opr/cosmo-1e-ctrl/all_png")
	require.NoError(t, err)
	byName := map[string]model.Params{}
	for _, s := range setups {
		byName[s.Name] = s.Params
	}

	panel := byName["_base._concentration._multipanel_time+.zoom"]
	assert.Equal(t, "ch", panel["domain"])
	assert.Equal(t, "multipanel", panel["plot_type"])
	assert.Equal(t, []int{2, 4, 8, 11}, panel["time"])
	assert.Equal(t, "de", panel["lang"])

	single := byName["_base._concentration.full"]
	assert.Equal(t, "full", single["domain"])
	assert.Equal(t, []int{-1}, single["time"])
	assert.NotContains(t, single, "plot_type")

	ens, err := c.Setups("opr/cosmo-1e/all_png")
	require.NoError(t, err)
	require.Len(t, ens, 2)
	assert.Equal(t, "full", ens[1].Params["domain"])
	assert.Equal(t, []float64{5, 50, 90, 99}, ens[1].Params["ens_param_pctl"])
	assert.Len(t, ens[0].Params["ens_member_id"], 11)
}

func TestLoadSetupsInvalid(t *testing.T) {
	_, err := LoadSetups(model.PresetFile{Name: "bad", Raw: []byte("[a]\ncolour = 1\n")})
	assert.ErrorIs(t, err, ErrUnknownParam)
	assert.Contains(t, err.Error(), "preset 'bad'")

	_, err = LoadSetups(model.PresetFile{Name: "dangling", Raw: []byte("[a.\"*\"]\nlang = \"en\"\n")})
	assert.ErrorIs(t, err, ErrDanglingWildcard)
}
