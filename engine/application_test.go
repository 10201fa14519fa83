package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/renderer"
	"github.com/spaghettifunk/showroom/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
	return p
}

func TestDefaultsApplyToMissingKeys(t *testing.T) {
	p := writeManifest(t, `
[window]
name = "Demo"

[[lights]]
position = [1, 2, 3]

[[objects]]
path = "robot.glb"
`)
	config, err := LoadApplicationConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "Demo", config.Window.Name)
	assert.Equal(t, uint32(1280), config.Window.Width)
	assert.Equal(t, uint32(720), config.Window.Height)
	assert.Equal(t, float32(75), config.Camera.FOV)
	assert.Equal(t, [3]float32{0, 0, 5}, config.Camera.Position)
	assert.True(t, config.Shadows.Enabled)
	assert.Equal(t, float32(0.25), config.Postprocessing.Bloom.Strength)
	assert.True(t, config.Postprocessing.SMAA)
	assert.Equal(t, filepath.Join(filepath.Dir(p), "assets"), config.AssetsDir)

	require.Len(t, config.Lights, 1)
	assert.Equal(t, scene.DefaultLightIntensity, config.Lights[0].LightIntensity())

	specs, err := config.LoadSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, 1.0, specs[0].ScaleFactor)
	assert.True(t, specs[0].CastsShadow, "objects cast shadows unless told otherwise")
	assert.Nil(t, specs[0].RotationDegrees)

	st, err := config.ShadowMapType()
	require.NoError(t, err)
	assert.Equal(t, renderer.ShadowMapPCFSoft, st)
}

func TestObjectsCarryScaleShadowAndRotation(t *testing.T) {
	p := writeManifest(t, `
headless = true
exit_when_loaded = true
max_concurrent_loads = 2

[environment]
path = "studio.hdr"
show = true

[[objects]]
path = "robot.glb"
scale = 0.5
shadow = true
rotation = [90, 0, 180]

[[objects]]
path = "https://example.com/chair.glb"
shadow = false
`)
	config, err := LoadApplicationConfig(p)
	require.NoError(t, err)
	assert.True(t, config.Headless)
	assert.True(t, config.ExitWhenLoaded)
	assert.Equal(t, 2, config.MaxConcurrentLoads)
	assert.Equal(t, "studio.hdr", config.Environment.Path)
	assert.True(t, config.Environment.Show)

	specs, err := config.LoadSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, 0.5, specs[0].ScaleFactor)
	assert.True(t, specs[0].CastsShadow)
	require.NotNil(t, specs[0].RotationDegrees)
	assert.Equal(t, 90.0, specs[0].RotationDegrees.X)
	assert.Equal(t, 180.0, specs[0].RotationDegrees.Z)
	assert.Equal(t, "https://example.com/chair.glb", specs[1].AssetPath)
	assert.False(t, specs[1].CastsShadow)
}

func TestInvalidManifests(t *testing.T) {
	cases := map[string]struct {
		manifest string
		want     error
	}{
		"bad rotation": {`
[[objects]]
path = "a.glb"
rotation = [1, 2]
`, ErrInvalidRotation},
		"negative scale": {`
[[objects]]
path = "a.glb"
scale = -1
`, core.ErrInvalidScale},
		"empty path": {`
[[objects]]
scale = 2
`, core.ErrEmptyAssetPath},
		"camera": {`
[camera]
near = 10
far = 1
`, ErrInvalidCamera},
		"window": {`
[window]
width = 0
`, ErrInvalidWindowSize},
		"shadow type": {`
[shadows]
type = "vsm"
`, ErrInvalidShadowType},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadApplicationConfig(writeManifest(t, tc.manifest))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUnknownKeysAreRejected(t *testing.T) {
	_, err := LoadApplicationConfig(writeManifest(t, `
[window]
colour = "blue"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestMissingManifest(t *testing.T) {
	_, err := LoadApplicationConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
