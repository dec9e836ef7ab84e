package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScene(t *testing.T) {
	s, err := LoadScene("testdata/level1.yaml")
	require.NoError(t, err)

	assert.Equal(t, "level1", s.Name)
	assert.Equal(t, 3, s.EntityCount())
	assert.Equal(t, []string{"world", "player", "weapon"}, s.AllTags())

	player := s.Entities[0]
	require.NotNil(t, player.Properties["health"].Int)
	assert.Equal(t, int32(100), *player.Properties["health"].Int)
	assert.Equal(t, &[3]float64{0, 1, 0}, player.Properties["spawn"].Vec3)
	assert.True(t, player.Kinematic)
	assert.Equal(t, 0, RigidBodyModeOrdinal(player.RigidBody.Mode))
	assert.Equal(t, "player", s.Entities[1].Parent)
}

func TestLoadScene_Errors(t *testing.T) {
	_, err := LoadScene("testdata/missing.yaml")
	assert.Error(t, err)

	_, err = LoadScene("testdata/broken.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown parent "ghost"`)
}

func TestSceneManifest_Validate(t *testing.T) {
	one := int32(1)
	two := int64(2)
	tests := []struct {
		name    string
		scene   SceneManifest
		wantErr string
	}{
		{"empty", SceneManifest{}, ""},
		{"duplicate label", SceneManifest{Entities: []EntitySpec{{Label: "a"}, {Label: "a"}}}, "duplicate"},
		{"self parent", SceneManifest{Entities: []EntitySpec{{Label: "a", Parent: "a"}}}, "parent of itself"},
		{"two property kinds", SceneManifest{Entities: []EntitySpec{{
			Label:      "a",
			Properties: map[string]PropertySpec{"x": {Int: &one, Long: &two}},
		}}}, "exactly one kind"},
		{"bad mode", SceneManifest{Entities: []EntitySpec{{Label: "a", RigidBody: &RigidBodySpec{Mode: "floaty"}}}}, "rigid body mode"},
		{"bad shape", SceneManifest{Entities: []EntitySpec{{Label: "a", Colliders: []ColliderSpec{{Shape: "torus"}}}}}, "collider shape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scene.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSceneNames(t *testing.T) {
	names, err := SceneNames("testdata")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"level1", "broken", "assets", "scripts"}, names)
	assert.Equal(t, "testdata/level1.yaml", ScenePath("testdata", "level1"))
}

func TestLoadAssetTable(t *testing.T) {
	a, err := LoadAssetTable("testdata/assets.yaml")
	require.NoError(t, err)

	assert.Equal(t, 2, a.Count())
	assert.Equal(t, []string{"hero", "brick"}, a.Names())
	hero := a.Model("hero")
	require.NotNil(t, hero)
	require.Len(t, hero.Channels, 2)
	assert.Equal(t, 1, InterpolationOrdinal(hero.Channels[1].Interpolation))
	assert.NotNil(t, a.Texture("brick"))
	assert.Nil(t, a.Model("brick"))
}

func TestModelAsset_ValidateChannels(t *testing.T) {
	m := ModelAsset{Name: "m", Channels: []AnimationChannel{{
		Times:        []float64{0, 1},
		Translations: [][3]float64{{0, 0, 0}},
	}}}
	assert.ErrorContains(t, m.validate(), "1 keyframes for 2 times")

	m.Channels[0].Translations = nil
	assert.ErrorContains(t, m.validate(), "exactly one of")

	m.Channels[0].Scales = [][3]float64{{1, 1, 1}, {2, 2, 2}}
	m.Channels[0].Interpolation = "bezier"
	assert.ErrorContains(t, m.validate(), "unknown interpolation")
}

func TestLoadScriptManifest(t *testing.T) {
	m, err := LoadScriptManifest("testdata/scripts.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{"player", "world"}, m.Tags())
	assert.Equal(t, []string{"clock.lua", "weather.lua"}, m.Scripts("world"))
	assert.Nil(t, m.Scripts("enemy"))
	assert.False(t, m.Has("enemy"))
	assert.Equal(t, 2, m.Count())
}

func TestParseScriptManifest_DuplicateTag(t *testing.T) {
	_, err := ParseScriptManifest([]byte("tags:\n  - tag: a\n  - tag: a\n"))
	assert.ErrorContains(t, err, "duplicate tag")
}

func TestSceneManifest_ParentCycle(t *testing.T) {
	s := SceneManifest{Entities: []EntitySpec{
		{Label: "a", Parent: "b"},
		{Label: "b", Parent: "a"},
	}}
	assert.ErrorContains(t, s.Validate(), "parent cycle")
}
