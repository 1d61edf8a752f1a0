package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/terassyi/jsvm/internal/version"
)

func mustVersion(t *testing.T, s string) version.Version {
	t.Helper()
	v, err := version.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestMergeNoneWhenNodeAbsent(t *testing.T) {
	out := Merge(Platform{}, Overrides{}, nil)
	assert.True(t, out.IsNone())
}

func TestMergeAppliesBundledNpm(t *testing.T) {
	node := mustVersion(t, "20.0.0")
	npm := mustVersion(t, "10.0.0")

	base := Platform{Node: Sourced[version.Version]{Value: node, Source: SourceDefault, set: true}}
	out := Merge(base, Overrides{}, func(v version.Version) (version.Version, bool) {
		return npm, true
	})

	assert.True(t, out.Npm.IsSet())
	assert.Equal(t, SourceDefault, out.Npm.Source)
	assert.Equal(t, "10.0.0", out.Npm.Value.String())
}

func TestMergeCommandLineOverride(t *testing.T) {
	node := mustVersion(t, "20.0.0")
	override := mustVersion(t, "18.0.0")

	base := Platform{Node: Sourced[version.Version]{Value: node, Source: SourceProject, set: true}}
	out := Merge(base, Overrides{Node: Spec{Mode: SpecSome, Value: override}}, nil)

	assert.Equal(t, SourceCommandLine, out.Node.Source)
	assert.Equal(t, "18.0.0", out.Node.Value.String())
}

func TestMergeNoneModeRemoves(t *testing.T) {
	node := mustVersion(t, "20.0.0")
	npm := mustVersion(t, "10.0.0")

	base := Platform{
		Node: Sourced[version.Version]{Value: node, Source: SourceProject, set: true},
		Npm:  Sourced[version.Version]{Value: npm, Source: SourceProject, set: true},
	}
	out := Merge(base, Overrides{Npm: Spec{Mode: SpecNone}}, nil)

	assert.False(t, out.Npm.IsSet())
	assert.True(t, out.Node.IsSet())
}

func TestSourceOrdering(t *testing.T) {
	assert.True(t, SourceCommandLine > SourceBinary)
	assert.True(t, SourceBinary > SourceProject)
	assert.True(t, SourceProject > SourceDefault)
	assert.True(t, SourceDefault > SourceNone)
	assert.Equal(t, SourceCommandLine, Max(SourceCommandLine, SourceProject))
}
