package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Version
		wantErr bool
	}{
		{name: "MajorMinor", input: "3.8", want: Version{3, 8, 0}},
		{name: "Full", input: "3.8.99", want: Version{3, 8, 99}},
		{name: "Whitespace", input: " 4.0.64 ", want: Version{4, 0, 64}},
		{name: "Single", input: "3", wantErr: true},
		{name: "TooMany", input: "3.8.1.2", wantErr: true},
		{name: "Suffix", input: "3.8.99-beta", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
		{name: "Letters", input: "a.b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseVersion(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidVersion)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersion_ComponentWiseOrdering(t *testing.T) {
	t.Parallel()

	v37 := MustParseVersion("3.7.94")
	v38 := MustParseVersion("3.8")
	v3899 := MustParseVersion("3.8.99")
	v40 := MustParseVersion("4.0")

	t.Run("GreaterEqRequiresEveryComponent", func(t *testing.T) {
		t.Parallel()
		assert.True(t, v3899.GreaterEq(v38))
		assert.True(t, v38.GreaterEq(v38))
		assert.False(t, v40.GreaterEq(v38), "minor 0 < 8 fails the component-wise check")
		assert.False(t, v37.GreaterEq(v38))
	})

	t.Run("StrictRelations", func(t *testing.T) {
		t.Parallel()
		assert.False(t, v37.Less(v38), "patch 94 is not < 0")
		assert.False(t, v3899.Greater(v38), "major and minor are equal")
		assert.True(t, MustParseVersion("2.1.0").Less(MustParseVersion("3.8.1")))
		assert.True(t, v37.LessEq(MustParseVersion("3.8.99")))
	})

	t.Run("Equality", func(t *testing.T) {
		t.Parallel()
		assert.True(t, v38.Equal(Version{3, 8, 0}))
		assert.False(t, v38.Equal(v3899))
	})

	t.Run("CompareIsTotal", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, -1, v37.Compare(v38))
		assert.Equal(t, 1, v40.Compare(v3899))
		assert.Equal(t, 0, v38.Compare(Version{3, 8, 0}))
	})

	t.Run("DefaultTableSelection", func(t *testing.T) {
		t.Parallel()
		assert.True(t, v3899.UsesLatestDefaults())
		assert.False(t, v37.UsesLatestDefaults())
		assert.False(t, v40.UsesLatestDefaults())
	})
}

func TestVersion_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "3.8.0", MustParseVersion("3.8").String())
}
