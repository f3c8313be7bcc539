package locations

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)

	assert.Len(t, c.All(), 9)
	loc, ok := c.Find("  amsterdam ")
	require.True(t, ok)
	assert.InDelta(t, 52.3676, loc.Lat, 1e-9)
	assert.Equal(t, "Amsterdam", c.All()[0].City)
	assert.Equal(t, "Amsterdam", c.Cities()[0])
}

func TestLoadCatalogFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
locations:
  - city: Reykjavik
    country: IS
    lat: 64.1466
    lon: -21.9426
  - city: Ushuaia
    country: AR
    lat: -54.8019
    lon: -68.3030
`), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Reykjavik", "Ushuaia"}, c.Cities())

	_, ok := c.Find("Tokyo")
	assert.False(t, ok)
}

func TestLoadCatalogRejectsBadFiles(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("locations:\n  - country: XX\n"), 0o644))
	_, err = LoadCatalog(path)
	assert.Error(t, err)
}

func TestResolverPresetThenGeocoder(t *testing.T) {
	calls := 0
	r := NewResolver(NewCatalog(Defaults), func(ctx context.Context, city, country string) (float64, float64, error) {
		calls++
		if city == "Atlantis" {
			return 0, 0, errors.New("zero results")
		}
		return 59.9139, 10.7522, nil
	})

	loc, err := r.Resolve(context.Background(), "Tokyo", "")
	require.NoError(t, err)
	assert.Equal(t, "JP", loc.Country)
	assert.Equal(t, 0, calls)

	loc, err = r.Resolve(context.Background(), "Oslo", "NO")
	require.NoError(t, err)
	assert.InDelta(t, 10.7522, loc.Lon, 1e-9)
	assert.Equal(t, 1, calls)

	// Cached in the catalog after the first lookup.
	_, err = r.Resolve(context.Background(), "oslo", "")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = r.Resolve(context.Background(), "Atlantis", "")
	assert.ErrorIs(t, err, ErrUnknownLocation)
}

func TestResolverWithoutGeocoder(t *testing.T) {
	r := NewResolver(NewCatalog(nil), nil)
	_, err := r.Resolve(context.Background(), "Paris", "FR")
	assert.ErrorIs(t, err, ErrUnknownLocation)
}
