package building

import (
	"os"
	"path/filepath"
	"testing"

	"Paddlers/internal/town/entity/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_建筑表数值(t *testing.T) {
	s, ok := Get(domain.RedFlowers)
	require.True(t, ok)
	require.NotNil(t, s.Range)
	require.NotNil(t, s.AttackPower)
	assert.Equal(t, 1.0, *s.Range)
	assert.Equal(t, 3, *s.AttackPower)
	assert.Equal(t, int64(100), s.Cost[domain.Feathers])
	assert.Equal(t, int64(20), s.Cost[domain.Sticks])

	assert.Equal(t, 2, Capacity(domain.BundlingStation))
	assert.Equal(t, 1, Capacity(domain.SawMill))
	assert.Equal(t, 0, Capacity(domain.Tree))
	assert.True(t, Walkable(domain.SawMill))
	assert.False(t, Walkable(domain.Tree))

	temple, _ := Get(domain.Temple)
	assert.False(t, temple.CanPurchase())
}

func TestLoad_schema拒绝非法数值(t *testing.T) {
	dir := t.TempDir()
	// go test 的工作目录就是包目录
	schema, err := os.ReadFile(schemaFile)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, schemaFile), schema, 0o600))
	bad := `{"list":[{"type":"tree","cost":{"sticks":-1}}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, indexFile), []byte(bad), 0o600))

	var c buildingConf
	assert.Error(t, c.load(dir))
}
