package store

import (
	"path/filepath"
	"testing"

	"github.com/raykavin/rulegate/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) core.ResultStore {
	t.Helper()

	db, err := FromSQLite(filepath.Join(t.TempDir(), "results.sqlite"))
	require.NoError(t, err)
	return db
}

func TestSQLStorePutGet(t *testing.T) {
	db := newSQLiteStore(t)

	stored := sampleResult("golden-cross", core.VerdictPass, 1.4)
	require.NoError(t, db.Put(stored))

	loaded, err := db.Get("golden-cross", "momentum")
	require.NoError(t, err)
	assert.Equal(t, &stored, loaded)
}

func TestSQLStoreGetMissing(t *testing.T) {
	db := newSQLiteStore(t)

	_, err := db.Get("absent", "momentum")
	assert.Error(t, err)
}

func TestSQLStorePutOverwritesSameStrategy(t *testing.T) {
	db := newSQLiteStore(t)

	require.NoError(t, db.Put(sampleResult("golden-cross", core.VerdictFail, -0.2)))
	require.NoError(t, db.Put(sampleResult("golden-cross", core.VerdictPass, 1.1)))

	all, err := db.All()
	require.NoError(t, err)
	require.Len(t, all, 1, "the conflict clause replaces the earlier run")
	assert.Equal(t, core.VerdictPass, all[0].Verdict)
}

func TestSQLStoreAllOrderedByName(t *testing.T) {
	db := newSQLiteStore(t)

	require.NoError(t, db.Put(sampleResult("zeta", core.VerdictPass, 0.9)))
	require.NoError(t, db.Put(sampleResult("alpha", core.VerdictFail, -0.1)))

	all, err := db.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].StrategyName)
	assert.Equal(t, "zeta", all[1].StrategyName)
}

func TestSQLStoreTopPassing(t *testing.T) {
	db := newSQLiteStore(t)

	require.NoError(t, db.Put(sampleResult("weak", core.VerdictPass, 0.6)))
	require.NoError(t, db.Put(sampleResult("rejected", core.VerdictFail, 2.5)))
	require.NoError(t, db.Put(sampleResult("strong", core.VerdictPass, 1.8)))

	top, err := db.TopPassing(2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "strong", top[0].StrategyName)
	assert.Equal(t, "weak", top[1].StrategyName)
}

func TestSQLStoreReset(t *testing.T) {
	db := newSQLiteStore(t)

	require.NoError(t, db.Put(sampleResult("golden-cross", core.VerdictPass, 1.4)))
	require.NoError(t, db.Reset())

	all, err := db.All()
	require.NoError(t, err)
	assert.Empty(t, all)
}
