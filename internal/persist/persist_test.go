package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

func samplePayload() types.Payload {
	s := types.State{
		Taxonomy: types.Taxonomy{
			Version: "1.0.0",
			Clusters: []types.Cluster{{
				ID: "c1", Name: "C", Color: "#000",
				Vectors: []types.Vector{{ID: "v1", Name: "V", ParentClusterID: "c1", ThemeIDs: []string{"t1"}}},
			}},
			Themes: []types.Theme{{ID: "t1", Name: "T", VectorIDs: []string{"v1"}, UsageCount: 3}},
		},
		Customizations: types.Customizations{
			CustomThemes:       []string{"t1"},
			ThemeReassignments: map[string][]string{"t1": {"v1"}},
		},
		Migrations: types.MigrationRecord{LastVersion: "1.0.0"},
		Usage:      types.UsageStats{Counts: map[string]int{"t1": 3}},
	}
	return types.NewPayload(s, "1.0.0", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), true)
}

func backends(t *testing.T) map[string]Persister {
	t.Helper()
	dir := t.TempDir()

	f, err := NewFile(filepath.Join(dir, "nested", JSONFileName))
	require.NoError(t, err)
	db, err := OpenSQLite(filepath.Join(dir, SQLiteFileName))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Persister{
		"file":   f,
		"sqlite": db,
		"memory": NewMemory(),
	}
}

func TestPersisterRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, p := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := p.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, got, "nothing saved yet")

			want := samplePayload()
			require.NoError(t, p.Save(ctx, want))

			got, err = p.Load(ctx)
			require.NoError(t, err)
			require.NotNil(t, got)
			if diff := cmp.Diff(want.State(), got.State()); diff != "" {
				t.Fatalf("state mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, *want.Version, *got.Version)
			assert.Equal(t, want.ExportDate, got.ExportDate)

			second := samplePayload()
			second.Taxonomy.Themes[0].Name = "Renamed"
			require.NoError(t, p.Save(ctx, second))
			got, err = p.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "Renamed", got.Taxonomy.Themes[0].Name)
		})
	}
}

func TestFileSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(filepath.Join(dir, JSONFileName))
	require.NoError(t, err)
	require.NoError(t, f.Save(context.Background(), samplePayload()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, JSONFileName, entries[0].Name())
}

func TestFileLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), JSONFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	f, err := NewFile(path)
	require.NoError(t, err)
	_, err = f.Load(context.Background())
	assert.Error(t, err)
}

func TestSQLiteRecordsHistory(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), SQLiteFileName))
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Save(ctx, samplePayload()))
	}
	n, err := db.SaveCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, db.Close())
	require.NoError(t, db.Close())
	assert.ErrorIs(t, db.Save(ctx, samplePayload()), types.ErrStoreClosed)
}

func TestMemoryFailWith(t *testing.T) {
	m := NewMemory()
	boom := errors.New("disk full")
	m.FailWith(boom)
	assert.ErrorIs(t, m.Save(context.Background(), samplePayload()), boom)
	m.FailWith(nil)
	assert.NoError(t, m.Save(context.Background(), samplePayload()))
	assert.Equal(t, 1, m.Saves())
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	base := types.Config{DataDir: dir}.WithDefaults()

	p, err := Open(base)
	require.NoError(t, err)
	assert.IsType(t, &File{}, p)

	base.Backend = types.BackendSQLite
	p, err = Open(base)
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, p)
	require.NoError(t, p.Close())

	base.Backend = types.BackendMemory
	p, err = Open(base)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, p)

	base.Backend = "redis"
	_, err = Open(base)
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}
