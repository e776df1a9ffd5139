package dump

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func snapshotFixture() Snapshot {
	ts := "2025-01-01T08:00:00Z"
	return Snapshot{
		Entries: map[string]Record{
			"m1":     {Data: json.RawMessage(`{"category":"FYI","summary":"hello"}`), CachedAt: ts, AccessedAt: ts},
			"FYI_m1": {Data: json.RawMessage(`{"summary":["hello"]}`), CachedAt: ts, AccessedAt: ts},
		},
		Metadata: Metadata{LastFetchTimestamp: &ts},
	}
}

// TestFile_WriteRead_RoundTrip persists and restores entries and metadata.
func TestFile_WriteRead_RoundTrip(t *testing.T) {
	for _, gz := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "nested", "cache.json")
		f := NewFile(path, gz, zerolog.Nop())

		require.NoError(t, f.Write(snapshotFixture()))
		got, err := f.Read()
		require.NoError(t, err)

		require.Len(t, got.Entries, 2)
		require.JSONEq(t, `{"summary":["hello"]}`, string(got.Entries["FYI_m1"].Data))
		require.Equal(t, "2025-01-01T08:00:00Z", *got.Metadata.LastFetchTimestamp)

		// no temp files are left behind
		files, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		require.Len(t, files, 1)
	}
}

// TestFile_Write_PlainJSONLayout writes an indented document with a metadata key.
func TestFile_Write_PlainJSONLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	f := NewFile(path, false, zerolog.Nop())
	require.NoError(t, f.Write(snapshotFixture()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "\n  \"_metadata\": {")

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Contains(t, doc, "_metadata")
	require.Equal(t, "2025-01-01T08:00:00Z", doc["m1"]["cached_at"])
}

// TestFile_Read_Missing returns ErrNoDump.
func TestFile_Read_Missing(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "absent.json"), false, zerolog.Nop())
	_, err := f.Read()
	require.ErrorIs(t, err, ErrNoDump)
	require.NoError(t, f.Remove())
}

// TestFile_Read_Corrupt returns a decode error.
func TestFile_Read_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFile(path, false, zerolog.Nop()).Read()
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoDump)
}

// TestSnapshot_Unmarshal_SkipsMalformedRecords keeps the rest of the document.
func TestSnapshot_Unmarshal_SkipsMalformedRecords(t *testing.T) {
	var s Snapshot
	require.NoError(t, json.Unmarshal([]byte(`{
		"good": {"data": {"summary": ["x"]}, "cached_at": "2025-01-01T08:00:00Z"},
		"scalar": 42,
		"nodata": {"cached_at": "2025-01-01T08:00:00Z"},
		"_metadata": {"last_fetch_timestamp": null}
	}`), &s))

	require.Len(t, s.Entries, 1)
	require.Contains(t, s.Entries, "good")
	require.Nil(t, s.Metadata.LastFetchTimestamp)
}

// TestMemory_RoundTrip behaves like File.
func TestMemory_RoundTrip(t *testing.T) {
	m := NewMemory()
	_, err := m.Read()
	require.ErrorIs(t, err, ErrNoDump)

	require.NoError(t, m.Write(snapshotFixture()))
	got, err := m.Read()
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)

	require.NoError(t, m.Remove())
	_, err = m.Read()
	require.ErrorIs(t, err, ErrNoDump)
}
