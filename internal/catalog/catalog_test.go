package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "cards.json", `[
		{"id": "OGN-170", "name": "Shadow Wolf", "set_name": "Origins", "price": 1.25},
		{"id": "OGN-002", "name": "Flame Drake", "number": "2"}
	]`)

	cards, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "Shadow Wolf", cards[0].Name)
	assert.InDelta(t, 1.25, cards[0].Price, 1e-9)
	// number derived from the id when absent
	assert.Equal(t, "170", cards[0].Number)
	assert.Equal(t, "2", cards[1].Number)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "cards.yaml", `
- id: OGN-170
  name: Shadow Wolf
  set_name: Origins
- id: OGN-171
  name: Crystal Golem
`)
	cards, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "Crystal Golem", cards[1].Name)
	assert.Equal(t, "171", cards[1].Number)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "cards.txt", "whatever")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported catalog format")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeFile(t, "bad.json", "{not json")
	_, err := Load(path)
	require.Error(t, err)
}

func TestStoreReplaceBumpsVersion(t *testing.T) {
	s := NewStore()
	assert.Equal(t, uint64(0), s.Snapshot().Version)

	s.Replace([]Card{{ID: "OGN-1"}})
	snap := s.Snapshot()
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, 1, s.Len())

	s.Replace(nil)
	assert.Equal(t, uint64(2), s.Snapshot().Version)
	assert.Equal(t, 0, s.Len())
}

func TestStoreSnapshotIsolation(t *testing.T) {
	s := NewStore()
	input := []Card{{ID: "OGN-1", Name: "Shadow Wolf"}}
	s.Replace(input)

	snap := s.Snapshot()
	input[0].Name = "mutated"
	assert.Equal(t, "Shadow Wolf", snap.Cards[0].Name)

	s.Replace([]Card{{ID: "OGN-2"}})
	assert.Equal(t, "OGN-1", snap.Cards[0].ID)
	assert.Equal(t, uint64(1), snap.Version)
}

func TestLoadInto(t *testing.T) {
	path := writeFile(t, "cards.json", `[{"id": "OGN-170", "name": "Shadow Wolf"}]`)
	s := NewStore()
	n, err := LoadInto(s, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, s.Len())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "cards.json")
	cards := []Card{{ID: "OGN-170", Name: "Shadow Wolf", Number: "170", Price: 0.5}}
	require.NoError(t, Save(path, cards))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cards, loaded)
}
