package playbook

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewStore(filepath.Join(tmpDir, "Playbooks"), filepath.Join(tmpDir, "Exports"), logger)
}

func TestStore_Create(t *testing.T) {
	store := setupTestStore(t)

	p, err := store.Create("First Playbook", "operator", "desc", []string{"ref"})
	require.NoError(t, err)
	assert.Equal(t, "First Playbook", p.Name)

	// Persisted immediately
	loaded, err := store.LoadByName("First Playbook")
	require.NoError(t, err)
	assert.Equal(t, "operator", loaded.Author)
	assert.Equal(t, 0, loaded.StepCount())
}

func TestStore_Create_NameCollision(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Create("Duplicate", "op", "", nil)
	require.NoError(t, err)

	_, err = store.Create("Duplicate", "op", "", nil)
	assert.True(t, IsNameCollisionError(err))
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := setupTestStore(t)

	p, err := store.Create("Mutable", "op", "", nil)
	require.NoError(t, err)

	require.NoError(t, p.AppendStep(NewStep("aws_enumerate_s3_buckets", map[string]any{"region": "us-east-1"}, 3)))
	require.NoError(t, store.Save(p))

	loaded, err := store.LoadByName("Mutable")
	require.NoError(t, err)
	require.Equal(t, 1, loaded.StepCount())
	assert.Equal(t, "aws_enumerate_s3_buckets", loaded.Steps[0].Module)
	assert.Equal(t, 3, loaded.Steps[0].Wait)
}

func TestStore_Save_Overwrites(t *testing.T) {
	store := setupTestStore(t)

	p, err := store.Create("Overwrite", "op", "", nil)
	require.NoError(t, err)
	require.NoError(t, p.AppendStep(NewStep("a", nil, 0)))
	require.NoError(t, p.AppendStep(NewStep("b", nil, 0)))
	require.NoError(t, store.Save(p))

	require.NoError(t, p.RemoveStep(1))
	require.NoError(t, store.Save(p))

	loaded, err := store.LoadByName("Overwrite")
	require.NoError(t, err)
	require.Equal(t, 1, loaded.StepCount())
	assert.Equal(t, "b", loaded.Steps[0].Module)
}

func TestStore_Load_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.LoadByName("Ghost")
	assert.True(t, IsNotFoundError(err))
}

func TestStore_Load_RejectsPathTraversal(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Load("../outside.yml")
	assert.True(t, IsValidationError(err))
}

func TestStore_List(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Create("Bravo", "op", "", nil)
	require.NoError(t, err)
	_, err = store.Create("Alpha", "op", "", nil)
	require.NoError(t, err)

	playbooks, err := store.List()
	require.NoError(t, err)
	require.Len(t, playbooks, 2)
	assert.Equal(t, "Alpha", playbooks[0].Name)
	assert.Equal(t, "Bravo", playbooks[1].Name)
}

func TestStore_List_SkipsCorruptFiles(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Create("Valid", "op", "", nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "corrupt.yml"), []byte("{nope"), 0o644))

	playbooks, err := store.List()
	require.NoError(t, err)
	require.Len(t, playbooks, 1)
	assert.Equal(t, "Valid", playbooks[0].Name)
}

func TestStore_Delete(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Create("Doomed", "op", "", nil)
	require.NoError(t, err)

	require.NoError(t, store.Delete("Doomed"))

	_, err = store.LoadByName("Doomed")
	assert.True(t, IsNotFoundError(err))

	assert.True(t, IsNotFoundError(store.Delete("Doomed")))
}

func TestStore_Export_MasksParams(t *testing.T) {
	store := setupTestStore(t)

	p, err := store.Create("Secret Chain", "op", "", nil)
	require.NoError(t, err)
	require.NoError(t, p.AppendStep(NewStep("aws_establish_access", map[string]any{
		"access_key": "AKIA123",
		"secret":     "hunter2",
	}, 0)))
	require.NoError(t, store.Save(p))

	path, err := store.Export("Secret Chain", false)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
	assert.NotContains(t, string(data), "AKIA123")

	exported, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, MaskedValue, exported.Steps[0].Params["secret"])
	assert.Equal(t, MaskedValue, exported.Steps[0].Params["access_key"])
}

func TestStore_ExportImport_RoundTrip(t *testing.T) {
	store := setupTestStore(t)

	p, err := store.Create("Portable", "op", "round trips", []string{"ref"})
	require.NoError(t, err)
	require.NoError(t, p.AppendStep(NewStep("m365_exfil_mailbox", map[string]any{"mailbox": "ceo@corp.com"}, 4)))
	require.NoError(t, store.Save(p))

	path, err := store.Export("Portable", true)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Import into a fresh store round-trips all step data exactly.
	other := setupTestStore(t)
	imported, err := other.Import(data)
	require.NoError(t, err)
	assert.Equal(t, p.Name, imported.Name)
	require.Equal(t, 1, imported.StepCount())
	assert.Equal(t, "ceo@corp.com", imported.Steps[0].Params["mailbox"])
	assert.Equal(t, 4, imported.Steps[0].Wait)
}

func TestStore_Import_NameCollision(t *testing.T) {
	store := setupTestStore(t)

	p, err := store.Create("Taken", "op", "", nil)
	require.NoError(t, err)

	data, err := Encode(p)
	require.NoError(t, err)

	_, err = store.Import(data)
	assert.True(t, IsNameCollisionError(err))
}

func TestStore_Import_Malformed(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Import([]byte("PB_Name: [broken"))
	assert.True(t, IsParseError(err))
}
