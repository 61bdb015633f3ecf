package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerica/cen/ce"
)

func TestCoreVocabularyLoadsCleanly(t *testing.T) {
	store := ce.NewStore("test")
	for _, outcome := range store.LoadModel(Core, "core") {
		require.True(t, outcome.Success(), "core sentence failed: %s: %s",
			outcome.Sentence, outcome.ErrorMessage())
	}

	for _, name := range []string{
		"entity", "agent", "individual", "card", "tell card", "ask card",
		"gist card", "rule", "policy", "tell policy", "listen policy", "forwardall policy",
	} {
		assert.NotNil(t, store.ConceptByName(name), "missing core concept %s", name)
	}

	card := store.ConceptByName("card")
	assert.True(t, len(card.RelationshipSlots()) >= 3, "card carries is to / is from / is in reply to")
}

func TestSubstituteAt(t *testing.T) {
	now := time.Unix(1700000000, 0)

	out := SubstituteAt("has the timestamp '{now}' as timestamp", now)
	assert.Equal(t, "has the timestamp '1700000000' as timestamp", out)

	out = SubstituteAt("named '{uid}'", now)
	assert.NotContains(t, out, "{uid}")
	assert.Contains(t, out, "msg_")

	plain := "there is a dog named 'Fido'"
	assert.Equal(t, plain, SubstituteAt(plain, now))
}

func TestNewCardIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := NewCardID()
		assert.False(t, seen[id], "duplicate card id %s", id)
		seen[id] = true
	}
}

func TestReadSentencesSkipsCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ce")
	require.NoError(t, os.WriteFile(path, []byte(
		"# solar system\n"+
			"\n"+
			"conceptualise a ~ planet ~ P\n"+
			"-- editor note\n"+
			"  there is a planet named 'Mars'  \n"), 0o644))

	sentences, err := ReadSentences(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"conceptualise a ~ planet ~ P",
		"there is a planet named 'Mars'",
	}, sentences)
}

func TestLoadDirectoryFollowsManifestOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(
		"name: solar\nfiles:\n  - concepts.ce\n  - instances.ce\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "concepts.ce"),
		[]byte("conceptualise a ~ planet ~ P\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "instances.ce"),
		[]byte("there is a planet named 'Mars'\n"), 0o644))

	sentences, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"conceptualise a ~ planet ~ P",
		"there is a planet named 'Mars'",
	}, sentences)
}

func TestLoadPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ce")
	require.NoError(t, os.WriteFile(path, []byte("conceptualise a ~ planet ~ P\n"), 0o644))

	sentences, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, sentences, 1)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	// Directory without a manifest
	_, err = Load(t.TempDir())
	assert.Error(t, err)
}

func TestReadManifestRejectsEmptyFileList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: empty\nfiles: []\n"), 0o644))

	_, err := ReadManifest(path)
	assert.Error(t, err)
}
