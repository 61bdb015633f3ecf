package ce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyMostRecentWins(t *testing.T) {
	store := newVocabStore(t)
	require.True(t, store.Submit("there is a dog named 'Fido'", "test").Success())
	require.True(t, store.Submit("the dog 'Fido' has '3' as age", "test").Success())
	require.True(t, store.Submit("the dog 'Fido' has '4' as age", "test").Success())

	fido := store.InstanceByName("Fido", nil)
	fact := fido.Property("age")
	require.NotNil(t, fact)
	assert.Equal(t, "4", fact.Literal)
}

func TestPropertiesReverseChronological(t *testing.T) {
	store := newVocabStore(t)
	require.True(t, store.Submit("the dog 'Fido' has '3' as age and has '4' as age", "test").Success())

	facts := store.InstanceByName("Fido", nil).Properties("age")
	require.Len(t, facts, 2)
	assert.Equal(t, "4", facts[0].Literal)
	assert.Equal(t, "3", facts[1].Literal)
}

func TestPropertyLabelFolding(t *testing.T) {
	store := newVocabStore(t)
	require.True(t, store.Submit("the dog 'Fido' has '4' as age", "test").Success())

	fido := store.InstanceByName("Fido", nil)
	assert.NotNil(t, fido.Property("AGE"))
	assert.NotNil(t, fido.Property("  Age "))
	assert.Nil(t, fido.Property("weight"))
}

func TestPropertyStringAndInstance(t *testing.T) {
	store := newVocabStore(t)
	require.True(t, store.Submit("the dog 'Fido' chases the cat 'Tom'", "test").Success())

	fido := store.InstanceByName("Fido", nil)
	assert.Equal(t, "Tom", fido.PropertyString("chases"), "instance payloads render as names")

	target := fido.PropertyInstance("chases")
	require.NotNil(t, target)
	assert.Equal(t, "Tom", target.Name())

	require.True(t, store.Submit("the dog 'Fido' has '4' as age", "test").Success())
	assert.Nil(t, fido.PropertyInstance("age"), "literal facts have no instance payload")
}

func TestInstanceCERoundTrip(t *testing.T) {
	store := newVocabStore(t)
	require.True(t, store.Submit(
		"there is a dog named 'Fido' that has '4' as age and chases the cat 'Tom' and is expressed by 'the hound'",
		"test").Success())

	fresh := newVocabStore(t)
	for _, sentence := range store.CE()[len(store.Concepts()):] {
		require.True(t, fresh.Submit(sentence, "replay").Success(), "replay: %s", sentence)
	}

	original := store.InstanceByName("Fido", nil)
	replayed := fresh.InstanceByName("Fido", nil)
	require.NotNil(t, replayed)
	assert.Equal(t, original.CE(), replayed.CE())
	assert.Equal(t, "4", replayed.PropertyString("age"))
	assert.NotNil(t, fresh.InstanceByName("the hound", nil))
}

func TestGistFoldsRepeatedFacts(t *testing.T) {
	store := newVocabStore(t)
	require.True(t, store.Submit("the dog 'Fido' chases the cat 'Tom'", "test").Success())
	require.True(t, store.Submit("the dog 'Fido' chases the cat 'Tom'", "test").Success())

	gist := store.InstanceByName("Fido", nil).Gist()
	assert.Contains(t, gist, "chases the cat 'Tom' (2 times)")
}

func TestGistBareInstance(t *testing.T) {
	store := newVocabStore(t)
	require.True(t, store.Submit("there is an animal named 'Blob'", "test").Success())

	assert.Equal(t, "Blob is an animal.", store.InstanceByName("Blob", nil).Gist())
}

func TestAddSynonymDeduplicates(t *testing.T) {
	store := newVocabStore(t)
	require.True(t, store.Submit("there is a dog named 'Fido'", "test").Success())
	fido := store.InstanceByName("Fido", nil)

	fido.AddSynonym("Fido")
	fido.AddSynonym("the hound")
	fido.AddSynonym("The Hound")
	fido.AddSynonym("")
	assert.Equal(t, []string{"the hound"}, fido.Synonyms())
}
