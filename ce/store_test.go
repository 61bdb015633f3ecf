package ce

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConceptByNameFoldsAndMatchesSynonyms(t *testing.T) {
	store := NewStore("test")
	require.True(t, store.Submit("conceptualise a ~ road vehicle ~ V that ~ is expressed by ~ 'motor'", "test").Success())

	assert.NotNil(t, store.ConceptByName("Road  Vehicle"))
	assert.NotNil(t, store.ConceptByName("MOTOR"))
	assert.Nil(t, store.ConceptByName(""))
	assert.Nil(t, store.ConceptByName("bicycle"))
}

func TestInstancesFiltering(t *testing.T) {
	store := newVocabStore(t)
	require.True(t, store.Submit("there is a dog named 'Fido'", "test").Success())
	require.True(t, store.Submit("there is a cat named 'Tom'", "test").Success())
	require.True(t, store.Submit("there is an animal named 'Blob'", "test").Success())

	assert.Len(t, store.Instances("", false), 3)
	assert.Len(t, store.Instances("dog", false), 1)
	assert.Len(t, store.Instances("animal", false), 1, "exact match excludes subtypes")
	assert.Len(t, store.Instances("animal", true), 3, "recursive includes subtypes")
	assert.Nil(t, store.Instances("wombat", true))
}

func TestInstanceByNameNarrowedByConcept(t *testing.T) {
	store := newVocabStore(t)
	require.True(t, store.Submit("there is a dog named 'Rex'", "test").Success())
	require.True(t, store.Submit("there is a cat named 'Rex'", "test").Success())

	dog := store.ConceptByName("dog")
	cat := store.ConceptByName("cat")
	animal := store.ConceptByName("animal")

	assert.Equal(t, "dog", store.InstanceByName("Rex", dog).Concept().Name())
	assert.Equal(t, "cat", store.InstanceByName("Rex", cat).Concept().Name())
	// Narrowing by the shared ancestor returns the first registered match
	assert.Equal(t, "dog", store.InstanceByName("rex", animal).Concept().Name())
	assert.Nil(t, store.InstanceByName("Fido", nil))
}

func TestIDsAreMonotonicAndIndependent(t *testing.T) {
	store := newVocabStore(t)
	require.True(t, store.Submit("there is a dog named 'Fido'", "test").Success())

	// Concept and instance numbering overlap; they are separate spaces.
	assert.Equal(t, 1, store.InstanceByName("Fido", nil).ID())
	assert.Equal(t, 1, store.ConceptByName("animal").ID())
	require.True(t, store.Submit("there is a cat named 'Tom'", "test").Success())
	assert.Equal(t, 2, store.InstanceByName("Tom", nil).ID())
}

func TestResetAll(t *testing.T) {
	store := newVocabStore(t)
	require.True(t, store.Submit("there is a dog named 'Fido'", "test").Success())

	store.ResetAll()
	assert.Zero(t, store.ConceptCount())
	assert.Zero(t, store.InstanceCount())
	assert.Nil(t, store.ConceptByName("dog"))

	// The store is usable again after a reset
	require.True(t, store.Submit("conceptualise a ~ dog ~ D", "test").Success())
	assert.Equal(t, 1, store.ConceptCount())
}

func TestLoadModelReturnsPerSentenceOutcomes(t *testing.T) {
	store := NewStore("test")
	outcomes := store.LoadModel([]string{
		"conceptualise a ~ dog ~ D",
		"there is a wombat named 'W'",
		"there is a dog named 'Fido'",
	}, "model")

	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Success())
	assert.Equal(t, OutcomeFailed, outcomes[1].Type)
	assert.True(t, outcomes[2].Success())
	assert.Equal(t, 1, store.InstanceCount())
}

func TestStoreCEListsConceptsThenInstances(t *testing.T) {
	store := newVocabStore(t)
	require.True(t, store.Submit("there is a dog named 'Fido'", "test").Success())

	lines := store.CE()
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "conceptualise an ~ animal ~")
	assert.Contains(t, lines[3], "there is a dog named 'Fido'")
}

func TestConcurrentSubmitAndRead(t *testing.T) {
	store := newVocabStore(t)

	const writes = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for n := 0; n < writes; n++ {
			store.Submit(fmt.Sprintf("there is a dog named 'd%d' that has '%d' as age", n, n), "writer")
		}
	}()
	go func() {
		defer wg.Done()
		for n := 0; n < writes; n++ {
			for _, instance := range store.Instances("animal", true) {
				instance.CE()
				instance.PropertyString("age")
			}
			store.InstanceByName("d1", store.ConceptByName("dog"))
			store.CE()
		}
	}()
	wg.Wait()

	assert.Equal(t, writes, store.InstanceCount())
}
