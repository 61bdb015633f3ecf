package ce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRuleStore extends the animal vocabulary with the rule concept and an
// inverse slot on cat so fired facts have somewhere to land.
func newRuleStore(t *testing.T) *Store {
	t.Helper()
	store := newVocabStore(t)
	for _, sentence := range []string{
		"conceptualise a ~ rule ~ R that has the value V as ~ instruction ~",
		"conceptualise the cat C ~ is chased by ~ the dog D",
	} {
		require.True(t, store.Submit(sentence, "test").Success(), "setup: %s", sentence)
	}
	return store
}

func addRule(t *testing.T, store *Store, name, instruction string) {
	t.Helper()
	outcome := store.Submit(
		"there is a rule named '"+name+"' that has '"+instruction+"' as instruction", "test")
	require.True(t, outcome.Success(), outcome.ErrorMessage())
}

func TestRuleFiresInverseRelationship(t *testing.T) {
	store := newRuleStore(t)
	addRule(t, store, "r1", "if the dog D chases the cat C then the cat C is chased by the dog D")

	require.True(t, store.Submit("the dog 'Fido' chases the cat 'Tom'", "test").Success())

	tom := store.InstanceByName("Tom", nil)
	fido := store.InstanceByName("Fido", nil)
	fact := tom.Property("is chased by")
	require.NotNil(t, fact, "the rule writes the inverse fact onto the object")
	assert.Equal(t, fido.ID(), fact.TargetID)
	assert.Equal(t, "rule:r1", fact.Source)
}

func TestRuleInferenceIsSingleHop(t *testing.T) {
	store := newRuleStore(t)
	addRule(t, store, "r1", "if the dog D chases the cat C then the cat C is chased by the dog D")
	addRule(t, store, "r2", "if the cat C is chased by the dog D then the dog D chases the cat C")

	require.True(t, store.Submit("the dog 'Fido' chases the cat 'Tom'", "test").Success())

	// r1 fires off the original write; its output must not trigger r2.
	fido := store.InstanceByName("Fido", nil)
	tom := store.InstanceByName("Tom", nil)
	assert.Len(t, fido.Properties("chases"), 1)
	assert.Len(t, tom.Properties("is chased by"), 1)
}

func TestRuleMatchesObjectAncestor(t *testing.T) {
	store := newRuleStore(t)
	// The if-clause names animal; a write toward a cat must still match.
	require.True(t, store.Submit("conceptualise the dog D ~ fears ~ the animal A", "test").Success())
	require.True(t, store.Submit("conceptualise the animal A ~ is feared by ~ the dog D", "test").Success())
	addRule(t, store, "r1", "if the dog D fears the animal A then the animal A is feared by the dog D")

	require.True(t, store.Submit("the dog 'Fido' fears the cat 'Tom'", "test").Success())
	assert.NotNil(t, store.InstanceByName("Tom", nil).Property("is feared by"))
}

func TestRuleDoesNotFireOnLabelMismatch(t *testing.T) {
	store := newRuleStore(t)
	require.True(t, store.Submit("conceptualise the dog D ~ fears ~ the animal A", "test").Success())
	addRule(t, store, "r1", "if the dog D fears the animal A then the cat C is chased by the dog D")

	require.True(t, store.Submit("the dog 'Fido' chases the cat 'Tom'", "test").Success())
	assert.Nil(t, store.InstanceByName("Tom", nil).Property("is chased by"))
}

func TestRuleValueForm(t *testing.T) {
	store := NewStore("test")
	for _, sentence := range []string{
		"conceptualise a ~ rule ~ R that has the value V as ~ instruction ~",
		"conceptualise a ~ person ~ P",
		"conceptualise a ~ employer ~ E",
		"conceptualise the person P that has the employer E as ~ works for ~",
		"conceptualise the employer E that has the person P as ~ employs ~",
	} {
		require.True(t, store.Submit(sentence, "test").Success(), "setup: %s", sentence)
	}
	addRule(t, store, "r1",
		"if the person P has the employer E as works for then the employer E has the person P as employs")

	require.True(t, store.Submit("the person 'Fred' has the employer 'Acme' as works for", "test").Success())

	acme := store.InstanceByName("Acme", nil)
	fact := acme.Property("employs")
	require.NotNil(t, fact)
	assert.Equal(t, FactValue, fact.Kind)
	assert.Equal(t, store.InstanceByName("Fred", nil).ID(), fact.TargetID)
}

func TestMalformedRuleInstructionIsSkipped(t *testing.T) {
	store := newRuleStore(t)
	addRule(t, store, "broken", "whenever a dog runs do something")
	addRule(t, store, "r1", "if the dog D chases the cat C then the cat C is chased by the dog D")

	outcome := store.Submit("the dog 'Fido' chases the cat 'Tom'", "test")
	require.True(t, outcome.Success(), "a malformed rule never surfaces to the submitter")
	assert.NotNil(t, store.InstanceByName("Tom", nil).Property("is chased by"))
}

func TestParseRuleInstruction(t *testing.T) {
	tests := []struct {
		name        string
		instruction string
		ok          bool
	}{
		{"relationship form", "if the dog D chases the cat C then the cat C is chased by the dog D", true},
		{"tilde-wrapped labels", "if the dog D ~ chases ~ the cat C then the cat C ~ is chased by ~ the dog D", true},
		{"value form", "if the person P has the employer E as works for then the employer E has the person P as employs", true},
		{"trailing period", "if the dog D chases the cat C then the cat C is chased by the dog D.", true},
		{"missing then", "if the dog D chases the cat C", false},
		{"not a rule", "the dog D chases the cat C", false},
		{"empty", "", false},
		{"missing variable", "if the dog chases the cat then the cat is chased by the dog", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			template := parseRuleInstruction(tt.instruction)
			if tt.ok {
				assert.NotNil(t, template)
			} else {
				assert.Nil(t, template)
			}
		})
	}
}

func TestIsRuleVar(t *testing.T) {
	assert.True(t, isRuleVar(token{text: "C"}))
	assert.True(t, isRuleVar(token{text: "C1"}))
	assert.True(t, isRuleVar(token{text: "ABC"}))
	assert.False(t, isRuleVar(token{text: "cat"}))
	assert.False(t, isRuleVar(token{text: "CHASED"}))
	assert.False(t, isRuleVar(token{text: "C", quoted: true}))
	assert.False(t, isRuleVar(token{text: "1C"}))
	assert.False(t, isRuleVar(token{text: ""}))
}
