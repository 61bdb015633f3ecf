package ce

import (
	"sync"

	"go.uber.org/zap"

	"github.com/nerica/cen/logger"
)

// Store owns every concept and instance in one knowledge graph. It
// assigns monotonic IDs (never reused, independent numbering spaces for
// concepts and instances), provides name/synonym/ID lookups and
// ancestor/descendant traversal, and is the single mutating entry point
// via Submit.
//
// All cross-entity navigation goes through the store; concepts and
// instances hold a non-owning back-reference to it. The store is safe
// for concurrent use: Submit and ResetAll take the write lock, every
// read accessor (on the store and on the concepts and instances it
// hands out) takes the read lock. Mutation must go through the
// documented methods — ID allocation, slot authorization, and rule
// propagation are side effects of those methods.
type Store struct {
	mu   sync.RWMutex
	name string
	log  *zap.SugaredLogger

	concepts      map[int]*Concept
	conceptOrder  []int
	instances     map[int]*Instance
	instanceOrder []int

	nextConceptID  int
	nextInstanceID int
}

// NewStore creates an empty knowledge graph.
func NewStore(name string) *Store {
	s := &Store{name: name, log: logger.Logger}
	s.reset()
	return s
}

// SetLogger replaces the store's logger; nil restores the global logger.
func (s *Store) SetLogger(log *zap.SugaredLogger) {
	if log == nil {
		log = logger.Logger
	}
	s.mu.Lock()
	s.log = log
	s.mu.Unlock()
}

// Name returns the store's name.
func (s *Store) Name() string { return s.name }

func (s *Store) reset() {
	s.concepts = map[int]*Concept{}
	s.conceptOrder = nil
	s.instances = map[int]*Instance{}
	s.instanceOrder = nil
	// IDs restart on reset; within a store's lifetime they are never reused
	s.nextConceptID = 0
	s.nextInstanceID = 0
}

// ResetAll drops every concept and instance. Used by administrative
// tooling; there is no partial deletion.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.log.Infow("knowledge graph reset", "store", s.name)
}

// Submit parses one CE sentence and applies it to the graph, running to
// completion (parse, mutate, rule-fire) before returning. The source tag
// is recorded on every fact and provenance entry the sentence produces.
func (s *Store) Submit(sentence, source string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome := s.parse(sentence, source)
	if outcome.Err != nil && outcome.Type != OutcomeNoMatch {
		s.log.Debugw("sentence rejected",
			"store", s.name,
			"sentence", sentence,
			"error", outcome.Err.Error())
	}
	return outcome
}

// LoadModel applies a list of CE sentences in order, returning one
// outcome per sentence. Model files are plain sentence lists; any
// deployment loads the CORE vocabulary (models.Core) before its domain
// sentences.
func (s *Store) LoadModel(sentences []string, source string) []Outcome {
	outcomes := make([]Outcome, 0, len(sentences))
	for _, sentence := range sentences {
		outcomes = append(outcomes, s.Submit(sentence, source))
	}
	return outcomes
}

// Concepts returns every concept in creation order.
func (s *Store) Concepts() []*Concept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conceptsAll()
}

func (s *Store) conceptsAll() []*Concept {
	out := make([]*Concept, 0, len(s.conceptOrder))
	for _, id := range s.conceptOrder {
		out = append(out, s.concepts[id])
	}
	return out
}

// ConceptByID returns the concept with the given ID, or nil.
func (s *Store) ConceptByID(id int) *Concept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.concepts[id]
}

func (s *Store) conceptByID(id int) *Concept {
	return s.concepts[id]
}

// ConceptByName returns the concept whose name or synonym matches
// case-insensitively, or nil.
func (s *Store) ConceptByName(name string) *Concept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conceptByName(name)
}

func (s *Store) conceptByName(name string) *Concept {
	folded := foldLabel(name)
	if folded == "" {
		return nil
	}
	for _, id := range s.conceptOrder {
		c := s.concepts[id]
		if foldLabel(c.name) == folded {
			return c
		}
		for _, syn := range c.synonyms {
			if foldLabel(syn) == folded {
				return c
			}
		}
	}
	return nil
}

// InstanceByID returns the instance with the given ID, or nil.
func (s *Store) InstanceByID(id int) *Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instances[id]
}

func (s *Store) instanceByID(id int) *Instance {
	return s.instances[id]
}

// InstanceByName returns the first instance whose name or synonym
// matches case-insensitively, optionally narrowed to a concept (matching
// the concept exactly or as an ancestor of the instance's concept).
func (s *Store) InstanceByName(name string, concept *Concept) *Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instanceByName(name, concept)
}

func (s *Store) instanceByName(name string, concept *Concept) *Instance {
	folded := foldLabel(name)
	for _, id := range s.instanceOrder {
		instance := s.instances[id]
		if !instance.matchesName(folded) {
			continue
		}
		if concept == nil {
			return instance
		}
		if ic := s.conceptByID(instance.conceptID); ic != nil && ic.hasAncestor(concept) {
			return instance
		}
	}
	return nil
}

// Instances lists instances. An empty concept name returns all
// instances; otherwise exact-type instances of the named concept, or,
// with recursive set, instances of the concept and all its descendants.
func (s *Store) Instances(conceptName string, recursive bool) []*Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instancesNamed(conceptName, recursive)
}

func (s *Store) instancesNamed(conceptName string, recursive bool) []*Instance {
	if conceptName == "" {
		out := make([]*Instance, 0, len(s.instanceOrder))
		for _, id := range s.instanceOrder {
			out = append(out, s.instances[id])
		}
		return out
	}
	concept := s.conceptByName(conceptName)
	if concept == nil {
		return nil
	}
	var out []*Instance
	for _, id := range s.instanceOrder {
		instance := s.instances[id]
		if instance.conceptID == concept.id {
			out = append(out, instance)
			continue
		}
		if recursive {
			if ic := s.conceptByID(instance.conceptID); ic != nil && ic.hasAncestor(concept) {
				out = append(out, instance)
			}
		}
	}
	return out
}

// CE renders the whole graph as canonical CE, concepts first then
// instances, one entity per line. This is the de facto serialization
// contract between cooperating nodes.
func (s *Store) CE() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, id := range s.conceptOrder {
		out = append(out, s.concepts[id].ce())
	}
	for _, id := range s.instanceOrder {
		out = append(out, s.instances[id].ce())
	}
	return out
}

// createConcept allocates an ID and registers a new concept. Callers
// must have checked name uniqueness first.
func (s *Store) createConcept(name string) *Concept {
	s.nextConceptID++
	c := &Concept{store: s, id: s.nextConceptID, name: name}
	s.concepts[c.id] = c
	s.conceptOrder = append(s.conceptOrder, c.id)
	return c
}

// createInstance allocates an ID and registers a new instance of the
// exact concept.
func (s *Store) createInstance(name string, concept *Concept) *Instance {
	s.nextInstanceID++
	instance := &Instance{store: s, id: s.nextInstanceID, name: name, conceptID: concept.id}
	s.instances[instance.id] = instance
	s.instanceOrder = append(s.instanceOrder, instance.id)
	return instance
}

// findInstanceExact returns the instance with the given name whose exact
// concept matches, or nil. This is the idempotency check for "there is"
// sentences: same name and same concept means re-creation is a no-op.
func (s *Store) findInstanceExact(concept *Concept, name string) *Instance {
	folded := foldLabel(name)
	for _, id := range s.instanceOrder {
		instance := s.instances[id]
		if instance.conceptID == concept.id && instance.matchesName(folded) {
			return instance
		}
	}
	return nil
}

// ConceptCount returns the number of concepts in the graph.
func (s *Store) ConceptCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conceptOrder)
}

// InstanceCount returns the number of instances in the graph.
func (s *Store) InstanceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instanceOrder)
}
