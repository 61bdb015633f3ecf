package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nerica/cen/ce"
	"github.com/nerica/cen/interpreter"
	"github.com/nerica/cen/models"
)

// outcomeResponse is the JSON shape of one sentence outcome.
type outcomeResponse struct {
	Type     string `json:"type"`
	Sentence string `json:"sentence"`
	Text     string `json:"text,omitempty"`
	Error    string `json:"error,omitempty"`
}

func toOutcomeResponse(o ce.Outcome) outcomeResponse {
	return outcomeResponse{
		Type:     o.Type.String(),
		Sentence: o.Sentence,
		Text:     o.Text,
		Error:    o.ErrorMessage(),
	}
}

// conceptResponse is the JSON shape of a concept listing entry.
type conceptResponse struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Synonyms []string `json:"synonyms,omitempty"`
	CE       string   `json:"ce"`
	Gist     string   `json:"gist"`
}

// instanceResponse is the JSON shape of an instance listing entry.
type instanceResponse struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Concept string `json:"concept"`
	CE      string `json:"ce"`
	Gist    string `json:"gist"`
}

// handleSentences accepts newline-separated sentences, substitutes the
// {now}/{uid} placeholders, submits each in order, and returns the
// outcomes. No-match sentences fall through to the question interpreter.
func (s *Server) handleSentences(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "http:" + r.RemoteAddr
	}

	var outcomes []outcomeResponse
	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sentence := models.Substitute(line)
		outcome := s.submit(sentence, source)
		resp := toOutcomeResponse(outcome)

		if outcome.Type == ce.OutcomeNoMatch {
			if answer, err := interpreter.Ask(s.store, sentence); err == nil {
				resp.Text = answer
				resp.Error = ""
				resp.Type = "answer"
			} else if guess := interpreter.Guess(s.store, sentence, source); guess.Understood {
				resp = toOutcomeResponse(guess.Outcome)
			}
		}
		outcomes = append(outcomes, resp)
	}
	if err := scanner.Err(); err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, outcomes)
}

// submit runs one sentence through the store, journals it when a
// journal is attached, and broadcasts accepted sentences to WebSocket
// clients.
func (s *Server) submit(sentence, source string) ce.Outcome {
	var outcome ce.Outcome
	if s.journal != nil {
		outcome, _ = s.journal.Record(s.store, sentence, source)
	} else {
		outcome = s.store.Submit(sentence, source)
	}
	if outcome.Success() {
		s.broadcast(sentence)
	}
	return outcome
}

func (s *Server) handleConcepts(w http.ResponseWriter, r *http.Request) {
	var out []conceptResponse
	for _, c := range s.store.Concepts() {
		out = append(out, conceptResponse{
			ID: c.ID(), Name: c.Name(), Synonyms: c.Synonyms(), CE: c.CE(), Gist: c.Gist(),
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleConcept(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	c := s.store.ConceptByName(name)
	if c == nil {
		http.Error(w, "concept not found", http.StatusNotFound)
		return
	}
	writeJSON(w, conceptResponse{
		ID: c.ID(), Name: c.Name(), Synonyms: c.Synonyms(), CE: c.CE(), Gist: c.Gist(),
	})
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	conceptName := r.URL.Query().Get("concept")
	recursive := r.URL.Query().Get("recursive") == "true"
	var out []instanceResponse
	for _, instance := range s.store.Instances(conceptName, recursive) {
		conceptLabel := ""
		if c := instance.Concept(); c != nil {
			conceptLabel = c.Name()
		}
		out = append(out, instanceResponse{
			ID: instance.ID(), Name: instance.Name(), Concept: conceptLabel,
			CE: instance.CE(), Gist: instance.Gist(),
		})
	}
	writeJSON(w, out)
}

// handleCards returns the CE renderings of cards addressed to the named
// agent, one per line — the wire format peer listen policies poll for.
func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	agentName := r.URL.Query().Get("agent")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, card := range s.store.Instances("card", true) {
		if agentName != "" && !cardAddressedTo(s.store, card, agentName) {
			continue
		}
		w.Write([]byte(card.CE() + "\n"))
	}
}

func cardAddressedTo(store *ce.Store, card *ce.Instance, agentName string) bool {
	for _, f := range card.Properties("is to") {
		if f.IsLiteral() {
			continue
		}
		if target := store.InstanceByID(f.TargetID); target != nil &&
			strings.EqualFold(target.Name(), agentName) {
			return true
		}
	}
	return false
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.store.ResetAll()
	writeJSON(w, map[string]string{"status": "reset"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":    "ok",
		"store":     s.store.Name(),
		"concepts":  s.store.ConceptCount(),
		"instances": s.store.InstanceCount(),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
