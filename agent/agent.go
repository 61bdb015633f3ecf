// Package agent implements the multi-agent card messaging layer on top
// of the CE core. An agent wraps a store with a name, turns raw input
// into "tell card" instances addressed to itself, and runs a polling
// loop that handles unseen cards and enacts the store's policy
// instances (tell, listen, forwardall).
package agent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nerica/cen/ce"
	"github.com/nerica/cen/interpreter"
	"github.com/nerica/cen/logger"
	"github.com/nerica/cen/models"
)

// Reserved concept and label names from the CORE vocabulary.
const (
	cardConcept       = "card"
	tellCardConcept   = "tell card"
	askCardConcept    = "ask card"
	gistCardConcept   = "gist card"
	agentConcept      = "agent"
	labelIsTo         = "is to"
	labelIsFrom       = "is from"
	labelContent      = "content"
	labelAddress      = "address"
	labelEnabled      = "enabled"
	labelTarget       = "has target"
	labelAllAgents    = "all agents"
	labelStartTime    = "start time"
	labelTimestamp    = "timestamp"
	policyTell        = "tell policy"
	policyListen      = "listen policy"
	policyForwardall  = "forwardall policy"
	defaultHTTPWindow = 5 * time.Second
)

// Agent handles cards addressed to a named identity within a store.
type Agent struct {
	store   *ce.Store
	name    string
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.SugaredLogger

	mu      sync.Mutex
	handled map[int]bool // card instance IDs already processed
	sent    map[int]bool // card instance IDs already forwarded
}

// New creates an agent over the store. pollInterval paces the Run loop.
func New(store *ce.Store, name string, pollInterval time.Duration) *Agent {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Agent{
		store:   store,
		name:    name,
		client:  &http.Client{Timeout: defaultHTTPWindow},
		limiter: rate.NewLimiter(rate.Every(pollInterval), 1),
		log:     logger.Logger,
		handled: map[int]bool{},
		sent:    map[int]bool{},
	}
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Store returns the agent's knowledge store.
func (a *Agent) Store() *ce.Store { return a.store }

// Put wraps raw input in a tell card addressed to this agent and submits
// the card sentence. The card content is handled on the next poll.
func (a *Agent) Put(text, from string) ce.Outcome {
	sentence := fmt.Sprintf(
		"there is a tell card named '%s' that is to the agent '%s' and is from the individual '%s' and has the timestamp '{now}' as timestamp and has '%s' as content",
		models.NewCardID(), ce.EscapeLiteral(a.name), ce.EscapeLiteral(from), ce.EscapeLiteral(text))
	return a.store.Submit(models.Substitute(sentence), "agent:"+a.name)
}

// Run polls for cards and enacts policies until the context is
// cancelled. Pacing comes from the agent's rate limiter.
func (a *Agent) Run(ctx context.Context) error {
	a.log.Infow("agent polling started", "agent", a.name)
	for {
		if err := a.limiter.Wait(ctx); err != nil {
			a.log.Infow("agent polling stopped", "agent", a.name)
			return ctx.Err()
		}
		a.PollOnce()
	}
}

// PollOnce handles every unseen card addressed to this agent and then
// enacts policies. It returns the number of cards handled.
func (a *Agent) PollOnce() int {
	count := 0
	for _, card := range a.store.Instances(cardConcept, true) {
		a.mu.Lock()
		seen := a.handled[card.ID()]
		if !seen {
			a.handled[card.ID()] = true
		}
		a.mu.Unlock()
		if seen || !a.addressedToMe(card) {
			continue
		}
		a.handleCard(card)
		count++
	}
	a.enactPolicies()
	return count
}

func (a *Agent) addressedToMe(card *ce.Instance) bool {
	for _, f := range card.Properties(labelIsTo) {
		if f.IsLiteral() {
			continue
		}
		if target := a.store.InstanceByID(f.TargetID); target != nil &&
			strings.EqualFold(target.Name(), a.name) {
			return true
		}
	}
	return false
}

// handleCard dispatches on the card's concept: tell cards have their
// content submitted as a sentence; ask cards are answered with a gist
// card linked back via "is in reply to".
func (a *Agent) handleCard(card *ce.Instance) {
	concept := card.Concept()
	if concept == nil {
		return
	}
	content := card.PropertyString(labelContent)
	if content == "" {
		return
	}
	source := "card:" + card.Name()

	switch strings.ToLower(concept.Name()) {
	case tellCardConcept:
		outcome := a.store.Submit(content, source)
		if outcome.Type == ce.OutcomeNoMatch {
			// Not CE: try the NL guesser before giving up
			interpreter.Guess(a.store, content, source)
		}
	case askCardConcept:
		answer, err := interpreter.Ask(a.store, content)
		if err != nil {
			answer = "Sorry - I don't know the answer to that."
		}
		a.reply(card, answer)
	default:
		// gist/nl/confirm cards carry information for humans; store only
	}
}

// reply emits a gist card back to the asking individual, linked to the
// original card.
func (a *Agent) reply(card *ce.Instance, answer string) {
	from := card.PropertyString(labelIsFrom)
	if from == "" {
		return
	}
	sentence := fmt.Sprintf(
		"there is a gist card named '%s' that is to the individual '%s' and is from the individual '%s' and has the timestamp '{now}' as timestamp and has '%s' as content and is in reply to the card '%s'",
		models.NewCardID(), ce.EscapeLiteral(from), ce.EscapeLiteral(a.name),
		ce.EscapeLiteral(answer), ce.EscapeLiteral(card.Name()))
	a.store.Submit(models.Substitute(sentence), "agent:"+a.name)
}

// enactPolicies walks the enabled policy instances and performs their
// transport actions.
func (a *Agent) enactPolicies() {
	for _, policy := range a.store.Instances(policyTell, false) {
		if enabled(policy) {
			a.enactTell(policy)
		}
	}
	for _, policy := range a.store.Instances(policyListen, false) {
		if enabled(policy) {
			a.enactListen(policy)
		}
	}
	for _, policy := range a.store.Instances(policyForwardall, false) {
		if enabled(policy) {
			a.enactForwardall(policy)
		}
	}
}

func enabled(policy *ce.Instance) bool {
	return strings.EqualFold(policy.PropertyString(labelEnabled), "true")
}

// enactTell forwards every not-yet-forwarded card to the policy's target
// agent.
func (a *Agent) enactTell(policy *ce.Instance) {
	target := policy.PropertyInstance(labelTarget)
	if target == nil {
		return
	}
	address := target.PropertyString(labelAddress)
	if address == "" {
		return
	}
	for _, card := range a.store.Instances(cardConcept, true) {
		a.mu.Lock()
		sent := a.sent[card.ID()]
		if !sent {
			a.sent[card.ID()] = true
		}
		a.mu.Unlock()
		if sent {
			continue
		}
		a.forward(card, target.Name(), address)
	}
}

// enactListen polls a remote agent's cards endpoint and submits whatever
// sentences come back.
func (a *Agent) enactListen(policy *ce.Instance) {
	target := policy.PropertyInstance(labelTarget)
	if target == nil {
		return
	}
	address := target.PropertyString(labelAddress)
	if address == "" {
		return
	}
	query := url.Values{"agent": []string{a.name}}
	resp, err := a.client.Get(strings.TrimSuffix(address, "/") + "/cards?" + query.Encode())
	if err != nil {
		a.log.Warnw("listen policy poll failed", "agent", a.name, "peer", target.Name(), "error", err)
		return
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			a.store.Submit(line, "listen:"+target.Name())
		}
	}
}

// enactForwardall forwards stored cards to every known agent except this
// one (the "all agents" flag), or to the policy's target otherwise.
// Cards whose timestamp predates the policy's start time are left alone.
func (a *Agent) enactForwardall(policy *ce.Instance) {
	var targets []*ce.Instance
	if strings.EqualFold(policy.PropertyString(labelAllAgents), "true") {
		for _, other := range a.store.Instances(agentConcept, false) {
			if !strings.EqualFold(other.Name(), a.name) {
				targets = append(targets, other)
			}
		}
	} else if target := policy.PropertyInstance(labelTarget); target != nil {
		targets = append(targets, target)
	}
	start, hasStart := policyStartTime(policy)
	for _, target := range targets {
		address := target.PropertyString(labelAddress)
		if address == "" {
			continue
		}
		for _, card := range a.store.Instances(cardConcept, true) {
			if hasStart && cardPredates(card, start) {
				continue
			}
			a.mu.Lock()
			sent := a.sent[card.ID()]
			if !sent {
				a.sent[card.ID()] = true
			}
			a.mu.Unlock()
			if sent {
				continue
			}
			a.forward(card, target.Name(), address)
		}
	}
}

// policyStartTime reads a forwardall policy's start time as unix seconds.
func policyStartTime(policy *ce.Instance) (int64, bool) {
	raw := policy.PropertyString(labelStartTime)
	if raw == "" {
		return 0, false
	}
	start, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return start, true
}

// cardPredates reports whether the card's timestamp provably predates
// the start time. Cards without a parseable timestamp are not filtered.
func cardPredates(card *ce.Instance, start int64) bool {
	ts, err := strconv.ParseInt(card.PropertyString(labelTimestamp), 10, 64)
	if err != nil {
		return false
	}
	return ts < start
}

// forward POSTs a card's CE rendering to a peer agent's sentences
// endpoint. Failures are logged and the card is retried on a later poll.
func (a *Agent) forward(card *ce.Instance, peerName, address string) {
	endpoint := strings.TrimSuffix(address, "/") + "/sentences"
	resp, err := a.client.Post(endpoint, "text/plain", strings.NewReader(card.CE()))
	if err != nil {
		a.log.Warnw("card forward failed",
			"agent", a.name, "peer", peerName, "card", card.Name(), "error", err)
		a.mu.Lock()
		a.sent[card.ID()] = false
		a.mu.Unlock()
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	a.log.Debugw("card forwarded", "agent", a.name, "peer", peerName, "card", card.Name())
}
