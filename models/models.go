// Package models provides the bootstrap CE vocabulary and model-file
// loading. A model is a plain ordered list of CE sentences; every
// deployment loads Core before any domain sentences so that the reserved
// agent, card, policy, and rule concepts exist.
package models

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/nerica/cen/errors"
)

// Core is the bootstrap vocabulary. It defines the base entity hierarchy
// plus the reserved concepts the agent layer and rule engine depend on:
// agents, cards and their subtypes, policies, and rules.
var Core = []string{
	"conceptualise a ~ entity ~ E",
	"conceptualise a ~ timestamp ~ T that is an entity",
	"conceptualise an ~ agent ~ A that is an entity and has the value V as ~ address ~",
	"conceptualise an ~ individual ~ I that is an entity",
	"conceptualise a ~ card ~ C that is an entity and has the timestamp T as ~ timestamp ~ and has the value V as ~ content ~ and has the value W as ~ linked content ~ and has the value N as ~ number of keystrokes ~ and has the value S as ~ submit time ~",
	"conceptualise the card C ~ is to ~ the agent A and ~ is from ~ the individual I and ~ is in reply to ~ the card C1",
	"conceptualise a ~ tell card ~ T that is a card",
	"conceptualise an ~ ask card ~ A that is a card",
	"conceptualise a ~ gist card ~ G that is a card",
	"conceptualise an ~ nl card ~ N that is a card",
	"conceptualise a ~ confirm card ~ C that is a card",
	"conceptualise a ~ location ~ L that is an entity",
	"conceptualise a ~ rule ~ R that is an entity and has the value V as ~ instruction ~",
	"conceptualise a ~ policy ~ P that is an entity and has the value V as ~ enabled ~",
	"conceptualise the policy P ~ has target ~ the agent A",
	"conceptualise a ~ tell policy ~ T that is a policy",
	"conceptualise a ~ listen policy ~ L that is a policy",
	"conceptualise a ~ forwardall policy ~ F that is a policy and has the timestamp T as ~ start time ~ and has the value V as ~ all agents ~",
}

// Substitute replaces the {now} and {uid} placeholders at the submission
// boundary: {now} with the current unix timestamp and {uid} with a
// locally-unique card identifier. This is a caller-side convenience; the
// grammar itself only ever sees the substituted literal text.
func Substitute(sentence string) string {
	return SubstituteAt(sentence, time.Now())
}

// SubstituteAt is Substitute with an explicit clock, for tests.
func SubstituteAt(sentence string, now time.Time) string {
	if strings.Contains(sentence, "{now}") {
		sentence = strings.ReplaceAll(sentence, "{now}", strconv.FormatInt(now.Unix(), 10))
	}
	if strings.Contains(sentence, "{uid}") {
		sentence = strings.ReplaceAll(sentence, "{uid}", NewCardID())
	}
	return sentence
}

// NewCardID returns a locally-unique card identifier.
func NewCardID() string {
	return "msg_" + uuid.NewString()[:8]
}

// Manifest names the sentence files of a model in load order.
type Manifest struct {
	Name  string   `yaml:"name"`
	Files []string `yaml:"files"`
}

// ReadManifest parses a manifest.yaml.
func ReadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read model manifest")
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, "failed to parse model manifest")
	}
	if len(m.Files) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "model manifest lists no files")
	}
	return &m, nil
}

// ReadSentences reads one CE sentence file: one sentence per line, blank
// lines and lines starting with "#" or "--" skipped.
func ReadSentences(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open model file")
	}
	defer f.Close()

	var sentences []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "--") {
			continue
		}
		sentences = append(sentences, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read model file")
	}
	return sentences, nil
}

// Load reads a model from a path. A directory is expected to contain a
// manifest.yaml naming its sentence files in order; a plain file is read
// directly as a sentence list.
func Load(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat model path")
	}
	if !info.IsDir() {
		return ReadSentences(path)
	}

	manifest, err := ReadManifest(filepath.Join(path, "manifest.yaml"))
	if err != nil {
		return nil, err
	}
	var sentences []string
	for _, name := range manifest.Files {
		part, err := ReadSentences(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		sentences = append(sentences, part...)
	}
	return sentences, nil
}
