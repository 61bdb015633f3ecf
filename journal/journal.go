// Package journal provides SQLite-backed persistence for a CE store: an
// append-only log of every submitted sentence, replayable to rebuild the
// graph, plus canonical-CE snapshots. The sentence text itself is the
// only persisted representation; there is no binary format.
package journal

import (
	"bufio"
	"database/sql"
	"io"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/nerica/cen/ce"
	"github.com/nerica/cen/errors"
	"github.com/nerica/cen/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS sentences (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	ts        DATETIME NOT NULL,
	source    TEXT NOT NULL,
	sentence  TEXT NOT NULL,
	outcome   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sentences_source ON sentences(source);
`

const (
	insertQuery = `INSERT INTO sentences (ts, source, sentence, outcome) VALUES (?, ?, ?, ?)`
	replayQuery = `SELECT sentence, source FROM sentences WHERE outcome != 'no_match' AND outcome != 'failed' ORDER BY id ASC`
	countQuery  = `SELECT COUNT(*) FROM sentences`
)

// Journal is an append-only sentence log over a SQL database.
type Journal struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// Open opens (creating if needed) a journal at the given SQLite path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open journal database")
	}
	j := New(db)
	if err := j.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// New wraps an existing database handle. Callers own the handle's
// lifecycle; Init must have been (or be) called before use.
func New(db *sql.DB) *Journal {
	return &Journal{db: db, log: logger.Logger}
}

// Init creates the journal schema if missing.
func (j *Journal) Init() error {
	if _, err := j.db.Exec(schema); err != nil {
		return errors.Wrap(err, "failed to create journal schema")
	}
	return nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append records one submitted sentence with its outcome type.
func (j *Journal) Append(sentence, source string, outcome ce.Outcome) error {
	_, err := j.db.Exec(insertQuery, time.Now().UTC(), source, sentence, outcome.Type.String())
	if err != nil {
		return errors.Wrap(err, "failed to append sentence to journal")
	}
	return nil
}

// Record submits a sentence to the store and journals it in one call.
// Journaling failure does not undo the store mutation; it is logged and
// returned alongside the outcome.
func (j *Journal) Record(store *ce.Store, sentence, source string) (ce.Outcome, error) {
	outcome := store.Submit(sentence, source)
	if err := j.Append(sentence, source, outcome); err != nil {
		j.log.Errorw("journal append failed", "sentence", sentence, "error", err)
		return outcome, err
	}
	return outcome, nil
}

// Count returns the number of journaled sentences.
func (j *Journal) Count() (int, error) {
	var n int
	if err := j.db.QueryRow(countQuery).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count journal entries")
	}
	return n, nil
}

// Replay applies every accepted journaled sentence to the store in
// journal order, rebuilding the graph. No-match and failed entries are
// skipped at the query level.
func (j *Journal) Replay(store *ce.Store) (int, error) {
	rows, err := j.db.Query(replayQuery)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read journal for replay")
	}
	defer rows.Close()

	applied := 0
	for rows.Next() {
		var sentence, source string
		if err := rows.Scan(&sentence, &source); err != nil {
			return applied, errors.Wrap(err, "failed to scan journal row")
		}
		outcome := store.Submit(sentence, source)
		if outcome.Success() {
			applied++
		} else {
			j.log.Warnw("journaled sentence no longer accepted",
				"sentence", sentence, "error", outcome.ErrorMessage())
		}
	}
	if err := rows.Err(); err != nil {
		return applied, errors.Wrap(err, "journal replay aborted")
	}
	j.log.Infow("journal replayed", "store", store.Name(), "applied", applied)
	return applied, nil
}

// Snapshot writes the store's canonical CE rendering, one entity per
// line. A snapshot is itself a loadable model file.
func Snapshot(store *ce.Store, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, line := range store.CE() {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return errors.Wrap(err, "failed to write snapshot")
		}
	}
	return errors.Wrap(bw.Flush(), "failed to flush snapshot")
}
