package recording

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
)

const createAccessTable = `CREATE TABLE IF NOT EXISTS accesses (
	run_id       TEXT    NOT NULL,
	seq          INTEGER NOT NULL,
	address      INTEGER NOT NULL,
	tag          INTEGER NOT NULL,
	set_index    INTEGER NOT NULL,
	block_offset INTEGER NOT NULL,
	hit          INTEGER NOT NULL,
	line         INTEGER NOT NULL,
	evicted      INTEGER NOT NULL,
	evicted_tag  INTEGER NOT NULL
);`

const insertAccess = `INSERT INTO accesses (
	run_id, seq, address, tag, set_index, block_offset,
	hit, line, evicted, evicted_tag
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// DefaultBatchSize is the number of entries buffered before a flush.
const DefaultBatchSize = 10000

// SQLite records accesses into a SQLite database.
type SQLite struct {
	db        *sql.DB
	logger    logrus.FieldLogger
	filename  string
	batchSize int
	pending   []Entry
	closed    bool
}

// NewSQLite creates <path>.sqlite3 and prepares the accesses table. An
// empty path picks a unique name. The file must not exist yet. Pending
// entries are flushed when the program exits through atexit.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "cachesim_" + xid.New().String()
	}

	filename := path
	if !strings.HasSuffix(filename, ".sqlite3") {
		filename += ".sqlite3"
	}

	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to check %s: %w", filename, err)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording database: %w", err)
	}

	if _, err := db.Exec(createAccessTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create accesses table: %w", err)
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	w := &SQLite{
		db:        db,
		logger:    discard,
		filename:  filename,
		batchSize: DefaultBatchSize,
	}

	atexit.Register(func() { _ = w.Close() })

	return w, nil
}

// Filename returns the database file name.
func (w *SQLite) Filename() string {
	return w.filename
}

// SetLogger sets where failed batch flushes are logged. The default logger
// discards everything.
func (w *SQLite) SetLogger(l logrus.FieldLogger) {
	w.logger = l
}

// SetBatchSize changes how many entries are buffered before a flush.
func (w *SQLite) SetBatchSize(n int) {
	if n < 1 {
		n = 1
	}
	w.batchSize = n
}

// Record buffers e and flushes once the batch is full. A failed flush is
// logged and keeps the entries buffered, so the next Flush or Close retries
// them and returns the error if it persists.
func (w *SQLite) Record(e Entry) {
	w.pending = append(w.pending, e)

	if len(w.pending) < w.batchSize {
		return
	}

	if err := w.Flush(); err != nil {
		w.logger.WithError(err).WithFields(logrus.Fields{
			"file":    w.filename,
			"pending": len(w.pending),
		}).Warn("batch flush failed")
	}
}

// Flush writes all buffered entries in one transaction.
func (w *SQLite) Flush() error {
	if w.closed || len(w.pending) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(insertAccess)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range w.pending {
		_, err := stmt.Exec(
			e.RunID, e.Seq, e.Address, e.Tag, e.SetIndex, e.BlockOffset,
			e.Hit, e.Line, e.Evicted, e.EvictedTag,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert access %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit accesses: %w", err)
	}

	w.pending = w.pending[:0]

	return nil
}

// Close flushes and closes the database. Closing twice is a no-op.
func (w *SQLite) Close() error {
	if w.closed {
		return nil
	}

	flushErr := w.Flush()
	w.closed = true

	return errors.Join(flushErr, w.db.Close())
}
