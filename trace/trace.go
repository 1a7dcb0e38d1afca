// Package trace records retired instructions into a SQLite database
// for offline analysis. Records are buffered and flushed in batched
// transactions; a flush is also registered to run at process exit.
package trace

import (
	"database/sql"
	"fmt"

	// SQLite driver registration.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// Record describes one retired instruction.
type Record struct {
	// Tick is the core tick count at retirement.
	Tick uint64
	// PC is the fetch address of the instruction.
	PC uint32
	// Instr is the raw instruction word.
	Instr uint32
	// RdWrite reports whether a register write-back fired.
	RdWrite bool
	// Rd is the write-back target register.
	Rd uint8
	// RdValue is the committed value.
	RdValue uint32
}

// defaultBatchSize is the number of buffered records per transaction.
const defaultBatchSize = 10000

// Recorder writes retired-instruction records to a SQLite database.
type Recorder struct {
	db        *sql.DB
	buffer    []Record
	batchSize int
}

// NewRecorder opens (creating) a trace database at path. An empty path
// picks a unique file name in the working directory.
func NewRecorder(path string) (*Recorder, error) {
	if path == "" {
		path = "rv32sim_trace_" + xid.New().String() + ".sqlite3"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS retired (
			tick     INTEGER,
			pc       INTEGER,
			instr    INTEGER,
			rd_write INTEGER,
			rd       INTEGER,
			rd_value INTEGER
		)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create trace table: %w", err)
	}

	r := &Recorder{
		db:        db,
		batchSize: defaultBatchSize,
	}

	atexit.Register(func() { _ = r.Flush() })

	return r, nil
}

// Record buffers one retired instruction, flushing when the batch is
// full.
func (r *Recorder) Record(rec Record) {
	r.buffer = append(r.buffer, rec)
	if len(r.buffer) >= r.batchSize {
		_ = r.Flush()
	}
}

// Flush writes all buffered records in one transaction.
func (r *Recorder) Flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin trace transaction: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO retired (tick, pc, instr, rd_write, rd, rd_value) " +
			"VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare trace insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range r.buffer {
		rdWrite := 0
		if rec.RdWrite {
			rdWrite = 1
		}
		_, err = stmt.Exec(
			int64(rec.Tick), int64(rec.PC), int64(rec.Instr),
			rdWrite, int64(rec.Rd), int64(rec.RdValue))
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert trace record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trace transaction: %w", err)
	}

	r.buffer = r.buffer[:0]
	return nil
}

// Count returns the number of records persisted so far.
func (r *Recorder) Count() (int64, error) {
	var n int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM retired").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count trace records: %w", err)
	}
	return n, nil
}

// Close flushes and closes the database.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}
	return r.db.Close()
}
