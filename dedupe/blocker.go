package dedupe

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/subashy6/matchkit/core"
	"github.com/subashy6/matchkit/resource"
)

// BlockerOptions contains configuration options for the blocker.
type BlockerOptions struct {
	// Resources throttles spill-write IO. Nil means unlimited.
	Resources *resource.Controller

	// BatchSize is the number of block rows buffered per spill
	// transaction.
	BatchSize int
}

// DefaultBlockerOptions contains the default blocker configuration.
var DefaultBlockerOptions = BlockerOptions{
	BatchSize: 4096,
}

// Blocker turns a record set into a stream of distinct candidate pairs.
//
// Blocking keys are spilled to an indexed SQLite table and candidate
// pairs are produced by a sorted self-join, so the pair set never has to
// be materialized in memory. Pairs seen under overlapping predicates are
// deduplicated with a compressed bitmap over dense record ordinals.
//
// A Blocker is single-use-at-a-time: PerformBlocking truncates the spill
// table, and concurrent runs against one Blocker are not supported.
type Blocker struct {
	db         *sql.DB
	predicates []Predicate
	opts       BlockerOptions

	lastKeys  int64
	lastPairs int64
}

// NewBlocker creates a blocker spilling to the SQLite database at path.
func NewBlocker(path string, predicates []Predicate, optFns ...func(o *BlockerOptions)) (*Blocker, error) {
	if len(predicates) == 0 {
		return nil, fmt.Errorf("blocking requires at least one predicate")
	}

	opts := DefaultBlockerOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBlockerOptions.BatchSize
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open spill database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS blocks (
			block_key TEXT NOT NULL,
			ordinal   INTEGER NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create spill table: %w", err)
	}

	return &Blocker{
		db:         db,
		predicates: predicates,
		opts:       opts,
	}, nil
}

// Close releases the spill database.
func (b *Blocker) Close() error {
	return b.db.Close()
}

// Stats returns the number of block rows spilled and distinct pairs
// emitted by the most recent PerformBlocking run.
func (b *Blocker) Stats() (keys, pairs int64) {
	return b.lastKeys, b.lastPairs
}

// PerformBlocking streams the distinct candidate pairs of the record
// set, in canonical form (Low < High), deduplicated across all
// predicates. Stop iterating to cancel early.
func (b *Blocker) PerformBlocking(ctx context.Context, records []Record) iter.Seq2[core.RecordPair, error] {
	return func(yield func(core.RecordPair, error) bool) {
		ids, err := b.spill(ctx, records)
		if err != nil {
			yield(core.RecordPair{}, err)
			return
		}

		rows, err := b.db.QueryContext(ctx, `
			SELECT x.ordinal, y.ordinal
			FROM blocks x
			JOIN blocks y ON x.block_key = y.block_key AND x.ordinal < y.ordinal
		`)
		if err != nil {
			yield(core.RecordPair{}, fmt.Errorf("pair self-join: %w", err))
			return
		}
		defer rows.Close()

		seen := roaring64.New()
		b.lastPairs = 0
		for rows.Next() {
			var lo, hi uint32
			if err := rows.Scan(&lo, &hi); err != nil {
				yield(core.RecordPair{}, err)
				return
			}
			packed := uint64(lo)<<32 | uint64(hi)
			if seen.Contains(packed) {
				continue
			}
			seen.Add(packed)

			pair, err := core.NewRecordPair(ids[lo], ids[hi])
			if err != nil {
				yield(core.RecordPair{}, err)
				return
			}
			b.lastPairs++
			if !yield(pair, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(core.RecordPair{}, err)
		}
	}
}

// spill writes (block_key, ordinal) rows for every predicate key of
// every record, then indexes the table for the self-join. Returns the
// ordinal-to-id mapping.
func (b *Blocker) spill(ctx context.Context, records []Record) ([]core.RecordID, error) {
	if _, err := b.db.ExecContext(ctx, `DROP INDEX IF EXISTS blocks_by_key`); err != nil {
		return nil, err
	}
	if _, err := b.db.ExecContext(ctx, `DELETE FROM blocks`); err != nil {
		return nil, err
	}
	b.lastKeys = 0

	ids := make([]core.RecordID, len(records))

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO blocks (block_key, ordinal) VALUES (?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	pending := 0
	pendingBytes := 0
	for ordinal, r := range records {
		ids[ordinal] = r.ID
		for _, p := range b.predicates {
			for _, key := range p.Keys(r) {
				if _, err := stmt.ExecContext(ctx, key, ordinal); err != nil {
					return nil, err
				}
				b.lastKeys++
				pending++
				pendingBytes += len(key) + 8
				if pending >= b.opts.BatchSize {
					if err := b.opts.Resources.WaitIO(ctx, pendingBytes); err != nil {
						return nil, err
					}
					pending, pendingBytes = 0, 0
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	tx = nil

	if _, err := b.db.ExecContext(ctx, `CREATE INDEX blocks_by_key ON blocks (block_key, ordinal)`); err != nil {
		return nil, err
	}
	return ids, nil
}
