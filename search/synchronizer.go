package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tonotes/contextutil"
	"tonotes/model"

	"github.com/samber/lo"
)

// DefaultResyncBatchSize is the number of notes read and indexed per
// resync round trip.
const DefaultResyncBatchSize = 200

// SyncConfig tunes a Synchronizer. Zero values pick the defaults.
type SyncConfig struct {
	Timeout   time.Duration
	BatchSize int
}

// ResyncOptions controls a full rebuild.
type ResyncOptions struct {
	// Resume continues after the last checkpointed id instead of starting
	// from the first note.
	Resume bool
}

// Synchronizer mirrors committed note mutations into the search index.
//
// Index write failures never fail the caller: the note is already stored.
// They are logged, counted and remembered as stale so that RepairStale or
// Resync can fix them later.
type Synchronizer struct {
	index      Index
	records    RecordStore
	stale      StaleTracker
	checkpoint Checkpoint
	timeout    time.Duration
	batchSize  int
}

func NewSynchronizer(index Index, records RecordStore, stale StaleTracker, checkpoint Checkpoint, cfg SyncConfig) *Synchronizer {
	if stale == nil {
		stale = NewMemoryStaleTracker()
	}
	if checkpoint == nil {
		checkpoint = NewMemoryCheckpoint()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultEngineTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultResyncBatchSize
	}
	return &Synchronizer{
		index:      index,
		records:    records,
		stale:      stale,
		checkpoint: checkpoint,
		timeout:    cfg.Timeout,
		batchSize:  cfg.BatchSize,
	}
}

// OnNoteCreated indexes a newly stored note and refreshes the index so the
// note is searchable as soon as this returns.
func (s *Synchronizer) OnNoteCreated(ctx context.Context, note *model.Note) {
	err := s.write(ctx, func(ctx context.Context) error {
		return s.index.IndexDocument(ctx, model.NewSearchDocument(note), true)
	})
	s.report(ctx, "create", note.ID, err)
}

// OnNoteUpdated rewrites the changed fields of a stored note. updatedAt is
// always rewritten. With no changed fields the whole document is reindexed.
func (s *Synchronizer) OnNoteUpdated(ctx context.Context, note *model.Note, changed []string) {
	doc := model.NewSearchDocument(note)
	err := s.write(ctx, func(ctx context.Context) error {
		if len(changed) == 0 {
			return s.index.IndexDocument(ctx, doc, true)
		}
		fields := lo.Uniq(append(lo.Filter(changed, func(f string, _ int) bool {
			return lo.Contains(model.SearchDocumentFields, f)
		}), model.FieldUpdatedAt))
		return s.index.UpdateDocument(ctx, doc, fields, true)
	})
	s.report(ctx, "update", note.ID, err)
}

// OnNoteDeleted removes the document of a deleted note.
func (s *Synchronizer) OnNoteDeleted(ctx context.Context, id string) {
	err := s.write(ctx, func(ctx context.Context) error {
		return s.index.DeleteDocument(ctx, id, true)
	})
	s.report(ctx, "delete", id, err)
}

// write runs an index write detached from the caller's cancellation so a
// request that gives up does not abort the mirror write, bounded by the
// engine timeout.
func (s *Synchronizer) write(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	return fn(ctx)
}

func (s *Synchronizer) report(ctx context.Context, operation, id string, err error) {
	if err == nil {
		return
	}
	TrackSyncFailure(operation)
	logger := contextutil.LoggerFromContext(ctx)
	logger.Warn("search index write failed; note marked stale",
		"note_id", id,
		"operation", operation,
		"error", err,
	)
	if markErr := s.stale.MarkStale(context.WithoutCancel(ctx), id); markErr != nil {
		logger.Error("failed to record stale note", "note_id", id, "error", markErr)
	}
}

// Resync rebuilds the search documents of every stored note, in id order
// and in batches, and returns how many documents were written. Writes are
// idempotent overwrites, so it is safe alongside live traffic and safe to
// rerun. The last written id is checkpointed after each batch; with
// opts.Resume a rerun continues from there.
func (s *Synchronizer) Resync(ctx context.Context, opts ResyncOptions) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	after := ""
	if opts.Resume {
		id, err := s.checkpoint.Load(ctx)
		if err != nil {
			return 0, fmt.Errorf("loading resync checkpoint: %w", err)
		}
		after = id
	}
	logger.Info("resync started", "after_id", after, "batch_size", s.batchSize)

	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		notes, err := s.records.ListAfter(ctx, after, s.batchSize)
		if err != nil {
			return count, fmt.Errorf("listing notes after %q: %w", after, err)
		}
		if len(notes) == 0 {
			break
		}

		docs := lo.Map(notes, func(n *model.Note, _ int) model.SearchDocument {
			return model.NewSearchDocument(n)
		})
		if err := s.write(ctx, func(ctx context.Context) error {
			return s.index.BulkIndex(ctx, docs)
		}); err != nil {
			return count, fmt.Errorf("indexing batch after %q: %w", after, err)
		}

		count += len(docs)
		ResyncDocumentsTotal.Add(float64(len(docs)))
		after = notes[len(notes)-1].ID
		if err := s.checkpoint.Save(ctx, after); err != nil {
			return count, fmt.Errorf("saving resync checkpoint: %w", err)
		}
		logger.Debug("resync batch indexed", "documents", len(docs), "last_id", after)

		if len(notes) < s.batchSize {
			break
		}
	}

	if _, err := s.PruneOrphans(ctx); err != nil {
		return count, err
	}
	if _, err := s.RepairStale(ctx); err != nil {
		return count, err
	}
	if err := s.write(ctx, s.index.Refresh); err != nil {
		return count, fmt.Errorf("refreshing index: %w", err)
	}
	if err := s.checkpoint.Clear(ctx); err != nil {
		return count, fmt.Errorf("clearing resync checkpoint: %w", err)
	}

	logger.Info("resync finished", "documents", count)
	return count, nil
}

// PruneOrphans deletes index documents whose note is gone from the record
// store, such as deletes that never reached the index. It returns how many
// were deleted.
func (s *Synchronizer) PruneOrphans(ctx context.Context) (int, error) {
	pruned := 0
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return pruned, err
		}

		var ids []string
		if err := s.write(ctx, func(ctx context.Context) error {
			var err error
			ids, err = s.index.DocumentIDsAfter(ctx, after, s.batchSize)
			return err
		}); err != nil {
			return pruned, fmt.Errorf("listing indexed ids after %q: %w", after, err)
		}
		if len(ids) == 0 {
			break
		}

		records, err := s.records.FindManyByIDs(ctx, ids)
		if err != nil {
			return pruned, fmt.Errorf("loading notes for indexed ids: %w", err)
		}
		stored := lo.SliceToMap(records, func(rec *model.NoteRecord) (string, bool) {
			return rec.Note.ID, true
		})

		for _, id := range ids {
			if stored[id] {
				continue
			}
			if err := s.write(ctx, func(ctx context.Context) error {
				return s.index.DeleteDocument(ctx, id, false)
			}); err != nil {
				return pruned, fmt.Errorf("deleting orphan %s: %w", id, err)
			}
			pruned++
		}

		after = ids[len(ids)-1]
		if len(ids) < s.batchSize {
			break
		}
	}

	if pruned > 0 {
		OrphansPrunedTotal.Add(float64(pruned))
		contextutil.LoggerFromContext(ctx).Info("orphan search documents pruned", "documents", pruned)
	}
	return pruned, nil
}

// RepairStale rewrites the documents of notes whose earlier index write
// failed: existing notes are reindexed from the record store and missing
// ones are deleted from the index. It returns how many were repaired.
func (s *Synchronizer) RepairStale(ctx context.Context) (int, error) {
	ids, err := s.stale.StaleIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading stale notes: %w", err)
	}

	repaired := 0
	for _, id := range ids {
		note, err := s.records.FindByID(ctx, id)
		switch {
		case errors.Is(err, model.ErrNoteNotFound):
			err = s.write(ctx, func(ctx context.Context) error {
				return s.index.DeleteDocument(ctx, id, false)
			})
		case err != nil:
			return repaired, fmt.Errorf("loading stale note %s: %w", id, err)
		default:
			err = s.write(ctx, func(ctx context.Context) error {
				return s.index.IndexDocument(ctx, model.NewSearchDocument(note), false)
			})
		}
		if err != nil {
			TrackSyncFailure("repair")
			contextutil.LoggerFromContext(ctx).Warn("stale note repair failed", "note_id", id, "error", err)
			continue
		}
		if err := s.stale.ClearStale(ctx, id); err != nil {
			return repaired, fmt.Errorf("clearing stale note %s: %w", id, err)
		}
		repaired++
	}
	return repaired, nil
}
