// Package load drives a complete load run: it walks the chunked input,
// maps records to destination row sets, deduplicates identifiers against
// the run-scoped registry, and commits one transaction per chunk.
//
// The package is strictly sequential. Chunks are read, written, and
// committed one at a time in file order; there is no concurrent chunk
// pipeline. That keeps the failure contract simple: when a run stops,
// the destination contains exactly the chunks committed so far and
// nothing from the chunk that failed.
package load

import (
	"context"

	"arxload/internal/dedup"
	"arxload/internal/errs"
	"arxload/internal/mapper"
	"arxload/internal/parser/jsonl"
	"arxload/internal/schema"
	"arxload/internal/storage"
)

// ChunkResult summarizes a single chunk write.
type ChunkResult struct {
	// Processed counts records mapped and staged for this chunk's commit.
	Processed int

	// Skipped counts records dropped because their identifier was already
	// committed in this run, or already staged earlier in the same chunk.
	Skipped int

	// Failed counts malformed records dropped under the skip policy: lines
	// the reader could not parse plus records without a usable identifier.
	Failed int

	// Inserted is the number of rows written across all destination tables.
	Inserted int64

	// Committed reports whether a transaction was actually executed. A chunk
	// whose records were all duplicates or malformed commits nothing.
	Committed bool
}

// WriteChunk maps, deduplicates, and commits one chunk.
//
// All staged rows go to the destination in a single InsertBatch call, so the
// chunk lands atomically. The registry is updated only after that call
// succeeds: a failed commit leaves both the destination and the registry
// exactly as they were, and the chunk's identifiers remain unclaimed.
//
// A record whose identifier is missing, empty, or not a string follows the
// malformed policy: under skip it is counted in Failed and dropped, otherwise
// its MalformedRecordError aborts the chunk before anything is written.
func WriteChunk(ctx context.Context, repo storage.Repository, reg *dedup.Registry, chunk jsonl.Chunk, skipMalformed bool) (ChunkResult, error) {
	res := ChunkResult{Failed: chunk.Failed}

	staged := make(map[string]struct{}, len(chunk.Records))
	stagedIDs := make([]string, 0, len(chunk.Records))
	merged := emptyBatch()

	for _, rec := range chunk.Records {
		id, err := mapper.RecordID(rec)
		if err != nil {
			if skipMalformed {
				res.Failed++
				continue
			}
			return ChunkResult{}, err
		}
		if reg.Has(id) {
			res.Skipped++
			continue
		}
		if _, dup := staged[id]; dup {
			// Second occurrence inside the same chunk.
			res.Skipped++
			continue
		}

		batch, err := mapper.Map(rec)
		if err != nil {
			if skipMalformed {
				res.Failed++
				continue
			}
			return ChunkResult{}, err
		}
		for i := range merged {
			merged[i].Rows = append(merged[i].Rows, batch[i].Rows...)
		}

		staged[id] = struct{}{}
		stagedIDs = append(stagedIDs, id)
		res.Processed++
	}

	if len(stagedIDs) == 0 {
		return res, nil
	}

	n, err := repo.InsertBatch(ctx, compactBatch(merged))
	if err != nil {
		return ChunkResult{}, &errs.WriteError{Chunk: chunk.Number, Err: err}
	}

	reg.MarkAll(stagedIDs)
	res.Inserted = n
	res.Committed = true
	return res, nil
}

// emptyBatch returns the four destination table groups in parent-first order,
// positionally aligned with mapper.Map output so per-record batches merge by
// index.
func emptyBatch() storage.Batch {
	tables := schema.Tables()
	out := make(storage.Batch, len(tables))
	for i, def := range tables {
		out[i] = storage.TableRows{Table: def.Name, Columns: def.ColumnNames()}
	}
	return out
}

// compactBatch drops table groups that collected no rows, preserving order.
func compactBatch(b storage.Batch) storage.Batch {
	out := b[:0]
	for _, tr := range b {
		if len(tr.Rows) > 0 {
			out = append(out, tr)
		}
	}
	return out
}
