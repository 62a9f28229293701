package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driven"
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driving"
	"github.com/roundtable-labs/roundtable-cli/internal/logger"
	"github.com/roundtable-labs/roundtable-cli/internal/transcript"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// embedBatchSize bounds how many child texts go to the embedding
// provider in one call.
const embedBatchSize = 64

// IngestService indexes transcript files into the chunk store and
// vector index using the parent/child pattern: large parent chunks for
// coherent generation context, small child chunks for precise matching.
type IngestService struct {
	embeddingService driven.EmbeddingService
	chunkStore       driven.ChunkStore
	vectorIndex      driven.VectorIndex
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	embeddingService driven.EmbeddingService,
	chunkStore driven.ChunkStore,
	vectorIndex driven.VectorIndex,
) *IngestService {
	return &IngestService{
		embeddingService: embeddingService,
		chunkStore:       chunkStore,
		vectorIndex:      vectorIndex,
	}
}

// Ingest scans opts.Dir for transcript files, chunks them, embeds the
// child chunks, and persists everything.
func (s *IngestService) Ingest(ctx context.Context, opts domain.IngestOptions) (*domain.IngestReport, error) {
	logger.Section("Transcript Ingestion")
	opts.Normalise()

	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	entries, err := os.ReadDir(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("read transcripts dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		files = append(files, filepath.Join(opts.Dir, e.Name()))
	}
	sort.Strings(files)
	logger.Info("Found %d transcript files in %s", len(files), opts.Dir)

	if opts.Reset {
		logger.Info("Resetting index")
		if err := s.chunkStore.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear chunk store: %w", err)
		}
		if s.vectorIndex != nil {
			if err := s.vectorIndex.Clear(ctx); err != nil {
				return nil, fmt.Errorf("clear vector index: %w", err)
			}
		}
	}

	report := &domain.IngestReport{}
	speakers := make(map[string]bool)

	for i, path := range files {
		logger.Debug("[%d/%d] %s", i+1, len(files), filepath.Base(path))
		fileReport, err := s.ingestOne(ctx, path, opts, speakers)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Skipping %s: %v", filepath.Base(path), err)
			report.FilesSkipped++
			continue
		}
		if fileReport.FilesProcessed == 0 {
			report.FilesSkipped++
			continue
		}
		report.FilesProcessed++
		report.Parents += fileReport.Parents
		report.Children += fileReport.Children
	}

	report.Speakers = len(speakers)
	logger.Info("Ingested %d files (%d skipped): %d parents, %d children, %d speakers",
		report.FilesProcessed, report.FilesSkipped, report.Parents, report.Children, report.Speakers)
	return report, nil
}

// IngestFile indexes a single transcript file.
func (s *IngestService) IngestFile(ctx context.Context, path string, opts domain.IngestOptions) (*domain.IngestReport, error) {
	opts.Normalise()
	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	speakers := make(map[string]bool)
	report, err := s.ingestOne(ctx, path, opts, speakers)
	if err != nil {
		return nil, err
	}
	report.Speakers = len(speakers)
	return report, nil
}

// ingestOne parses one file and writes its chunks. A file with no
// recognisable guest turns yields an empty report, not an error.
func (s *IngestService) ingestOne(
	ctx context.Context, path string, opts domain.IngestOptions, speakers map[string]bool,
) (*domain.IngestReport, error) {
	turns, err := transcript.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	if len(turns) == 0 {
		logger.Debug("No guest turns in %s", filepath.Base(path))
		return &domain.IngestReport{}, nil
	}

	var parents []domain.ParentChunk
	var children []domain.ChildChunk

	for _, turn := range turns {
		speakers[turn.Speaker] = true
		for _, chunk := range transcript.ChunkTurn(turn, opts.ParentChunkSize, opts.ParentOverlap) {
			text := chunk.Text
			if chunk.PrecedingQuestion != "" {
				text = "Question: " + chunk.PrecedingQuestion + "\n\nAnswer: " + chunk.Text
			}
			parent := domain.ParentChunk{
				ID:                uuid.NewString(),
				Speaker:           chunk.Speaker,
				SourceFile:        chunk.SourceFile,
				Timestamp:         chunk.Timestamp,
				PrecedingQuestion: chunk.PrecedingQuestion,
				Text:              text,
				Position:          chunk.Index,
			}
			parents = append(parents, parent)

			for j, childText := range transcript.SplitText(chunk.Text, opts.ChildChunkSize, opts.ChildOverlap) {
				children = append(children, domain.ChildChunk{
					ID:       uuid.NewString(),
					ParentID: parent.ID,
					Speaker:  parent.Speaker,
					Text:     childText,
					Position: j,
				})
			}
		}
	}

	if err := s.embedChildren(ctx, children); err != nil {
		return nil, err
	}

	// Chunk IDs are minted fresh on every run, so the file's previous
	// chunks must go before the new ones land or re-ingestion would
	// double-count.
	removed, err := s.chunkStore.DeleteBySourceFile(ctx, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("delete stale chunks: %w", err)
	}
	if s.vectorIndex != nil && len(removed) > 0 {
		if err := s.vectorIndex.Remove(ctx, removed); err != nil {
			return nil, fmt.Errorf("evict stale vectors: %w", err)
		}
	}

	if err := s.chunkStore.SaveParents(ctx, parents); err != nil {
		return nil, fmt.Errorf("save parents: %w", err)
	}
	if err := s.chunkStore.SaveChildren(ctx, children); err != nil {
		return nil, fmt.Errorf("save children: %w", err)
	}
	if s.vectorIndex != nil {
		for _, c := range children {
			if err := s.vectorIndex.Add(ctx, c.ID, c.ParentID, c.Speaker, c.Embedding); err != nil {
				return nil, fmt.Errorf("index child %s: %w", c.ID, err)
			}
		}
	}

	return &domain.IngestReport{
		FilesProcessed: 1,
		Parents:        len(parents),
		Children:       len(children),
	}, nil
}

// embedChildren fills in child embeddings in batches.
func (s *IngestService) embedChildren(ctx context.Context, children []domain.ChildChunk) error {
	for start := 0; start < len(children); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(children) {
			end = len(children)
		}
		batch := children[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Text
		}

		embeddings, err := s.embeddingService.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: embed batch: %v", domain.ErrEmbeddingUnavailable, err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("%w: embed batch returned %d vectors for %d texts",
				domain.ErrEmbeddingUnavailable, len(embeddings), len(batch))
		}
		for i := range batch {
			batch[i].Embedding = embeddings[i]
		}
	}
	return nil
}

// Stats reports the current size of the index.
func (s *IngestService) Stats(ctx context.Context) (*domain.IndexStats, error) {
	stats, err := s.chunkStore.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("index stats: %w", err)
	}
	return &stats, nil
}

// Speakers lists the distinct speakers in the index.
func (s *IngestService) Speakers(ctx context.Context) ([]string, error) {
	speakers, err := s.chunkStore.ListSpeakers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list speakers: %w", err)
	}
	return speakers, nil
}
