package app

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"docstack/internal/chunker"
	"docstack/internal/model"
	"docstack/internal/pkg/pdfextract"
	"docstack/internal/pkg/textnorm"
	"docstack/internal/repository"
)

var ErrScopeRequired = errors.New("owner and session are required")

// FileStore persists uploaded-file metadata. Create must report
// repository.ErrDuplicateFile when the scope already holds the file.
// Delete removes a metadata row so a failed ingestion can be retried.
type FileStore interface {
	Create(file *model.UploadedFile) error
	Delete(file *model.UploadedFile) error
}

// ChunkStore persists chunk rows.
type ChunkStore interface {
	CreateBatch(chunks []model.Chunk) error
}

// BlobStage accepts raw file bytes under a logical location.
type BlobStage interface {
	Name() string
	Put(fileName string, data []byte, overwrite bool) (string, error)
}

// IngestService coordinates per-file processing: dedup guard, staging,
// extraction, normalization, chunking and persistence. Each file is
// processed independently; one failure never aborts a batch.
type IngestService struct {
	fileRepo     FileStore
	chunkRepo    ChunkStore
	stage        BlobStage
	chunks       *chunker.Chunker
	norm         textnorm.Normalizer
	maxChunkSize int
	logger       *slog.Logger
}

func NewIngestService(
	fileRepo FileStore,
	chunkRepo ChunkStore,
	stage BlobStage,
	chunks *chunker.Chunker,
	norm textnorm.Normalizer,
	maxChunkSize int,
	logger *slog.Logger,
) *IngestService {
	if maxChunkSize <= 0 {
		maxChunkSize = 4096
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		fileRepo:     fileRepo,
		chunkRepo:    chunkRepo,
		stage:        stage,
		chunks:       chunks,
		norm:         norm,
		maxChunkSize: maxChunkSize,
		logger:       logger,
	}
}

// FileUpload is one file of an ingestion batch.
type FileUpload struct {
	Name string
	Data []byte
}

// IngestOutcome reports what happened to one file.
type IngestOutcome struct {
	FileName   string `json:"file_name"`
	Duplicate  bool   `json:"duplicate"`
	ChunkCount int    `json:"chunk_count"`
	Encoding   string `json:"encoding,omitempty"`
}

// FileReport is the per-file result of IngestAll.
type FileReport struct {
	FileName   string `json:"file_name"`
	OK         bool   `json:"ok"`
	Message    string `json:"message,omitempty"`
	Duplicate  bool   `json:"duplicate,omitempty"`
	ChunkCount int    `json:"chunk_count"`
}

// Ingest processes one file for the scope. A re-upload of the same
// (owner, session, file name) short-circuits as a duplicate outcome,
// not an error. If extraction or chunk persistence fails the metadata
// row is released so the file can be retried; already-written chunk
// rows are tolerated orphans.
func (s *IngestService) Ingest(ctx context.Context, scope model.Scope, fileName string, data []byte) (*IngestOutcome, error) {
	if !scope.Valid() {
		return nil, ErrScopeRequired
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" || len(data) == 0 {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fileURL, err := s.stage.Put(fileName, data, true)
	if err != nil {
		return nil, fmt.Errorf("stage upload failed: %w", err)
	}

	record := &model.UploadedFile{
		Username:  scope.Owner,
		SessionID: scope.Session,
		FileName:  fileName,
		StageName: s.stage.Name(),
	}
	if err := s.fileRepo.Create(record); err != nil {
		if errors.Is(err, repository.ErrDuplicateFile) {
			s.logger.Warn("file already ingested, skipping",
				slog.String("owner", scope.Owner),
				slog.String("file", fileName))
			return &IngestOutcome{FileName: fileName, Duplicate: true}, nil
		}
		return nil, err
	}

	rows, encoding, err := s.buildChunks(scope, fileName, fileURL, data)
	if err != nil {
		s.releaseMetadata(record)
		return nil, err
	}
	if err := s.chunkRepo.CreateBatch(rows); err != nil {
		s.releaseMetadata(record)
		return nil, fmt.Errorf("persist chunks failed: %w", err)
	}

	s.logger.Info("file ingested",
		slog.String("owner", scope.Owner),
		slog.String("file", fileName),
		slog.Int("chunks", len(rows)),
		slog.String("encoding", encoding))

	return &IngestOutcome{
		FileName:   fileName,
		ChunkCount: len(rows),
		Encoding:   encoding,
	}, nil
}

// releaseMetadata removes the metadata row of a failed ingestion so a
// retry is not misreported as a duplicate. Best effort: if the delete
// itself fails, the row stays and the retry will short-circuit, which
// is logged here as the operator's cue to clean up.
func (s *IngestService) releaseMetadata(record *model.UploadedFile) {
	if err := s.fileRepo.Delete(record); err != nil {
		s.logger.Warn("release file metadata failed, retries will report duplicate",
			slog.String("owner", record.Username),
			slog.String("file", record.FileName),
			slog.String("error", err.Error()))
	}
}

// IngestAll processes a batch with per-file failure isolation.
func (s *IngestService) IngestAll(ctx context.Context, scope model.Scope, files []FileUpload) []FileReport {
	reports := make([]FileReport, 0, len(files))
	for _, f := range files {
		outcome, err := s.Ingest(ctx, scope, f.Name, f.Data)
		if err != nil {
			s.logger.Error("ingest failed",
				slog.String("file", f.Name),
				slog.String("error", err.Error()))
			reports = append(reports, FileReport{
				FileName: f.Name,
				OK:       false,
				Message:  err.Error(),
			})
			continue
		}
		report := FileReport{
			FileName:   outcome.FileName,
			OK:         true,
			Duplicate:  outcome.Duplicate,
			ChunkCount: outcome.ChunkCount,
		}
		if outcome.Duplicate {
			report.Message = "already ingested in this session"
		}
		reports = append(reports, report)
	}
	return reports
}

// buildChunks classifies the content and produces chunk rows in
// creation order. A file is either text (sizes in runes) or binary
// (hex content, sizes in bytes before encoding); never both.
func (s *IngestService) buildChunks(scope model.Scope, fileName, fileURL string, data []byte) ([]model.Chunk, string, error) {
	text, isText, err := s.extractText(fileName, data)
	if err != nil {
		return nil, "", fmt.Errorf("extract %s failed: %w", fileName, err)
	}

	if isText {
		normalized := s.norm.Normalize(text)
		pieces := s.chunks.Chunk(normalized, s.maxChunkSize)
		rows := make([]model.Chunk, 0, len(pieces))
		for i, piece := range pieces {
			rows = append(rows, model.Chunk{
				Username:     scope.Owner,
				SessionID:    scope.Session,
				RelativePath: fileName,
				Seq:          i,
				Size:         utf8.RuneCountInString(piece),
				FileURL:      fileURL,
				Content:      piece,
				Encoding:     model.EncodingText,
			})
		}
		return rows, model.EncodingText, nil
	}

	windows := chunker.ChunkBytes(data, s.maxChunkSize)
	rows := make([]model.Chunk, 0, len(windows))
	for i, window := range windows {
		rows = append(rows, model.Chunk{
			Username:     scope.Owner,
			SessionID:    scope.Session,
			RelativePath: fileName,
			Seq:          i,
			Size:         len(window),
			FileURL:      fileURL,
			Content:      hex.EncodeToString(window),
			Encoding:     model.EncodingHex,
		})
	}
	return rows, model.EncodingHex, nil
}

// extractText returns the file's text content and whether the file is
// text-like at all. Binary files return isText=false with no error;
// a structured format that fails extraction is an error.
func (s *IngestService) extractText(fileName string, data []byte) (string, bool, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		text, err := pdfextract.ExtractText(data)
		if err != nil {
			return "", false, err
		}
		return text, true, nil
	case ".txt", ".md", ".csv", ".log", ".json":
		return string(data), true, nil
	default:
		if utf8.Valid(data) {
			return string(data), true, nil
		}
		return "", false, nil
	}
}
