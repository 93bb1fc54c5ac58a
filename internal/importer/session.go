package importer

import (
	"context"
	"fmt"

	"fjacquet/fintrack/internal/categorizer"
	"fjacquet/fintrack/internal/csvimport"
	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"
	"fjacquet/fintrack/internal/store"
)

// PreviewStats summarizes a preview for display.
type PreviewStats struct {
	Total        int `json:"total"`
	Valid        int `json:"valid"`
	Invalid      int `json:"invalid"`
	Duplicates   int `json:"duplicates"`
	Suggested    int `json:"suggested"`
	AutoSelected int `json:"auto_selected"`
}

// Preview is the reviewable outcome of mapping and duplicate detection.
type Preview struct {
	Config models.ImportConfig           `json:"config"`
	Rows   []models.CandidateTransaction `json:"rows"`
	Stats  PreviewStats                  `json:"stats"`
}

// Stats computes the preview counters for rows.
func Stats(rows []models.CandidateTransaction) PreviewStats {
	s := PreviewStats{Total: len(rows)}
	for _, r := range rows {
		if !r.IsValid {
			s.Invalid++
			continue
		}
		s.Valid++
		if r.IsDuplicate {
			s.Duplicates++
		}
		if r.SuggestedCategoryID != nil {
			s.Suggested++
		}
		if r.AutoSelected {
			s.AutoSelected++
		}
	}
	return s
}

// SelectDefault returns the rows selected when the user makes no explicit
// choice: valid rows not flagged as duplicates.
func SelectDefault(rows []models.CandidateTransaction) []models.CandidateTransaction {
	selected := make([]models.CandidateTransaction, 0, len(rows))
	for _, r := range rows {
		if r.IsValid && !r.IsDuplicate {
			selected = append(selected, r)
		}
	}
	return selected
}

// DefaultConfig builds an import configuration from what was detected in file.
func DefaultConfig(accountID string, file *csvimport.ParsedFile) models.ImportConfig {
	return models.ImportConfig{
		AccountID:     accountID,
		Delimiter:     file.Delimiter,
		HasHeader:     file.HasHeader,
		DateFormat:    file.DateFormat,
		ColumnMapping: csvimport.SuggestMapping(file.Header),
	}
}

// Session runs the import pipeline: map, detect duplicates, commit.
type Session struct {
	store     store.Store
	engine    *categorizer.Engine
	detector  *DuplicateDetector
	committer *Committer
	mapperCfg MapperConfig
	logger    logging.Logger
}

// NewSession creates a Session. engine may be nil to skip categorization.
func NewSession(s store.Store, engine *categorizer.Engine, mapperCfg MapperConfig, batchSize int, logger logging.Logger) *Session {
	logger = logging.OrDefault(logger)
	return &Session{
		store:     s,
		engine:    engine,
		detector:  NewDuplicateDetector(s, logger),
		committer: NewCommitter(s, batchSize, logger),
		mapperCfg: mapperCfg,
		logger:    logger,
	}
}

// Preview maps every row of file and flags duplicates. Nothing is written.
func (s *Session) Preview(ctx context.Context, userID string, file *csvimport.ParsedFile, cfg models.ImportConfig) (*Preview, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := store.OwnedAccount(ctx, s.store, userID, cfg.AccountID); err != nil {
		return nil, err
	}

	var cat Categorizer
	if s.engine != nil {
		snap, err := s.engine.Snapshot(ctx, userID)
		if err != nil {
			return nil, err
		}
		cat = snap
	}

	rows, err := NewMapper(cat, s.mapperCfg, s.logger).Map(ctx, userID, file, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.detector.MarkDuplicates(ctx, cfg.AccountID, rows); err != nil {
		return nil, fmt.Errorf("error detecting duplicates: %w", err)
	}

	preview := &Preview{Config: cfg, Rows: rows, Stats: Stats(rows)}
	s.logger.Info("Import preview ready",
		logging.F(logging.FieldAccountID, cfg.AccountID),
		logging.F(logging.FieldCount, preview.Stats.Total),
		logging.F("valid", preview.Stats.Valid),
		logging.F("duplicates", preview.Stats.Duplicates))
	return preview, nil
}

// Commit inserts rows into the account. See Committer.Commit.
func (s *Session) Commit(ctx context.Context, userID, accountID string, rows []models.CandidateTransaction) (CommitResult, error) {
	return s.committer.Commit(ctx, userID, accountID, rows)
}
