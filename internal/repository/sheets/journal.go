package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/viberbot/internal/domain/models"
)

// JournalRange is where delivery journal rows live.
const JournalRange = "Journal!A:F"

// Journal records outbound sends and delivery callbacks as sheet rows.
type Journal struct {
	repo   Repository
	logger *zap.Logger
}

// NewJournal wraps a sheet repository.
func NewJournal(repo Repository, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{repo: repo, logger: logger}
}

// Append writes entries as consecutive rows in one call.
func (j *Journal) Append(ctx context.Context, entries ...models.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(entries))
	for i, entry := range entries {
		if entry.Time.IsZero() {
			entry.Time = time.Now()
		}
		rows[i] = entry.Row()
	}
	if err := j.repo.AppendRows(ctx, JournalRange, rows); err != nil {
		return fmt.Errorf("append %d journal entries: %w", len(entries), err)
	}
	return nil
}

// Entries returns the entries with start <= time < end. Rows that cannot be
// parsed, such as a header row, are skipped.
func (j *Journal) Entries(ctx context.Context, start, end time.Time) ([]models.JournalEntry, error) {
	rows, err := j.repo.ReadRange(ctx, JournalRange)
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}

	entries := make([]models.JournalEntry, 0, len(rows))
	for i, row := range rows {
		entry, err := models.ParseJournalRow(row)
		if err != nil {
			j.logger.Debug("skip journal row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		if entry.Time.Before(start) || !entry.Time.Before(end) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
