package library

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/papershelf/internal/paper"
)

// Rejection describes an input record that was not imported.
type Rejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// ImportResult summarizes an Import.
type ImportResult struct {
	Added    int         `json:"added"`
	Skipped  int         `json:"skipped"`
	Rejected []Rejection `json:"rejected"`
}

// Import adds every record in raws with the same rules as Add, in a single
// write, except that a record's own savedAt or dateAdded is kept. Duplicates, including duplicates within raws, are skipped. Invalid
// records are rejected without affecting the rest.
func (l *Library) Import(ctx context.Context, raws []any) (ImportResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, _, err := l.load(ctx)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{Rejected: []Rejection{}}
	for i, raw := range raws {
		in, ok := paper.AsRecord(raw)
		if !ok {
			result.Rejected = append(result.Rejected, Rejection{
				Index:  i,
				Reason: fmt.Sprintf("not a JSON object: %T", raw),
			})
			continue
		}

		rec, _, err := l.prepare(in, false)
		if err != nil {
			result.Rejected = append(result.Rejected, Rejection{Index: i, Reason: err.Error(), Err: err})
			continue
		}
		if findDuplicate(records, rec) >= 0 {
			result.Skipped++
			continue
		}

		records = append(records, rec)
		result.Added++
	}

	if result.Added > 0 {
		if err := l.save(ctx, records); err != nil {
			return ImportResult{}, err
		}
	}

	l.logger.Info("import complete",
		zap.Int("added", result.Added),
		zap.Int("skipped", result.Skipped),
		zap.Int("rejected", len(result.Rejected)),
	)
	return result, nil
}
