package services

import "github.com/custodia-labs/metasync/internal/core/domain"

// ClassifyRows splits rows into deleted object identities and rows whose
// objects may need re-indexing. Input order is kept in both outputs.
func ClassifyRows(rows []domain.ChangeRow) (deletions []domain.DocumentID, candidates []domain.ChangeRow) {
	for _, row := range rows {
		if row.Deleted {
			deletions = append(deletions, row.Identity())
			continue
		}
		candidates = append(candidates, row)
	}
	return deletions, candidates
}
