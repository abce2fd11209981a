package publish

import (
	"read-articles/internal/models"
)

// Listing is a ledger row together with what is known about its audio file.
type Listing struct {
	models.Episode
	SizeBytes       int64 `json:"size_bytes"`
	DurationSeconds int   `json:"duration_seconds"`
	Estimated       bool  `json:"duration_estimated"`
	Missing         bool  `json:"missing"`
}

// ListEpisodes returns every ledger row, newest first, with probed audio
// details.
func (p *Publisher) ListEpisodes() ([]Listing, error) {
	rows, err := p.ledger.LoadAll()
	if err != nil {
		return nil, err
	}
	out := make([]Listing, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		info, ok := p.probe(rows[i])
		out = append(out, Listing{
			Episode:         rows[i],
			SizeBytes:       info.SizeBytes,
			DurationSeconds: info.DurationSeconds,
			Estimated:       info.Estimated,
			Missing:         !ok,
		})
	}
	return out, nil
}
