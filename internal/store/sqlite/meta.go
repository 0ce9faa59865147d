package sqlite

import (
	"encoding/json"
	"strings"

	"github.com/spigell/selection-pipeline/internal/funnel"
)

// Passthrough metadata lives in a single JSON column here; the sheets driver
// keeps it as extra columns instead.

func encodeMeta(cand *funnel.Candidate) (string, error) {
	if len(cand.Meta) == 0 {
		return "", nil
	}
	encoded, err := json.Marshal(cand.Meta)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeMeta(raw string, cand *funnel.Candidate) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), &cand.Meta)
}
