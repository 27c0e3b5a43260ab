// Package corpus loads the pre-embedded subsidy corpus before the index is built.
package corpus

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/pkg/store"
)

const module = "Corpus"

// Required CSV header columns. embed holds a JSON float array.
const (
	columnID      = "id"
	columnName    = "name"
	columnSummary = "summary"
	columnEmbed   = "embed"
)

// ReadCSV parses rows in file order. Rows whose embedding cannot be decoded
// are skipped and logged; a missing column fails the whole read.
func ReadCSV(r io.Reader, log logger.ILogger) ([]store.Candidate, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{columnID, columnName, columnEmbed} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv is missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var candidates []store.Candidate
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			log.Warn(module, "Skipping unreadable row", map[string]interface{}{"line": line, "error": err.Error()})
			continue
		}

		id := field(record, columnID)
		var vector []float32
		if err := json.Unmarshal([]byte(field(record, columnEmbed)), &vector); err != nil || len(vector) == 0 {
			reason := "empty embedding"
			if err != nil {
				reason = err.Error()
			}
			log.Warn(module, "Skipping row with broken embedding", map[string]interface{}{"line": line, "id": id, "error": reason})
			continue
		}

		candidates = append(candidates, store.Candidate{
			ID:      id,
			Name:    field(record, columnName),
			Summary: field(record, columnSummary),
			Vector:  vector,
		})
	}

	return candidates, nil
}

func LoadCSV(path string, log logger.ILogger) ([]store.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	return ReadCSV(f, log)
}
