package anonymize

import (
	"bufio"
	"os"
	"strings"

	"dcmsort/pkg/errors"
	"dcmsort/pkg/logging"
)

// Table maps original patient identifiers to replacements. It is loaded
// once before the run and shared read-only across workers.
type Table map[string]string

// Replace looks up id in the table. Lookup is a total function with an
// identity default: an unmapped identifier comes back unchanged.
func (t Table) Replace(id string) (string, bool) {
	if t == nil {
		return id, false
	}
	replacement, ok := t[id]
	if !ok {
		return id, false
	}
	return replacement, true
}

// LoadTable reads a correlation file: one mapping per line, old and new
// identifier separated by comma, space, or tab. Blank lines are
// skipped; lines with fewer than two fields are logged and skipped.
// When the same old identifier appears on multiple lines the last line
// wins, matching the streaming load order.
func LoadTable(path string) (Table, error) {
	logger := logging.GetLogger("anonymize.table")

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCorrelationParse, "failed to open correlation file %s", path)
	}
	defer func() { _ = f.Close() }()

	table := make(Table)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := splitMapping(line)
		if len(parts) < 2 {
			logger.Warn().
				Int("line", lineNo).
				Str("content", line).
				Msg("Invalid correlation line, skipping")
			continue
		}
		table[parts[0]] = parts[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCorrelationParse, "failed to read correlation file %s", path)
	}

	logger.Info().
		Str("path", path).
		Int("entries", len(table)).
		Msg("Loaded correlation table")
	return table, nil
}

// splitMapping splits a line on any run of commas, spaces, or tabs
func splitMapping(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
