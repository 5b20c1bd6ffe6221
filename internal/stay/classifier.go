package stay

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Category is the acuity classification of a clinical specialty.
type Category int

const (
	// CategoryUnknown is returned for codes absent from the classification
	// table. Unknown segments are excluded from acute-stay computation; they
	// must never default to acute.
	CategoryUnknown Category = iota
	CategoryAcute
	CategoryNonAcute
)

// String returns the table label for a category.
func (c Category) String() string {
	switch c {
	case CategoryAcute:
		return "acute"
	case CategoryNonAcute:
		return "nonacute"
	default:
		return "unknown"
	}
}

// Classifier maps specialty codes to acuity categories. It is loaded once
// and read-only afterwards, so it is safe to share across patient workers.
type Classifier struct {
	table map[string]Category
}

// NewClassifier builds a classifier from an already-parsed table.
func NewClassifier(table map[string]Category) *Classifier {
	t := make(map[string]Category, len(table))
	for code, cat := range table {
		t[strings.TrimSpace(code)] = cat
	}
	return &Classifier{table: t}
}

// Classify is a total lookup: codes missing from the table classify as
// CategoryUnknown rather than failing. The table is not exhaustive.
func (c *Classifier) Classify(code string) Category {
	if cat, ok := c.table[strings.TrimSpace(code)]; ok {
		return cat
	}
	return CategoryUnknown
}

// Len returns the number of classified specialty codes.
func (c *Classifier) Len() int {
	return len(c.table)
}

// LoadClassifierFile loads a specialty classification table from a CSV file
// with rows of the form "specialty,category" where category is acute or
// nonacute. A header row naming the first column "specialty" is skipped.
func LoadClassifierFile(path string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open classification table: %w", err)
	}
	defer f.Close()

	c, err := readClassifierCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse classification table %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("specialties", c.Len()).
		Msg("Loaded specialty classification table")
	return c, nil
}

func readClassifierCSV(r io.Reader) (*Classifier, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	table := make(map[string]Category)
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		code := strings.TrimSpace(rec[0])
		label := strings.ToLower(strings.TrimSpace(rec[1]))
		if line == 1 && strings.EqualFold(code, "specialty") {
			continue
		}

		switch label {
		case "acute":
			table[code] = CategoryAcute
		case "nonacute", "non-acute":
			table[code] = CategoryNonAcute
		default:
			log.Warn().
				Str("specialty", code).
				Str("category", label).
				Msg("Skipping classification row with unrecognized category")
		}
	}

	return NewClassifier(table), nil
}
