// Package reviews reads the restaurant review dataset.
package reviews

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mwiater/reviewrag/internal/apperr"
)

// Review is one dataset row. Row is the zero-based position after the header.
type Review struct {
	Row    int
	Title  string
	Body   string
	Rating float64
	Date   string
}

// columnAliases maps each required field to the header names accepted for it.
var columnAliases = map[string][]string{
	"title":  {"title"},
	"body":   {"review", "body", "text"},
	"rating": {"rating", "stars"},
	"date":   {"date"},
}

// Load reads and parses the CSV dataset at path.
func Load(path string) ([]Review, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperr.DataLoad("open dataset "+path, err)
	}
	defer file.Close()

	records, err := Parse(file)
	if err != nil {
		return nil, apperr.DataLoad("parse dataset "+path, err)
	}
	return records, nil
}

// Parse decodes CSV with a header row. Column matching is case-insensitive.
func Parse(r io.Reader) ([]Review, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var out []Review
	for row := 0; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		ratingText := strings.TrimSpace(fields[cols["rating"]])
		rating, err := strconv.ParseFloat(ratingText, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: rating %q is not numeric", row, ratingText)
		}
		out = append(out, Review{
			Row:    row,
			Title:  fields[cols["title"]],
			Body:   fields[cols["body"]],
			Rating: rating,
			Date:   strings.TrimSpace(fields[cols["date"]]),
		})
	}
	return out, nil
}

func resolveColumns(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	cols := make(map[string]int, len(columnAliases))
	var missing []string
	for _, field := range []string{"title", "body", "rating", "date"} {
		found := false
		for _, alias := range columnAliases[field] {
			if idx, ok := positions[alias]; ok {
				cols[field] = idx
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, columnAliases[field][0])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// Checksum returns the hex SHA-256 of the file at path.
func Checksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", apperr.DataLoad("checksum dataset "+path, err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", apperr.DataLoad("checksum dataset "+path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
