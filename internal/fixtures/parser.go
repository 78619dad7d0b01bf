// Package fixtures loads venue fixtures and serves them through the
// graph-search contract for local development and tests.
package fixtures

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alexivanou/sportslocations/internal/model"
)

// DefaultColumns is the language order of the name columns after the id
var DefaultColumns = []string{"fi", "sv", "en"}

// Parser parses venue TSV files: id followed by one name column per language
type Parser struct {
	columns []string
}

// NewParser creates a parser. Empty columns fall back to DefaultColumns.
func NewParser(columns []string) *Parser {
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	return &Parser{columns: columns}
}

// ParseFile parses a .tsv/.txt file or the first .tsv/.txt entry of a .zip archive
func (p *Parser) ParseFile(path string) ([]model.Location, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return p.parseZip(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	return p.Parse(file)
}

func (p *Parser) parseZip(zipPath string) ([]model.Location, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if strings.HasSuffix(f.Name, ".tsv") || strings.HasSuffix(f.Name, ".txt") {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open file in zip: %w", err)
			}
			defer rc.Close()
			return p.Parse(rc)
		}
	}

	return nil, fmt.Errorf("no tsv file found in zip")
}

// Parse reads venues from TSV. Comment lines start with '#'; rows without a
// positive numeric id are skipped, empty name cells are left out.
func (p *Parser) Parse(reader io.Reader) ([]model.Location, error) {
	scanner := bufio.NewScanner(reader)
	var locations []model.Location

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "\t")
		id, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || id <= 0 {
			continue
		}

		name := make(model.LocalizedName, len(p.columns))
		for i, lang := range p.columns {
			if i+1 >= len(parts) {
				break
			}
			if v := strings.TrimSpace(parts[i+1]); v != "" {
				name[lang] = v
			}
		}

		locations = append(locations, model.Location{ID: id, Name: name})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan venues: %w", err)
	}

	return locations, nil
}
