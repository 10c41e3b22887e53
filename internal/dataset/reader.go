// Package dataset adapts uncertain transactional databases between the
// mining core and the outside world: the reference text format and the
// synthetic generator.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/patternlab/puf-engine/internal/mining"
	"github.com/patternlab/puf-engine/pkg/models"
)

// Loader yields the transactions of an uncertain database.
type Loader interface {
	Load() ([]models.Transaction, error)
}

// FileLoader reads the reference line format: one transaction per line,
// separator-delimited tokens of the form itemId(probability) with the
// probability a decimal in (0, 1].
type FileLoader struct {
	Path string
	Sep  string // defaults to tab
}

func (l *FileLoader) Load() ([]models.Transaction, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mining.ErrInputUnavailable, err)
	}
	defer f.Close()
	return ReadTransactions(f, l.Sep)
}

// ReadTransactions parses every non-blank line of r as one transaction.
func ReadTransactions(r io.Reader, sep string) ([]models.Transaction, error) {
	if sep == "" {
		sep = "\t"
	}

	var db []models.Transaction
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tx, err := ParseTransaction(line, sep)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		db = append(db, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", mining.ErrInputUnavailable, err)
	}
	return db, nil
}

// ParseTransaction parses one line of itemId(probability) tokens. Duplicate
// items within a line are rejected rather than merged.
func ParseTransaction(line, sep string) (models.Transaction, error) {
	var tx models.Transaction
	seen := make(map[string]bool)
	for _, token := range strings.Split(line, sep) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		open := strings.Index(token, "(")
		closing := strings.LastIndex(token, ")")
		if open <= 0 || closing != len(token)-1 || closing <= open {
			return models.Transaction{}, fmt.Errorf("%w: token %q", mining.ErrMalformedRecord, token)
		}
		item := token[:open]
		prob, err := strconv.ParseFloat(token[open+1:closing], 64)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("%w: token %q: %v", mining.ErrMalformedRecord, token, err)
		}
		if prob <= 0 || prob > 1 {
			return models.Transaction{}, fmt.Errorf("%w: item %q has p=%v", mining.ErrProbabilityOutOfRange, item, prob)
		}
		if seen[item] {
			return models.Transaction{}, fmt.Errorf("%w: duplicate item %q", mining.ErrMalformedRecord, item)
		}
		seen[item] = true
		tx.Occurrences = append(tx.Occurrences, models.ItemOccurrence{Item: item, Probability: prob})
	}
	if len(tx.Occurrences) == 0 {
		return models.Transaction{}, fmt.Errorf("%w: no occurrences on line", mining.ErrMalformedRecord)
	}
	return tx, nil
}
