// Package dataset reads and writes the CSV files exchanged between the
// preparation and prediction stages.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xhad/intentprep/internal/models"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrColumnIndex   = errors.New("content column out of range")
)

var contextHeader = []string{"document_index", "context_index", "contexts"}

// LoadDocuments reads the content column of a CSV file with a header row.
// A negative contentIndex counts from the last column.
func LoadDocuments(path string, contentIndex int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open documents: %w", err)
	}
	defer f.Close()

	return ReadDocuments(f, contentIndex)
}

func ReadDocuments(r io.Reader, contentIndex int) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	column := contentIndex
	if column < 0 {
		column += len(header)
	}
	if column < 0 || column >= len(header) {
		return nil, fmt.Errorf("%w: %d of %d", ErrColumnIndex, contentIndex, len(header))
	}

	var documents []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(documents)+1, err)
		}

		// Short rows carry an empty document so indexes stay aligned.
		if column < len(record) {
			documents = append(documents, record[column])
		} else {
			documents = append(documents, "")
		}
	}

	return documents, nil
}

// SaveContexts writes the context dataset with the columns
// document_index, context_index, contexts.
func SaveContexts(path string, set *models.ContextSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create contexts file: %w", err)
	}

	if err := WriteContexts(f, set); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func WriteContexts(w io.Writer, set *models.ContextSet) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(contextHeader); err != nil {
		return err
	}
	for i, index := range set.Indexes {
		row := []string{
			strconv.Itoa(index.DocumentIndex),
			strconv.Itoa(index.ContextIndex),
			set.Contexts[i],
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write context %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// LoadContexts reads a context dataset. Columns are located by name, so
// files with an extra leading row-number column load as well.
func LoadContexts(path string) (*models.ContextSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open contexts: %w", err)
	}
	defer f.Close()

	return ReadContexts(f)
}

func ReadContexts(r io.Reader) (*models.ContextSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]int, len(contextHeader))
	for i, name := range contextHeader {
		columns[i] = -1
		for j, field := range header {
			if strings.TrimSpace(field) == name {
				columns[i] = j
				break
			}
		}
		if columns[i] < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	set := &models.ContextSet{}
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}

		var values [3]string
		for i, column := range columns {
			if column >= len(record) {
				return nil, fmt.Errorf("row %d: %w: %s", row, ErrMissingColumn, contextHeader[i])
			}
			values[i] = record[column]
		}

		documentIndex, err := strconv.Atoi(values[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid document_index: %w", row, err)
		}
		contextIndex, err := strconv.Atoi(values[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid context_index: %w", row, err)
		}

		set.Contexts = append(set.Contexts, values[2])
		set.Indexes = append(set.Indexes, models.ContextIndex{
			DocumentIndex: documentIndex,
			ContextIndex:  contextIndex,
		})
	}

	return set, nil
}

// SaveVector writes one value per line with six decimals and no header.
func SaveVector(path string, values []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create vector file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, v := range values {
		if _, err := fmt.Fprintf(w, "%.6f\n", v); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadVector reads a single-column file without header, such as soft labels.
func LoadVector(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector: %w", err)
	}
	defer f.Close()

	var values []float64
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		values = append(values, v)
	}

	return values, scanner.Err()
}
