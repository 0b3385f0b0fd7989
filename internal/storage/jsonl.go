// Package storage reads and writes paper collections as files: a JSON array
// or JSON Lines, one record per line.
package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadRecords reads raw records from a JSON array or JSONL file.
// A missing file yields an empty collection.
func ReadRecords(path string) ([]any, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []any{}, nil
		}
		return nil, fmt.Errorf("opening records file: %w", err)
	}
	defer f.Close()

	return DecodeRecords(f)
}

// DecodeRecords reads raw records from r. Input starting with "[" is a JSON
// array; anything else is JSONL. Elements are returned undecoded beyond
// generic JSON, so legacy and malformed records survive for the migrator.
func DecodeRecords(r io.Reader) ([]any, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	if first == '[' {
		var records []any
		if err := json.NewDecoder(br).Decode(&records); err != nil {
			return nil, fmt.Errorf("parsing JSON array: %w", err)
		}
		if records == nil {
			records = []any{}
		}
		return records, nil
	}

	records := []any{}
	scanner := bufio.NewScanner(br)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var record any
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	return records, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// EncodeJSONL writes one compact JSON document per record.
func EncodeJSONL[T any](w io.Writer, records []T) error {
	for i, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	return nil
}

// EncodeJSON writes records as an indented JSON array.
func EncodeJSON[T any](w io.Writer, records []T) error {
	if records == nil {
		records = []T{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	return nil
}

// WriteJSONL writes records to a JSONL file atomically.
func WriteJSONL[T any](path string, records []T) error {
	return writeAtomic(path, func(w io.Writer) error {
		return EncodeJSONL(w, records)
	})
}

// WriteJSON writes records to an indented JSON file atomically.
func WriteJSON[T any](path string, records []T) error {
	return writeAtomic(path, func(w io.Writer) error {
		return EncodeJSON(w, records)
	})
}

// writeAtomic writes through a temp file in the target directory and renames
// it into place, so readers never see a partial file.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmpFile)
	if err := write(bw); err != nil {
		tmpFile.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("flushing temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}
