// Package csvsource reads daily closing prices from CSV exports such as
// the JPX index history files.
package csvsource

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/zappabad/daytrader/internal/history"
)

const (
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift_jis"
)

// footerPrefix marks the disclaimer line JPX appends to its exports.
const footerPrefix = "本資料は"

var headerAliases = map[string]string{
	"日付": "Date",
	"終値": "Close",
}

// Options controls how a CSV file is decoded.
type Options struct {
	// Encoding is the file encoding, EncodingUTF8 (default) or EncodingShiftJIS.
	Encoding string
}

type dailyRowDTO struct {
	Date  string `csv:"Date"`
	Close string `csv:"Close"`
}

// LoadFile reads one series from a CSV file.
func LoadFile(path string, opts Options) (history.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	series, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return series, nil
}

// LoadFiles reads one series per path, in order; the index in the result
// is the data source index.
func LoadFiles(paths []string, opts Options) ([]history.Series, error) {
	out := make([]history.Series, 0, len(paths))
	for _, p := range paths {
		s, err := LoadFile(p, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Parse reads a CSV with a date column and a close column. Rows whose close
// is missing or not a number are skipped.
func Parse(r io.Reader, opts Options) (history.Series, error) {
	switch strings.ToLower(opts.Encoding) {
	case "", EncodingUTF8:
	case EncodingShiftJIS, "sjis":
		r = transform.NewReader(r, japanese.ShiftJIS.NewDecoder())
	default:
		return nil, fmt.Errorf("unsupported encoding %q", opts.Encoding)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	body := normalize(raw)
	if len(body) == 0 {
		return history.Series{}, nil
	}

	reader := csv.NewReader(bytes.NewReader(body))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows []dailyRowDTO
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, err
	}

	series := make(history.Series, 0, len(rows))
	for _, row := range rows {
		closeStr := strings.TrimSpace(row.Close)
		if closeStr == "" {
			continue
		}
		v, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			continue
		}
		d := history.DailyClose{Date: strings.TrimSpace(row.Date), Close: v}
		if !d.Valid() {
			continue
		}
		series = append(series, d)
	}
	return series, nil
}

// normalize strips the BOM, blank and footer lines, and maps Japanese
// header names to the English column names.
func normalize(raw []byte) []byte {
	text := strings.TrimPrefix(string(raw), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var b strings.Builder
	header := true
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, footerPrefix) {
			continue
		}
		if header {
			cols := strings.Split(line, ",")
			for i, c := range cols {
				name := strings.Trim(strings.TrimSpace(c), `"`)
				if alias, ok := headerAliases[name]; ok {
					name = alias
				}
				cols[i] = name
			}
			line = strings.Join(cols, ",")
			header = false
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
