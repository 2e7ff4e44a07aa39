package surveys

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// RequiredColumns must all appear in the header row, in any order
var RequiredColumns = []string{"bssid", "ssid", "quality", "signal", "channel", "encryption", "timestamp"}

const (
	msgEmptyFile      = "CSV file appears to be empty or invalid"
	msgMissingColumns = "Missing required columns: %s"
	msgReadFailure    = "Error reading CSV file: %v"
)

// Result is the outcome of ingesting one CSV file
type Result struct {
	Accepted   []*ScanRecord
	Errors     []string
	Duplicates int
	// Fatal marks a file-level schema error; Accepted is always empty then
	Fatal bool
}

// HasErrors reports whether any file or row level message was recorded
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// Ingest parses raw CSV text into validated scan records for one environment.
//
// existing is the snapshot of pairs already stored for the environment; it
// is not modified. Rows whose (bssid, ssid) pair is already known, either
// from the snapshot or from an earlier row of the same file, are counted as
// duplicates. Row level problems are reported as messages and the row is
// skipped; file level problems stop processing with nothing accepted.
// Only input that is not UTF-8 yields a non-nil error.
func Ingest(raw []byte, environmentID, uploaderID int64, existing PairSet) (Result, error) {
	text, err := decodeText(raw)
	if err != nil {
		return Result{}, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return fatal(msgEmptyFile), nil
	}
	if err != nil {
		return fatal(fmt.Sprintf(msgReadFailure, err)), nil
	}
	columns, missing := ValidateHeader(header)
	if len(missing) > 0 {
		return fatal(fmt.Sprintf(msgMissingColumns, strings.Join(missing, ", "))), nil
	}

	res := Result{}
	seen := existing.Clone()
	rowNum := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			res.Errors = append(res.Errors, rowError(rowNum, "Error processing row - %v", parseErr.Err))
			continue
		}
		if err != nil {
			return fatal(fmt.Sprintf(msgReadFailure, err)), nil
		}

		row := csvRow{columns: columns, values: record}
		scan, dup, msg := processRow(row, rowNum, seen)
		switch {
		case msg != "":
			res.Errors = append(res.Errors, msg)
		case dup:
			res.Duplicates++
		default:
			scan.EnvironmentID = environmentID
			scan.UploadedBy = uploaderID
			res.Accepted = append(res.Accepted, scan)
			seen.Add(scan.Pair())
		}
	}
	return res, nil
}

// ValidateHeader maps column names to their position and lists the
// required columns absent from header, sorted by name. A repeated
// column name resolves to its last position.
func ValidateHeader(header []string) (map[string]int, []string) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return columns, missing
}

func decodeText(raw []byte) ([]byte, error) {
	if !utf8.Valid(raw) {
		return nil, &DecodeError{Offset: firstInvalidByte(raw)}
	}
	text, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, &DecodeError{Offset: 0}
	}
	return text, nil
}

func firstInvalidByte(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}

func fatal(msg string) Result {
	return Result{Errors: []string{msg}, Fatal: true}
}

func rowError(n int, format string, args ...any) string {
	return fmt.Sprintf("Row %d: ", n) + fmt.Sprintf(format, args...)
}

// csvRow gives access to the values of one record by column name
type csvRow struct {
	columns map[string]int
	values  []string
}

func (r csvRow) get(name string) (string, error) {
	i, ok := r.columns[name]
	if !ok || i >= len(r.values) {
		return "", fmt.Errorf("missing value for column '%s'", name)
	}
	return r.values[i], nil
}

// processRow validates one data row. It returns either a record, a
// duplicate hit, or a non-empty row error message.
func processRow(row csvRow, n int, seen PairSet) (*ScanRecord, bool, string) {
	rawBSSID, err := row.get("bssid")
	if err != nil {
		return nil, false, rowError(n, "Error processing row - %v", err)
	}
	bssid := NormalizeBSSID(rawBSSID)
	if !ValidBSSID(bssid) {
		return nil, false, rowError(n, "Invalid BSSID format '%s'", bssid)
	}

	rawSSID, err := row.get("ssid")
	if err != nil {
		return nil, false, rowError(n, "Error processing row - %v", err)
	}
	ssid := strings.TrimSpace(rawSSID)

	if seen.Has(Pair{BSSID: bssid, SSID: ssid}) {
		return nil, true, ""
	}

	var ints [3]*int
	for i, name := range []string{"quality", "signal", "channel"} {
		raw, err := row.get(name)
		if err != nil {
			return nil, false, rowError(n, "Error processing row - %v", err)
		}
		v, err := optionalInt(name, raw)
		if err != nil {
			return nil, false, rowError(n, "Invalid numeric value - %v", err)
		}
		ints[i] = v
	}

	rawTS, err := row.get("timestamp")
	if err != nil {
		return nil, false, rowError(n, "Error processing row - %v", err)
	}
	ts, ok := ParseTimestamp(rawTS)
	if !ok {
		return nil, false, rowError(n, "Invalid timestamp format '%s'", strings.TrimSpace(rawTS))
	}

	enc, err := row.get("encryption")
	if err != nil {
		return nil, false, rowError(n, "Error processing row - %v", err)
	}

	return &ScanRecord{
		BSSID:      bssid,
		SSID:       ssid,
		Quality:    ints[0],
		Signal:     ints[1],
		Channel:    ints[2],
		Encryption: strings.TrimSpace(enc),
		Timestamp:  ts,
	}, false, ""
}

// optionalInt parses an integer column; blank means unset
func optionalInt(name, raw string) (*int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid integer for %s: '%s'", name, s)
	}
	return &v, nil
}
