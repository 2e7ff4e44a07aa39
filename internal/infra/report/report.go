// Package report renders an environment's scan records for download.
package report

import (
	"bytes"
	"embed"
	"encoding/csv"
	"fmt"
	"html/template"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bryanwahyu/wifi-survey/internal/domain/environments"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
)

// Format of an exported report
type Format string

const (
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts html (default when empty) or csv
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

// ContentType of the rendered document
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "text/html; charset=utf-8"
}

// Data is everything a report shows
type Data struct {
	Environment *environments.Environment
	CreatorName string
	Records     []*surveys.ScanRecord
	GeneratedAt time.Time
}

// Totals shown in the report header
type Totals struct {
	TotalScans     int
	UniqueNetworks int
	RogueAPs       int
}

// Totals counts records, distinct (bssid, ssid) networks and flagged rows
func (d Data) Totals() Totals {
	t := Totals{TotalScans: len(d.Records)}
	seen := surveys.NewPairSet()
	for _, r := range d.Records {
		seen.Add(r.Pair())
		if r.RogueAPPotential {
			t.RogueAPs++
		}
	}
	t.UniqueNetworks = len(seen)
	return t
}

// Render produces the document in the requested format
func Render(f Format, d Data) ([]byte, error) {
	switch f {
	case FormatCSV:
		return renderCSV(d)
	default:
		return renderHTML(d)
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName is the download name, e.g. wifi_scan_report_HQ_20240115_103000.html
func FileName(f Format, d Data) string {
	name := unsafeName.ReplaceAllString(d.Environment.Name, "_")
	return fmt.Sprintf("wifi_scan_report_%s_%s.%s", name, d.GeneratedAt.Format("20060102_150405"), f)
}

//go:embed templates/report.html
var templatesFS embed.FS

var htmlTemplate = template.Must(template.New("report.html").Funcs(template.FuncMap{
	"qualityClass":    qualityClass,
	"signalClass":     signalClass,
	"encryptionClass": encryptionClass,
	"stamp":           func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
	"day":             func(t time.Time) string { return t.Format("2006-01-02 15:04") },
}).ParseFS(templatesFS, "templates/report.html"))

func renderHTML(d Data) ([]byte, error) {
	var buf bytes.Buffer
	view := struct {
		Data
		Totals Totals
	}{Data: d, Totals: d.Totals()}
	if err := htmlTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}
	return buf.Bytes(), nil
}

// csvHeader matches the upload format so an export can be re-imported
var csvHeader = []string{
	"bssid", "ssid", "quality", "signal", "channel", "encryption", "timestamp",
	"remarks", "rogue_ap_potential",
}

func renderCSV(d Data) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range d.Records {
		row := []string{
			r.BSSID,
			r.SSID,
			optional(r.Quality),
			optional(r.Signal),
			optional(r.Channel),
			r.Encryption,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Remarks,
			strconv.FormatBool(r.RogueAPPotential),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("render csv report: %w", err)
	}
	return buf.Bytes(), nil
}

func optional(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func qualityClass(p *int) string {
	switch {
	case p != nil && *p > 70:
		return "success"
	case p != nil && *p > 40:
		return "warning"
	default:
		return "danger"
	}
}

func signalClass(p *int) string {
	switch {
	case p != nil && *p > -50:
		return "success"
	case p != nil && *p > -70:
		return "warning"
	default:
		return "danger"
	}
}

func encryptionClass(enc string) string {
	switch {
	case strings.Contains(enc, "WPA"):
		return "success"
	case strings.Contains(enc, "WEP"):
		return "warning"
	default:
		return "danger"
	}
}
