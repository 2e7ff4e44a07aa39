package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/wifi-survey/internal/domain/advisor"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
)

// MaxListed caps the access points sent in one prompt
const MaxListed = 200

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a wireless security analyst reviewing a WiFi site survey. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- Flag access points that may be rogue: SSIDs imitating another network with a different BSSID vendor prefix, open or WEP networks carrying corporate-looking names, unusually strong signals on unexpected channels.
- confidence is one of: low, medium, high.
- Only list BSSIDs that appear in the input.
- If nothing looks suspicious return an empty suggestions array.

Schema (example with empty values):
{
  "summary": "<string>",
  "suggestions": [
    {"bssid": "<XX:XX:XX:XX:XX:XX>", "ssid": "<string>", "reason": "<string>", "confidence": "<low|medium|high>"}
  ]
}`
}

// GetUserPrompt lists the access points of one environment, one per line
func GetUserPrompt(envName string, records []*surveys.ScanRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Environment: %s\n", envName)
	fmt.Fprintf(&b, "Access points (bssid | ssid | signal dBm | channel | encryption | flagged):\n")
	for i, r := range records {
		if i == MaxListed {
			fmt.Fprintf(&b, "... %d more omitted\n", len(records)-MaxListed)
			break
		}
		ssid := r.SSID
		if ssid == "" {
			ssid = "<hidden>"
		}
		fmt.Fprintf(&b, "%s | %s | %s | %s | %s | %t\n",
			r.BSSID, ssid, intOrNA(r.Signal), intOrNA(r.Channel), r.DisplayEncryption(), r.RogueAPPotential)
	}
	return b.String()
}

func intOrNA(p *int) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprint(*p)
}

// ParseAdvice decodes the model answer and drops suggestions naming
// BSSIDs that were not part of the input.
func ParseAdvice(content string, records []*surveys.ScanRecord) (*advisor.Advice, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var out advisor.Advice
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("failed to decode advice: %w", err)
	}

	known := make(map[string]struct{}, len(records))
	for _, r := range records {
		known[r.BSSID] = struct{}{}
	}
	kept := out.Suggestions[:0]
	for _, s := range out.Suggestions {
		s.BSSID = surveys.NormalizeBSSID(s.BSSID)
		if _, ok := known[s.BSSID]; !ok {
			continue
		}
		switch s.Confidence {
		case "low", "medium", "high":
		default:
			s.Confidence = "low"
		}
		kept = append(kept, s)
	}
	out.Suggestions = kept
	if out.Suggestions == nil {
		out.Suggestions = []advisor.Suggestion{}
	}
	return &out, nil
}
