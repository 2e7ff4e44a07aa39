package surveys

import (
	"fmt"
	"time"
)

// ScanID identifies a persisted scan record
type ScanID int64

// Pair is the dedup key of a scan record within one environment
type Pair struct {
	BSSID string
	SSID  string
}

// PairSet is a set of dedup keys
type PairSet map[Pair]struct{}

// NewPairSet builds a set from the given pairs
func NewPairSet(pairs ...Pair) PairSet {
	s := make(PairSet, len(pairs))
	for _, p := range pairs {
		s.Add(p)
	}
	return s
}

func (s PairSet) Add(p Pair) { s[p] = struct{}{} }

func (s PairSet) Has(p Pair) bool {
	_, ok := s[p]
	return ok
}

// Clone returns an independent copy, nil-safe
func (s PairSet) Clone() PairSet {
	out := make(PairSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// ScanRecord is one access-point observation inside an environment.
// Only Remarks and RogueAPPotential change after it is persisted.
type ScanRecord struct {
	ID               ScanID    `json:"id"`
	EnvironmentID    int64     `json:"environment_id"`
	BSSID            string    `json:"bssid"`
	SSID             string    `json:"ssid"`
	Quality          *int      `json:"quality"`
	Signal           *int      `json:"signal"`
	Channel          *int      `json:"channel"`
	Encryption       string    `json:"encryption"`
	Timestamp        time.Time `json:"timestamp"`
	Remarks          string    `json:"remarks,omitempty"`
	RogueAPPotential bool      `json:"rogue_ap_potential"`
	UploadedBy       int64     `json:"uploaded_by"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// MaxSSIDBytes is the width of the stored ssid column, the 802.11 name limit
const MaxSSIDBytes = 32

// CheckStorable reports whether the record fits the storage columns.
// The ingestion engine accepts any ssid; only persistence is bounded.
func (r *ScanRecord) CheckStorable() error {
	if len(r.SSID) > MaxSSIDBytes {
		return fmt.Errorf("%s/%q: %w", r.BSSID, r.SSID, ErrSSIDTooLong)
	}
	return nil
}

// Pair returns the dedup key of the record
func (r *ScanRecord) Pair() Pair {
	return Pair{BSSID: r.BSSID, SSID: r.SSID}
}

// DisplayEncryption substitutes "Open" for an empty label
func (r *ScanRecord) DisplayEncryption() string {
	if r.Encryption == "" {
		return "Open"
	}
	return r.Encryption
}

// Stats aggregates the records of one environment
type Stats struct {
	TotalScans     int        `json:"total_scans"`
	UniqueNetworks int        `json:"unique_networks"`
	RogueAPs       int        `json:"rogue_aps"`
	LastUpload     *time.Time `json:"last_upload,omitempty"`
}

// ListFilter narrows List results
type ListFilter struct {
	Page      int
	PageSize  int
	RogueOnly bool
	Search    string // matched against bssid and ssid
}
