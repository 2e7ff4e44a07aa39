package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bryanwahyu/wifi-survey/internal/domain/shared"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
)

type scanRepo struct {
	locked func(func(*state) error) error
}

func (r *scanRepo) ExistingPairs(_ context.Context, environmentID int64) (surveys.PairSet, error) {
	set := surveys.NewPairSet()
	err := r.locked(func(s *state) error {
		for _, rec := range s.scans {
			if rec.EnvironmentID == environmentID {
				set.Add(rec.Pair())
			}
		}
		return nil
	})
	return set, err
}

func (r *scanRepo) InsertAll(_ context.Context, records []*surveys.ScanRecord) error {
	return r.locked(func(s *state) error {
		taken := map[int64]surveys.PairSet{}
		pairsOf := func(env int64) surveys.PairSet {
			if set, ok := taken[env]; ok {
				return set
			}
			set := surveys.NewPairSet()
			for _, rec := range s.scans {
				if rec.EnvironmentID == env {
					set.Add(rec.Pair())
				}
			}
			taken[env] = set
			return set
		}
		for _, rec := range records {
			if err := rec.CheckStorable(); err != nil {
				return err
			}
			if _, ok := s.envs[rec.EnvironmentID]; !ok {
				return shared.ErrNotFound
			}
			set := pairsOf(rec.EnvironmentID)
			if set.Has(rec.Pair()) {
				return surveys.ErrDuplicatePair
			}
			set.Add(rec.Pair())
		}

		now := time.Now().UTC()
		for _, rec := range records {
			s.nextScan++
			rec.ID = surveys.ScanID(s.nextScan)
			if rec.UploadedAt.IsZero() {
				rec.UploadedAt = now
			}
			s.scans[rec.ID] = copyScan(rec)
		}
		return nil
	})
}

func (r *scanRepo) Get(_ context.Context, id surveys.ScanID) (*surveys.ScanRecord, error) {
	var out *surveys.ScanRecord
	err := r.locked(func(s *state) error {
		rec, ok := s.scans[id]
		if !ok {
			return shared.ErrNotFound
		}
		out = copyScan(rec)
		return nil
	})
	return out, err
}

func (r *scanRepo) List(_ context.Context, environmentID int64, f surveys.ListFilter) (surveys.PaginatedResult, error) {
	f = f.Normalize()
	var matched []*surveys.ScanRecord
	err := r.locked(func(s *state) error {
		needle := strings.ToLower(strings.TrimSpace(f.Search))
		for _, rec := range s.scans {
			if rec.EnvironmentID != environmentID {
				continue
			}
			if f.RogueOnly && !rec.RogueAPPotential {
				continue
			}
			if needle != "" &&
				!strings.Contains(strings.ToLower(rec.BSSID), needle) &&
				!strings.Contains(strings.ToLower(rec.SSID), needle) {
				continue
			}
			matched = append(matched, copyScan(rec))
		}
		return nil
	})
	if err != nil {
		return surveys.PaginatedResult{}, err
	}
	sortNewestFirst(matched)

	total := len(matched)
	start := min(f.Offset(), total)
	end := min(start+f.PageSize, total)
	return surveys.PaginatedResult{
		Data:       matched[start:end],
		Page:       f.Page,
		PageSize:   f.PageSize,
		Total:      int64(total),
		TotalPages: int(math.Ceil(float64(total) / float64(f.PageSize))),
	}, nil
}

func (r *scanRepo) ListAll(_ context.Context, environmentID int64) ([]*surveys.ScanRecord, error) {
	var out []*surveys.ScanRecord
	err := r.locked(func(s *state) error {
		for _, rec := range s.scans {
			if rec.EnvironmentID == environmentID {
				out = append(out, copyScan(rec))
			}
		}
		return nil
	})
	sortNewestFirst(out)
	return out, err
}

func (r *scanRepo) Stats(_ context.Context, environmentID int64) (surveys.Stats, error) {
	var st surveys.Stats
	err := r.locked(func(s *state) error {
		networks := surveys.NewPairSet()
		for _, rec := range s.scans {
			if rec.EnvironmentID != environmentID {
				continue
			}
			st.TotalScans++
			networks.Add(rec.Pair())
			if rec.RogueAPPotential {
				st.RogueAPs++
			}
			if st.LastUpload == nil || rec.UploadedAt.After(*st.LastUpload) {
				at := rec.UploadedAt
				st.LastUpload = &at
			}
		}
		st.UniqueNetworks = len(networks)
		return nil
	})
	return st, err
}

func (r *scanRepo) UpdateRemarks(_ context.Context, id surveys.ScanID, remarks string) error {
	return r.locked(func(s *state) error {
		rec, ok := s.scans[id]
		if !ok {
			return shared.ErrNotFound
		}
		rec.Remarks = remarks
		return nil
	})
}

func (r *scanRepo) SetRogue(_ context.Context, ids []surveys.ScanID, rogue bool) (int64, error) {
	var n int64
	err := r.locked(func(s *state) error {
		for _, id := range ids {
			if rec, ok := s.scans[id]; ok {
				rec.RogueAPPotential = rogue
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *scanRepo) DeleteByEnvironment(_ context.Context, environmentID int64) (int64, error) {
	var n int64
	err := r.locked(func(s *state) error {
		n = s.deleteScans(environmentID)
		return nil
	})
	return n, err
}

func (s *state) deleteScans(environmentID int64) int64 {
	var n int64
	for id, rec := range s.scans {
		if rec.EnvironmentID == environmentID {
			delete(s.scans, id)
			n++
		}
	}
	return n
}

// sortNewestFirst orders by timestamp desc, then id asc
func sortNewestFirst(recs []*surveys.ScanRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Timestamp.Equal(recs[j].Timestamp) {
			return recs[i].Timestamp.After(recs[j].Timestamp)
		}
		return recs[i].ID < recs[j].ID
	})
}
