package memory

import (
	"github.com/bryanwahyu/wifi-survey/internal/domain/environments"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
	"github.com/bryanwahyu/wifi-survey/internal/domain/uploads"
	"github.com/bryanwahyu/wifi-survey/internal/domain/users"
)

type state struct {
	nextScan int64
	nextEnv  int64
	nextUser int64

	scans   map[surveys.ScanID]*surveys.ScanRecord
	envs    map[int64]*environments.Environment
	users   map[int64]*users.User
	batches []*uploads.Batch
}

func newState() *state {
	return &state{
		scans: map[surveys.ScanID]*surveys.ScanRecord{},
		envs:  map[int64]*environments.Environment{},
		users: map[int64]*users.User{},
	}
}

// clone deep-copies every row so a draft never aliases live data
func (s *state) clone() *state {
	out := &state{
		nextScan: s.nextScan,
		nextEnv:  s.nextEnv,
		nextUser: s.nextUser,
		scans:    make(map[surveys.ScanID]*surveys.ScanRecord, len(s.scans)),
		envs:     make(map[int64]*environments.Environment, len(s.envs)),
		users:    make(map[int64]*users.User, len(s.users)),
		batches:  make([]*uploads.Batch, 0, len(s.batches)),
	}
	for id, r := range s.scans {
		out.scans[id] = copyScan(r)
	}
	for id, e := range s.envs {
		c := *e
		out.envs[id] = &c
	}
	for id, u := range s.users {
		c := *u
		out.users[id] = &c
	}
	for _, b := range s.batches {
		out.batches = append(out.batches, copyBatch(b))
	}
	return out
}

func copyScan(r *surveys.ScanRecord) *surveys.ScanRecord {
	c := *r
	c.Quality = copyInt(r.Quality)
	c.Signal = copyInt(r.Signal)
	c.Channel = copyInt(r.Channel)
	return &c
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyBatch(b *uploads.Batch) *uploads.Batch {
	c := *b
	c.Errors = append([]string(nil), b.Errors...)
	return &c
}
