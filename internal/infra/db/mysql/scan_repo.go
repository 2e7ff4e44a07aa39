package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
)

const scanColumns = "id, environment_id, bssid, ssid, quality, `signal`, channel, encryption, " +
	"timestamp, remarks, rogue_ap_potential, uploaded_by, uploaded_at"

type ScanRepository struct {
	db dbtx
}

func NewScanRepository(db dbtx) *ScanRepository {
	return &ScanRepository{db: db}
}

// ExistingPairs loads the dedup keys of one environment
func (r *ScanRepository) ExistingPairs(ctx context.Context, environmentID int64) (surveys.PairSet, error) {
	const q = `SELECT bssid, ssid FROM scan_records WHERE environment_id=?`
	rows, err := r.db.QueryContext(ctx, q, environmentID)
	if err != nil {
		return nil, fmt.Errorf("querying pairs: %w", err)
	}
	defer rows.Close()

	set := surveys.NewPairSet()
	for rows.Next() {
		var p surveys.Pair
		if err := rows.Scan(&p.BSSID, &p.SSID); err != nil {
			return nil, fmt.Errorf("scanning pair: %w", err)
		}
		set.Add(p)
	}
	return set, rows.Err()
}

// InsertAll inserts records one by one and fills in their ids
func (r *ScanRepository) InsertAll(ctx context.Context, records []*surveys.ScanRecord) error {
	const q = "INSERT INTO scan_records\n" +
		"(environment_id, bssid, ssid, quality, `signal`, channel, encryption,\n" +
		" timestamp, remarks, rogue_ap_potential, uploaded_by, uploaded_at)\n" +
		"VALUES (?,?,?,?,?,?,?,?,?,?,?,?)"

	for _, s := range records {
		if err := s.CheckStorable(); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	for _, s := range records {
		if s.UploadedAt.IsZero() {
			s.UploadedAt = now
		}
		res, err := r.db.ExecContext(ctx, q,
			s.EnvironmentID, s.BSSID, s.SSID,
			nullInt(s.Quality), nullInt(s.Signal), nullInt(s.Channel),
			s.Encryption, s.Timestamp, s.Remarks, s.RogueAPPotential,
			s.UploadedBy, s.UploadedAt,
		)
		if isDuplicateKey(err) {
			return fmt.Errorf("inserting %s/%q: %w", s.BSSID, s.SSID, surveys.ErrDuplicatePair)
		}
		if err != nil {
			return fmt.Errorf("inserting scan: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading insert id: %w", err)
		}
		s.ID = surveys.ScanID(id)
	}
	return nil
}

func (r *ScanRepository) Get(ctx context.Context, id surveys.ScanID) (*surveys.ScanRecord, error) {
	q := "SELECT " + scanColumns + " FROM scan_records WHERE id=? LIMIT 1"
	s, err := scanRecord(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// List pages through records newest first
func (r *ScanRepository) List(ctx context.Context, environmentID int64, f surveys.ListFilter) (surveys.PaginatedResult, error) {
	f = f.Normalize()

	where := " WHERE environment_id=?"
	args := []any{environmentID}
	if f.RogueOnly {
		where += " AND rogue_ap_potential = TRUE"
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + escapeLikePattern(term) + "%"
		where += " AND (bssid LIKE ? OR ssid LIKE ?)"
		args = append(args, like, like)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scan_records"+where, args...).Scan(&total); err != nil {
		return surveys.PaginatedResult{}, fmt.Errorf("counting scans: %w", err)
	}

	q := "SELECT " + scanColumns + " FROM scan_records" + where +
		" ORDER BY timestamp DESC, id ASC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, f.PageSize, f.Offset())...)
	if err != nil {
		return surveys.PaginatedResult{}, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()

	data, err := scanRecords(rows)
	if err != nil {
		return surveys.PaginatedResult{}, err
	}
	return surveys.PaginatedResult{
		Data:       data,
		Page:       f.Page,
		PageSize:   f.PageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(f.PageSize))),
	}, nil
}

// ListAll returns every record of an environment, newest first
func (r *ScanRepository) ListAll(ctx context.Context, environmentID int64) ([]*surveys.ScanRecord, error) {
	q := "SELECT " + scanColumns + " FROM scan_records WHERE environment_id=? ORDER BY timestamp DESC, id ASC"
	rows, err := r.db.QueryContext(ctx, q, environmentID)
	if err != nil {
		return nil, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *ScanRepository) Stats(ctx context.Context, environmentID int64) (surveys.Stats, error) {
	const q = `
SELECT COUNT(*),
       COUNT(DISTINCT bssid, ssid),
       COALESCE(SUM(CASE WHEN rogue_ap_potential THEN 1 ELSE 0 END), 0),
       MAX(uploaded_at)
FROM scan_records
WHERE environment_id=?`
	var st surveys.Stats
	var last sql.NullTime
	if err := r.db.QueryRowContext(ctx, q, environmentID).Scan(&st.TotalScans, &st.UniqueNetworks, &st.RogueAPs, &last); err != nil {
		return surveys.Stats{}, fmt.Errorf("scan stats: %w", err)
	}
	if last.Valid {
		st.LastUpload = &last.Time
	}
	return st, nil
}

func (r *ScanRepository) UpdateRemarks(ctx context.Context, id surveys.ScanID, remarks string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE scan_records SET remarks=? WHERE id=?`, remarks, id)
	if err != nil {
		return fmt.Errorf("updating remarks: %w", err)
	}
	// MySQL reports 0 affected rows when the value is unchanged
	if err := requireAffected(res); err != nil {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return getErr
		}
	}
	return nil
}

// SetRogue flags the given ids and reports how many rows exist among them
func (r *ScanRepository) SetRogue(ctx context.Context, ids []surveys.ScanID, rogue bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, rogue)
	for _, id := range ids {
		args = append(args, id)
	}
	q := "UPDATE scan_records SET rogue_ap_potential=? WHERE id IN (" + placeholders(len(ids)) + ")"
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return 0, fmt.Errorf("updating rogue flag: %w", err)
	}

	var n int64
	cq := "SELECT COUNT(*) FROM scan_records WHERE id IN (" + placeholders(len(ids)) + ")"
	if err := r.db.QueryRowContext(ctx, cq, args[1:]...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting flagged scans: %w", err)
	}
	return n, nil
}

func (r *ScanRepository) DeleteByEnvironment(ctx context.Context, environmentID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scan_records WHERE environment_id=?`, environmentID)
	if err != nil {
		return 0, fmt.Errorf("deleting scans: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*surveys.ScanRecord, error) {
	var s surveys.ScanRecord
	var quality, signal, channel sql.NullInt64
	var remarks sql.NullString
	if err := row.Scan(
		&s.ID, &s.EnvironmentID, &s.BSSID, &s.SSID,
		&quality, &signal, &channel, &s.Encryption,
		&s.Timestamp, &remarks, &s.RogueAPPotential, &s.UploadedBy, &s.UploadedAt,
	); err != nil {
		return nil, err
	}
	s.Quality, s.Signal, s.Channel = intPtr(quality), intPtr(signal), intPtr(channel)
	s.Remarks = remarks.String
	return &s, nil
}

func scanRecords(rows *sql.Rows) ([]*surveys.ScanRecord, error) {
	var out []*surveys.ScanRecord
	for rows.Next() {
		s, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}
