package surveys

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bryanwahyu/wifi-survey/internal/application"
	"github.com/bryanwahyu/wifi-survey/internal/domain/shared"
	"github.com/bryanwahyu/wifi-survey/internal/domain/store"
	domain "github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
	"github.com/bryanwahyu/wifi-survey/internal/domain/uploads"
	"github.com/bryanwahyu/wifi-survey/internal/infra/report"
	"github.com/bryanwahyu/wifi-survey/internal/logger"
)

// MaxRemarksLength bounds the free-text annotation of a record
const MaxRemarksLength = 1000

const (
	msgDecodeFailure = "Error reading file. Please ensure it is a valid UTF-8 encoded CSV file."
	msgAllDuplicates = "No new scans to upload. All %d scans were duplicates."
	msgNoData        = "No valid scan data found in the uploaded file."
	msgUploaded      = "Successfully uploaded %d new scan(s)."
	msgSkipped       = " Skipped %d duplicate(s)."
	msgSaveFailure   = "Error saving scan data. Please try again."
)

// Service implements the survey use cases: upload, review, annotation and export.
// It is safe for concurrent use.
type Service struct {
	Store   store.Store
	Archive domain.ArchiveStore // optional
	Clock   application.Clock
	Metrics application.IngestMetrics
	Log     *logger.Logger
}

func NewService(st store.Store, archive domain.ArchiveStore, clock application.Clock, metrics application.IngestMetrics, log *logger.Logger) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if metrics == nil {
		metrics = application.NopMetrics{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{Store: st, Archive: archive, Clock: clock, Metrics: metrics, Log: log}
}

// UploadCommand carries one CSV file into an environment
type UploadCommand struct {
	EnvironmentID int64
	UploaderID    int64
	FileName      string
	Content       []byte
}

// UploadResult reports what happened to an upload
type UploadResult struct {
	BatchID    string         `json:"batch_id"`
	Status     uploads.Status `json:"status"`
	Accepted   int            `json:"accepted"`
	Duplicates int            `json:"duplicates"`
	Errors     []string       `json:"errors,omitempty"`
	Message    string         `json:"message"`
	ArchiveURL string         `json:"archive_url,omitempty"`
}

// Upload runs the ingestion engine and applies the all-or-nothing policy:
// any file or row error discards the whole file. Accepted records and the
// batch entry are written in one transaction. A unique violation caused by
// a concurrent upload rolls everything back and yields ErrConcurrentUpload.
func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (*UploadResult, error) {
	env, err := s.Store.Environments().Get(ctx, cmd.EnvironmentID)
	if err != nil {
		return nil, fmt.Errorf("environment %d: %w", cmd.EnvironmentID, err)
	}
	existing, err := s.Store.Scans().ExistingPairs(ctx, env.ID)
	if err != nil {
		return nil, fmt.Errorf("loading existing pairs: %w", err)
	}

	batch := &uploads.Batch{
		ID:            uuid.NewString(),
		EnvironmentID: env.ID,
		UploadedBy:    cmd.UploaderID,
		FileName:      cmd.FileName,
		CreatedAt:     s.Clock.Now(),
	}
	batch.ArchiveURL = s.archiveUpload(ctx, batch, cmd.Content)

	res, err := domain.Ingest(cmd.Content, env.ID, cmd.UploaderID, existing)
	var decodeErr *domain.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		s.Log.Warn("upload is not utf-8", "batch", batch.ID, "offset", decodeErr.Offset)
		batch.Status = uploads.StatusFailed
		batch.Errors = []string{msgDecodeFailure}
	case err != nil:
		return nil, err
	case res.HasErrors():
		batch.Status = uploads.StatusRejected
		batch.Errors = res.Errors
	case len(res.Accepted) == 0 && res.Duplicates > 0:
		batch.Status = uploads.StatusDuplicatesOnly
	case len(res.Accepted) == 0:
		batch.Status = uploads.StatusEmpty
	default:
		batch.Status = uploads.StatusAccepted
	}
	batch.Duplicates = res.Duplicates
	batch.ErrorCount = len(batch.Errors)

	if batch.Status == uploads.StatusAccepted {
		if err := s.persist(ctx, batch, res.Accepted); err != nil {
			return nil, err
		}
	} else {
		s.saveBatch(ctx, batch)
	}

	s.Metrics.ObserveUpload(string(batch.Status), batch.Accepted, batch.Duplicates, batch.ErrorCount)
	s.Log.Info("upload processed",
		"batch", batch.ID,
		"environment", env.ID,
		"status", batch.Status,
		"accepted", batch.Accepted,
		"duplicates", batch.Duplicates,
		"errors", batch.ErrorCount,
	)

	return &UploadResult{
		BatchID:    batch.ID,
		Status:     batch.Status,
		Accepted:   batch.Accepted,
		Duplicates: batch.Duplicates,
		Errors:     batch.Errors,
		Message:    message(batch),
		ArchiveURL: batch.ArchiveURL,
	}, nil
}

func (s *Service) persist(ctx context.Context, batch *uploads.Batch, records []*domain.ScanRecord) error {
	now := s.Clock.Now()
	for _, r := range records {
		r.UploadedAt = now
	}
	err := s.Store.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		if err := uow.Scans().InsertAll(ctx, records); err != nil {
			return err
		}
		batch.Accepted = len(records)
		return uow.Uploads().Save(ctx, batch)
	})
	if err == nil {
		return nil
	}

	batch.Accepted = 0
	batch.Status = uploads.StatusFailed
	batch.ErrorCount = 1

	var out error
	switch {
	case errors.Is(err, domain.ErrDuplicatePair):
		batch.Errors = []string{domain.ErrConcurrentUpload.Error()}
		s.Log.Warn("upload lost a race with a concurrent upload", "batch", batch.ID, "error", err)
		out = fmt.Errorf("batch %s: %w", batch.ID, domain.ErrConcurrentUpload)
	case errors.Is(err, shared.ErrValidation):
		batch.Errors = []string{err.Error()}
		s.Log.Warn("scan data rejected by storage", "batch", batch.ID, "error", err)
		out = fmt.Errorf("batch %s: %w", batch.ID, err)
	default:
		batch.Errors = []string{msgSaveFailure}
		s.Log.Error("saving scan data failed", "batch", batch.ID, "error", err)
		out = fmt.Errorf("saving scan data: %w", err)
	}
	s.saveBatch(ctx, batch)
	s.Metrics.ObserveUpload(string(batch.Status), 0, batch.Duplicates, 1)
	return out
}

// saveBatch records an attempt that stored no scans. Failing to write the
// audit entry does not change the outcome reported to the uploader.
func (s *Service) saveBatch(ctx context.Context, batch *uploads.Batch) {
	if err := s.Store.Uploads().Save(ctx, batch); err != nil {
		s.Log.Error("saving upload batch failed", "batch", batch.ID, "error", err)
	}
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (s *Service) archiveUpload(ctx context.Context, batch *uploads.Batch, content []byte) string {
	if s.Archive == nil {
		return ""
	}
	name := unsafeKeyChars.ReplaceAllString(path.Base(batch.FileName), "_")
	if name == "" || name == "." || name == "_" {
		name = "upload.csv"
	}
	key := fmt.Sprintf("uploads/%d/%s/%s", batch.EnvironmentID, batch.ID, name)
	url, err := s.Archive.Put(ctx, key, "text/csv", content)
	if err != nil {
		s.Log.Warn("archiving upload failed", "batch", batch.ID, "error", err)
		return ""
	}
	return url
}

func message(b *uploads.Batch) string {
	switch b.Status {
	case uploads.StatusAccepted:
		msg := fmt.Sprintf(msgUploaded, b.Accepted)
		if b.Duplicates > 0 {
			msg += fmt.Sprintf(msgSkipped, b.Duplicates)
		}
		return msg
	case uploads.StatusDuplicatesOnly:
		return fmt.Sprintf(msgAllDuplicates, b.Duplicates)
	case uploads.StatusEmpty:
		return msgNoData
	default:
		return fmt.Sprintf("Upload rejected with %d error(s); no scans were saved.", b.ErrorCount)
	}
}

// List pages through an environment's records
func (s *Service) List(ctx context.Context, environmentID int64, f domain.ListFilter) (domain.PaginatedResult, error) {
	if _, err := s.Store.Environments().Get(ctx, environmentID); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("environment %d: %w", environmentID, err)
	}
	return s.Store.Scans().List(ctx, environmentID, f)
}

func (s *Service) Get(ctx context.Context, id domain.ScanID) (*domain.ScanRecord, error) {
	return s.Store.Scans().Get(ctx, id)
}

// UpdateRemarks replaces the free-text annotation of a record
func (s *Service) UpdateRemarks(ctx context.Context, id domain.ScanID, remarks string) (*domain.ScanRecord, error) {
	if utf8.RuneCountInString(remarks) > MaxRemarksLength {
		return nil, fmt.Errorf("remarks longer than %d characters: %w", MaxRemarksLength, shared.ErrValidation)
	}
	if err := s.Store.Scans().UpdateRemarks(ctx, id, remarks); err != nil {
		return nil, err
	}
	return s.Store.Scans().Get(ctx, id)
}

// SetRogue flags or clears one record
func (s *Service) SetRogue(ctx context.Context, id domain.ScanID, rogue bool) error {
	n, err := s.Store.Scans().SetRogue(ctx, []domain.ScanID{id}, rogue)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("scan %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// BulkSetRogue flags or clears many records; unknown ids are skipped
func (s *Service) BulkSetRogue(ctx context.Context, ids []domain.ScanID, rogue bool) (int64, error) {
	var n int64
	err := s.Store.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		var err error
		n, err = uow.Scans().SetRogue(ctx, ids, rogue)
		return err
	})
	return n, err
}

// Uploads lists recent upload attempts of an environment
func (s *Service) Uploads(ctx context.Context, environmentID int64, limit int) ([]*uploads.Batch, error) {
	if _, err := s.Store.Environments().Get(ctx, environmentID); err != nil {
		return nil, fmt.Errorf("environment %d: %w", environmentID, err)
	}
	return s.Store.Uploads().ListByEnvironment(ctx, environmentID, limit)
}

// Export is a rendered report ready for download
type Export struct {
	FileName    string
	ContentType string
	Body        []byte
	ArchiveURL  string
}

// Export renders every record of an environment, newest first
func (s *Service) Export(ctx context.Context, environmentID int64, format report.Format) (*Export, error) {
	env, err := s.Store.Environments().Get(ctx, environmentID)
	if err != nil {
		return nil, fmt.Errorf("environment %d: %w", environmentID, err)
	}
	records, err := s.Store.Scans().ListAll(ctx, environmentID)
	if err != nil {
		return nil, err
	}

	data := report.Data{Environment: env, Records: records, GeneratedAt: s.Clock.Now()}
	if creator, err := s.Store.Users().Get(ctx, env.CreatedBy); err == nil {
		data.CreatorName = creator.Username
	}

	body, err := report.Render(format, data)
	if err != nil {
		return nil, err
	}
	out := &Export{
		FileName:    report.FileName(format, data),
		ContentType: format.ContentType(),
		Body:        body,
	}
	if s.Archive != nil {
		key := fmt.Sprintf("reports/%d/%s", env.ID, out.FileName)
		if url, err := s.Archive.Put(ctx, key, out.ContentType, body); err != nil {
			s.Log.Warn("archiving report failed", "environment", env.ID, "error", err)
		} else {
			out.ArchiveURL = url
		}
	}
	return out, nil
}
