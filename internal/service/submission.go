package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"crptapi/internal/crpt"
	"crptapi/internal/logging"
	"crptapi/internal/metrics"
	"crptapi/internal/model"
	"crptapi/internal/repository"
	"crptapi/internal/storage"
)

var (
	ErrIDRequired  = errors.New("id is required")
	ErrNotFound    = errors.New("submission not found")
	ErrDocumentNil = errors.New("document is nil")
	// ErrUpstream marks a submission that was recorded but rejected or not
	// reached upstream. The returned error also wraps the cause.
	ErrUpstream = errors.New("upstream create-document failed")
)

// SubmissionListResult is the service-level DTO for paginated submissions.
type SubmissionListResult struct {
	Items []model.Submission `json:"data"`
	Total int                `json:"total"`
}

// SubmissionService defines the use cases around creating CRPT documents.
type SubmissionService interface {
	// Submit validates doc, archives its JSON payload, sends it upstream through
	// the rate-limited client and records the outcome. On an upstream failure the
	// recorded submission is returned together with an error wrapping ErrUpstream.
	Submit(ctx context.Context, doc *model.Document) (*model.Submission, error)

	// List returns submissions using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*SubmissionListResult, error)

	// Get returns a single submission by its ID.
	Get(ctx context.Context, id string) (*model.Submission, error)

	// Payload streams the archived JSON payload of a submission.
	Payload(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error)

	// PayloadURL returns a pre-signed download URL for the archived payload.
	PayloadURL(ctx context.Context, id string, expiry time.Duration) (string, error)
}

const recordTimeout = 5 * time.Second

type submissionService struct {
	store   storage.Storage
	repo    repository.SubmissionRepository
	creator crpt.DocumentCreator
	metrics *metrics.Submissions
	logger  *slog.Logger
	now     func() time.Time
}

// NewSubmissionService constructs a new SubmissionService. m and logger may be nil.
func NewSubmissionService(
	store storage.Storage,
	repo repository.SubmissionRepository,
	creator crpt.DocumentCreator,
	m *metrics.Submissions,
	logger *slog.Logger,
) SubmissionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &submissionService{
		store:   store,
		repo:    repo,
		creator: creator,
		metrics: m,
		logger:  logger.With(slog.String("component", "submission_service")),
		now:     time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, doc *model.Document) (*model.Submission, error) {
	if doc == nil {
		return nil, ErrDocumentNil
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	id := uuid.New().String()
	createdAt := s.now().UTC()
	key := storage.PayloadKey(id, createdAt)

	if _, err := s.store.Put(ctx, key, bytes.NewReader(payload), storage.PutObjectOptions{
		Size:        int64(len(payload)),
		ContentType: "application/json",
		Metadata: map[string]string{
			"doc-id":   doc.DocID,
			"doc-type": doc.DocType,
		},
	}); err != nil {
		return nil, fmt.Errorf("archive payload: %w", err)
	}

	start := time.Now()
	res, callErr := s.creator.CreateDocument(ctx, doc)
	elapsed := time.Since(start)

	sub := &model.Submission{
		ID:          id,
		DocID:       doc.DocID,
		DocType:     doc.DocType,
		Status:      model.SubmissionStatusSubmitted,
		PayloadPath: key,
		CreatedAt:   createdAt,
	}
	outcome := metrics.OutcomeSubmitted
	if callErr != nil {
		sub.Status = model.SubmissionStatusFailed
		sub.Error = callErr.Error()
		outcome = metrics.OutcomeError
		var apiErr *crpt.APIError
		if errors.As(callErr, &apiErr) {
			sub.ResponseCode = apiErr.StatusCode
			outcome = metrics.OutcomeRejected
		}
	} else {
		sub.ResponseCode = res.StatusCode
	}
	s.metrics.Observe(outcome, elapsed)

	// The upstream call has already happened; record it even if the caller
	// has gone away, otherwise the archived payload is orphaned.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	stored, err := s.repo.Create(recordCtx, sub)
	if err != nil {
		if delErr := s.store.Delete(recordCtx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if callErr != nil {
		logging.LogError(s.logger, "document_submit_failed", callErr,
			slog.String("submission_id", stored.ID),
			slog.String("doc_id", stored.DocID),
			slog.Int("response_code", stored.ResponseCode),
			slog.Duration("duration", elapsed),
		)
		return stored, fmt.Errorf("%w: %w", ErrUpstream, callErr)
	}

	logging.LogOperation(s.logger, "document_submitted",
		slog.String("submission_id", stored.ID),
		slog.String("doc_id", stored.DocID),
		slog.Int("response_code", stored.ResponseCode),
		slog.Duration("duration", elapsed),
	)
	return stored, nil
}

// List returns paginated submissions without exposing repository types.
func (s *submissionService) List(ctx context.Context, limit, offset int) (*SubmissionListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &SubmissionListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *submissionService) Get(ctx context.Context, id string) (*model.Submission, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *submissionService) Payload(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	rc, info, err := s.store.Get(ctx, sub.PayloadPath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, storage.ObjectInfo{}, fmt.Errorf("%w: payload for submission %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, storage.ObjectInfo{}, fmt.Errorf("get payload: %w", err)
	}
	return rc, info, nil
}

func (s *submissionService) PayloadURL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	u, err := s.store.PresignGet(ctx, sub.PayloadPath, expiry)
	if err != nil {
		return "", fmt.Errorf("presign payload: %w", err)
	}
	return u, nil
}
