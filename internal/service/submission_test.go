package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"crptapi/internal/crpt"
	crptMocks "crptapi/internal/crpt/mocks"
	"crptapi/internal/metrics"
	"crptapi/internal/model"
	"crptapi/internal/repository"
	repoMocks "crptapi/internal/repository/mocks"
	"crptapi/internal/storage"
	storeMocks "crptapi/internal/storage/mocks"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestSubmissionService_Submit(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		doc        func() *model.Document
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSubmissionRepository, mCRPT *crptMocks.MockDocumentCreator)
		wantErr    error
		wantErrMsg string
		wantSub    bool
	}{
		{
			name: "happy path",
			doc:  model.SampleDocument,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSubmissionRepository, mCRPT *crptMocks.MockDocumentCreator) {
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "submissions/") && strings.HasSuffix(key, ".json")
				}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.ContentType == "application/json" && opt.Size > 0 && opt.Metadata["doc-id"] == "123"
				})).Return(storage.ObjectInfo{}, nil)
				mCRPT.On("CreateDocument", ctx, mock.Anything).Return(&crpt.Result{StatusCode: 200}, nil)
				mRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *model.Submission) bool {
					return s.Status == model.SubmissionStatusSubmitted && s.ResponseCode == 200 &&
						s.DocID == "123" && s.ID != "" && strings.HasSuffix(s.PayloadPath, s.ID+".json")
				})).Return(&model.Submission{ID: "stored", Status: model.SubmissionStatusSubmitted}, nil)
			},
			wantSub: true,
		},
		{
			name: "nil document",
			doc:  func() *model.Document { return nil },
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockSubmissionRepository, *crptMocks.MockDocumentCreator) {
			},
			wantErr: ErrDocumentNil,
		},
		{
			name: "invalid document",
			doc: func() *model.Document {
				d := model.SampleDocument()
				d.OwnerINN = "bad"
				return d
			},
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockSubmissionRepository, *crptMocks.MockDocumentCreator) {
			},
			wantErr: model.ErrInvalidDocument,
		},
		{
			name: "archive error",
			doc:  model.SampleDocument,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSubmissionRepository, mCRPT *crptMocks.MockDocumentCreator) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("bucket gone"))
			},
			wantErrMsg: "archive payload: bucket gone",
		},
		{
			name: "upstream rejects",
			doc:  model.SampleDocument,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSubmissionRepository, mCRPT *crptMocks.MockDocumentCreator) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mCRPT.On("CreateDocument", ctx, mock.Anything).
					Return(nil, &crpt.APIError{StatusCode: 401, Body: "unauthorized"})
				mRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *model.Submission) bool {
					return s.Status == model.SubmissionStatusFailed && s.ResponseCode == 401 &&
						s.Error == "failed to create document, response code: 401"
				})).Return(&model.Submission{ID: "stored", Status: model.SubmissionStatusFailed, ResponseCode: 401}, nil)
			},
			wantErr: ErrUpstream,
			wantSub: true,
		},
		{
			name: "upstream unreachable",
			doc:  model.SampleDocument,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSubmissionRepository, mCRPT *crptMocks.MockDocumentCreator) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mCRPT.On("CreateDocument", ctx, mock.Anything).Return(nil, errors.New("connection refused"))
				mRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *model.Submission) bool {
					return s.Status == model.SubmissionStatusFailed && s.ResponseCode == 0
				})).Return(&model.Submission{ID: "stored", Status: model.SubmissionStatusFailed}, nil)
			},
			wantErr: ErrUpstream,
			wantSub: true,
		},
		{
			name: "repository error with successful rollback",
			doc:  model.SampleDocument,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSubmissionRepository, mCRPT *crptMocks.MockDocumentCreator) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mCRPT.On("CreateDocument", ctx, mock.Anything).Return(&crpt.Result{StatusCode: 200}, nil)
				mRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", mock.Anything, mock.Anything).Return(nil)
			},
			wantErrMsg: "db save failed: db fail",
		},
		{
			name: "repository error with failed rollback",
			doc:  model.SampleDocument,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSubmissionRepository, mCRPT *crptMocks.MockDocumentCreator) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mCRPT.On("CreateDocument", ctx, mock.Anything).Return(&crpt.Result{StatusCode: 200}, nil)
				mRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", mock.Anything, mock.Anything).Return(errors.New("delete fail"))
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockSubmissionRepository)
			mCRPT := new(crptMocks.MockDocumentCreator)
			svc := NewSubmissionService(mStore, mRepo, mCRPT, nil, quietLogger())

			tt.setupMocks(mStore, mRepo, mCRPT)

			sub, err := svc.Submit(ctx, tt.doc())

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrMsg != "":
				assert.ErrorContains(t, err, tt.wantErrMsg)
			default:
				assert.NoError(t, err)
			}
			if tt.wantSub {
				assert.NotNil(t, sub)
			} else {
				assert.Nil(t, sub)
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
			mCRPT.AssertExpectations(t)
		})
	}
}

func TestSubmissionService_Submit_RecordsAfterCallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockSubmissionRepository)
	mCRPT := new(crptMocks.MockDocumentCreator)
	svc := NewSubmissionService(mStore, mRepo, mCRPT, nil, quietLogger())

	alive := mock.MatchedBy(func(c context.Context) bool {
		_, hasDeadline := c.Deadline()
		return c.Err() == nil && hasDeadline
	})

	mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
	mCRPT.On("CreateDocument", ctx, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, fmt.Errorf("rate limit wait: %w", context.Canceled))
	mRepo.On("Create", alive, mock.Anything).Return(nil, errors.New("db fail"))
	mStore.On("Delete", alive, mock.Anything).Return(nil)

	sub, err := svc.Submit(ctx, model.SampleDocument())
	assert.Nil(t, sub)
	assert.ErrorContains(t, err, "db save failed: db fail")

	mRepo.AssertExpectations(t)
	mStore.AssertExpectations(t)
}

func TestSubmissionService_Submit_UpstreamErrorIsInspectable(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockSubmissionRepository)
	mCRPT := new(crptMocks.MockDocumentCreator)

	reg := prometheus.NewRegistry()
	m, err := metrics.NewSubmissions(reg)
	require.NoError(t, err)

	mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
	mCRPT.On("CreateDocument", ctx, mock.Anything).Return(nil, &crpt.APIError{StatusCode: 503})
	mRepo.On("Create", mock.Anything, mock.Anything).Return(&model.Submission{ID: "s"}, nil)

	var buf bytes.Buffer
	svc := NewSubmissionService(mStore, mRepo, mCRPT, m, slog.New(slog.NewJSONHandler(&buf, nil)))
	_, err = svc.Submit(ctx, model.SampleDocument())

	var apiErr *crpt.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 503, apiErr.StatusCode)
	assert.Contains(t, buf.String(), `"msg":"document_submit_failed"`)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range mfs {
		if mf.GetName() == "crpt_submissions_total" {
			found = true
			assert.Equal(t, "rejected", mf.GetMetric()[0].GetLabel()[0].GetValue())
		}
	}
	assert.True(t, found)
}

func TestSubmissionService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		limit      int
		offset     int
		setupMocks func(mRepo *repoMocks.MockSubmissionRepository)
		wantErr    bool
		wantTotal  int
	}{
		{
			name:  "happy path",
			limit: 10,
			setupMocks: func(mRepo *repoMocks.MockSubmissionRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.Submission]{
						Items: []model.Submission{{ID: "1"}, {ID: "2"}},
						Total: 2,
					}, nil)
			},
			wantTotal: 2,
		},
		{
			name:   "pagination boundary - zero limit uses default",
			limit:  0,
			offset: -1,
			setupMocks: func(mRepo *repoMocks.MockSubmissionRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.Submission]{Items: []model.Submission{}}, nil)
			},
		},
		{
			name:  "repository error",
			limit: 10,
			setupMocks: func(mRepo *repoMocks.MockSubmissionRepository) {
				mRepo.On("List", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockSubmissionRepository)
			svc := NewSubmissionService(nil, mRepo, nil, nil, quietLogger())
			tt.setupMocks(mRepo)

			res, err := svc.List(ctx, tt.limit, tt.offset)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantTotal, res.Total)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestSubmissionService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *repoMocks.MockSubmissionRepository)
		wantErr    error
		anyErr     bool
	}{
		{
			name: "happy path",
			id:   "valid-id",
			setupMocks: func(mRepo *repoMocks.MockSubmissionRepository) {
				mRepo.On("FindByID", ctx, "valid-id").Return(&model.Submission{ID: "valid-id"}, nil)
			},
		},
		{
			name:       "validation - empty id",
			setupMocks: func(mRepo *repoMocks.MockSubmissionRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found - mapping sql.ErrNoRows",
			id:   "missing-id",
			setupMocks: func(mRepo *repoMocks.MockSubmissionRepository) {
				mRepo.On("FindByID", ctx, "missing-id").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "generic repository error",
			id:   "error-id",
			setupMocks: func(mRepo *repoMocks.MockSubmissionRepository) {
				mRepo.On("FindByID", ctx, "error-id").Return(nil, errors.New("db fail"))
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockSubmissionRepository)
			svc := NewSubmissionService(nil, mRepo, nil, nil, quietLogger())
			tt.setupMocks(mRepo)

			sub, err := svc.Get(ctx, tt.id)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, sub)
			case tt.anyErr:
				assert.Error(t, err)
				assert.Nil(t, sub)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.id, sub.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestSubmissionService_Payload(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockSubmissionRepository)
	svc := NewSubmissionService(mStore, mRepo, nil, nil, quietLogger())

	mRepo.On("FindByID", ctx, "s1").Return(&model.Submission{ID: "s1", PayloadPath: "submissions/x/s1.json"}, nil)
	mStore.On("Get", ctx, "submissions/x/s1.json").
		Return(io.NopCloser(strings.NewReader(`{"doc_id":"123"}`)), storage.ObjectInfo{ContentType: "application/json"}, nil)

	rc, info, err := svc.Payload(ctx, "s1")
	require.NoError(t, err)
	defer rc.Close()

	b, _ := io.ReadAll(rc)
	assert.JSONEq(t, `{"doc_id":"123"}`, string(b))
	assert.Equal(t, "application/json", info.ContentType)
}

func TestSubmissionService_Payload_MissingObject(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockSubmissionRepository)
	svc := NewSubmissionService(mStore, mRepo, nil, nil, quietLogger())

	mRepo.On("FindByID", ctx, "s1").Return(&model.Submission{ID: "s1", PayloadPath: "gone.json"}, nil)
	mStore.On("Get", ctx, "gone.json").
		Return(nil, storage.ObjectInfo{}, fmt.Errorf("stat gone.json: %w", storage.ErrObjectNotFound))

	rc, _, err := svc.Payload(ctx, "s1")
	assert.Nil(t, rc)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmissionService_PayloadURL(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockSubmissionRepository)
	svc := NewSubmissionService(mStore, mRepo, nil, nil, quietLogger())

	mRepo.On("FindByID", ctx, "s1").Return(&model.Submission{ID: "s1", PayloadPath: "p"}, nil).Once()
	mStore.On("PresignGet", ctx, "p", 15*time.Minute).Return("https://minio/p?sig", nil).Once()

	u, err := svc.PayloadURL(ctx, "s1", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://minio/p?sig", u)

	mRepo.On("FindByID", ctx, "s2").Return(&model.Submission{ID: "s2", PayloadPath: "q"}, nil).Once()
	mStore.On("PresignGet", ctx, "q", time.Minute).Return("", errors.New("no creds")).Once()

	_, err = svc.PayloadURL(ctx, "s2", time.Minute)
	assert.ErrorContains(t, err, "presign payload: no creds")
}
