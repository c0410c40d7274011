package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	analysisUsecase "github.com/johnquangdev/shot-analyzer/internal/usecase/analysis"
	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/shot-analyzer/internal/usecase/recompute"
	"github.com/johnquangdev/shot-analyzer/internal/usecase/weights"
)

type fakeAnalysisService struct {
	analysisUsecase.Service

	submitted  *analysisUsecase.SubmitInput
	checklist  []entities.ChecklistCategory
	analyses   map[uuid.UUID]*entities.Analysis
	reanalyze  error
	cancel     error
	checkErr   error
	submitErr  error
	lastReason string
}

func newFakeAnalysisService() *fakeAnalysisService {
	return &fakeAnalysisService{analyses: make(map[uuid.UUID]*entities.Analysis)}
}

func (f *fakeAnalysisService) Submit(_ context.Context, input analysisUsecase.SubmitInput) (*entities.Analysis, error) {
	f.submitted = &input
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	a := entities.NewAnalysis(input.ShotLabel, input.PrimaryAngle, input.Videos)
	if input.ShotType != "" {
		a.ShotType = input.ShotType
	}
	f.analyses[a.ID] = a
	return a, nil
}

func (f *fakeAnalysisService) Get(_ context.Context, id uuid.UUID) (*entities.Analysis, error) {
	a, ok := f.analyses[id]
	if !ok {
		return nil, fmt.Errorf("%w: analysis %s", usecaseErrors.ErrNotFound, id)
	}
	return a, nil
}

func (f *fakeAnalysisService) Reanalyze(ctx context.Context, id uuid.UUID, reason string) (*entities.Analysis, error) {
	f.lastReason = reason
	if f.reanalyze != nil {
		return nil, f.reanalyze
	}
	return f.Get(ctx, id)
}

func (f *fakeAnalysisService) Cancel(ctx context.Context, id uuid.UUID) error {
	if _, err := f.Get(ctx, id); err != nil {
		return err
	}
	return f.cancel
}

func (f *fakeAnalysisService) SubmitChecklist(ctx context.Context, id uuid.UUID, categories []entities.ChecklistCategory) (*entities.Analysis, error) {
	f.checklist = categories
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return f.Get(ctx, id)
}

type fakeRecomputer struct {
	req    recompute.Request
	result *recompute.Result
	err    error
}

func (f *fakeRecomputer) Run(_ context.Context, req recompute.Request) (*recompute.Result, error) {
	f.req = req
	return f.result, f.err
}

type fakeBucket struct {
	err error
}

func (f *fakeBucket) GetBucketInfo(context.Context) (map[string]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	return map[string]interface{}{"bucket": "shot-videos", "bucket_exists": true}, nil
}

type defaultProfiles struct{}

func (defaultProfiles) Get(_ context.Context, shotType entities.ShotType) (*entities.WeightProfile, error) {
	return weights.DefaultProfile(shotType)
}

func (defaultProfiles) Put(_ context.Context, shotType entities.ShotType, w map[string]float64) (*entities.WeightProfile, error) {
	return entities.NewWeightProfile(shotType, w)
}

type apiResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Info    string            `json:"info"`
	Details map[string]string `json:"details"`
	Data    json.RawMessage   `json:"data"`
}

type testServer struct {
	e          *echo.Echo
	service    *fakeAnalysisService
	recomputer *fakeRecomputer
	bucket     *fakeBucket
}

func newTestServer() *testServer {
	s := &testServer{
		e:          echo.New(),
		service:    newFakeAnalysisService(),
		recomputer: &fakeRecomputer{},
		bucket:     &fakeBucket{},
	}
	NewRouter(nil,
		NewAnalysisHandler(s.service, nil),
		NewAdminHandler(s.recomputer, defaultProfiles{}, nil),
		NewStorageHandler(s.bucket, nil),
	).Setup(s.e)
	return s
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func (s *testServer) seed(status entities.AnalysisStatus) *entities.Analysis {
	a := entities.NewAnalysis("tiro libre", entities.AngleFront, map[entities.AngleName]string{entities.AngleFront: "s3://videos/front.mp4"})
	a.Status = status
	s.service.analyses[a.ID] = a
	return a
}

func TestSubmit(t *testing.T) {
	s := newTestServer()

	rec, resp := s.do(t, http.MethodPost, "/v1/analyses",
		`{"shot_label":"tiro de tres","shot_type":"Media","videos":{"front":"s3://videos/f.mp4","left":"s3://videos/l.mp4"}}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "HTTP_OK", resp.Code)

	require.NotNil(t, s.service.submitted)
	assert.Equal(t, entities.ShotTypeMedia, s.service.submitted.ShotType)
	assert.Equal(t, "s3://videos/l.mp4", s.service.submitted.Videos[entities.AngleLeft])

	var body struct {
		ID       string   `json:"id"`
		Status   string   `json:"status"`
		ShotType string   `json:"shot_type"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	assert.Equal(t, "pending", body.Status)
	assert.Equal(t, "media", body.ShotType)
	assert.NotNil(t, body.Warnings)
}

func TestSubmit_RejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no videos", `{"shot_label":"libre"}`},
		{"empty videos", `{"videos":{}}`},
		{"unknown angle", `{"videos":{"overhead":"s3://videos/o.mp4"}}`},
		{"empty uri", `{"videos":{"front":""}}`},
		{"unknown shot type", `{"shot_type":"hook","videos":{"front":"s3://videos/f.mp4"}}`},
		{"unknown primary angle", `{"primary_angle":"top","videos":{"front":"s3://videos/f.mp4"}}`},
		{"malformed json", `{"videos":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			rec, _ := s.do(t, http.MethodPost, "/v1/analyses", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Nil(t, s.service.submitted)
		})
	}
}

func TestGet(t *testing.T) {
	s := newTestServer()
	a := s.seed(entities.AnalysisStatusBounded)
	a.AddWarning("motion boundary is heuristic")

	rec, resp := s.do(t, http.MethodGet, "/v1/analyses/"+a.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ID       string   `json:"id"`
		Status   string   `json:"status"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	assert.Equal(t, a.ID.String(), body.ID)
	assert.Equal(t, "bounded", body.Status)
	assert.Equal(t, []string{"motion boundary is heuristic"}, body.Warnings)
}

func TestGet_Errors(t *testing.T) {
	s := newTestServer()

	rec, resp := s.do(t, http.MethodGet, "/v1/analyses/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", resp.Code)

	missing := uuid.New()
	rec, resp = s.do(t, http.MethodGet, "/v1/analyses/"+missing.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ANALYSIS_NOT_FOUND", resp.Code)
	assert.Equal(t, missing.String(), resp.Details["analysis_id"])
}

func TestReanalyze(t *testing.T) {
	s := newTestServer()
	a := s.seed(entities.AnalysisStatusScored)

	rec, _ := s.do(t, http.MethodPost, "/v1/analyses/"+a.ID.String()+"/reanalyze", `{"reason":"new weights"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "new weights", s.service.lastReason)

	rec, _ = s.do(t, http.MethodPost, "/v1/analyses/"+a.ID.String()+"/reanalyze", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, s.service.lastReason)

	s.service.reanalyze = fmt.Errorf("%w: pending -> validated", entities.ErrInvalidTransition)
	rec, resp := s.do(t, http.MethodPost, "/v1/analyses/"+a.ID.String()+"/reanalyze", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ANALYSIS_INVALID_STATE", resp.Code)

	s.service.reanalyze = fmt.Errorf("%w: analysis is being processed", usecaseErrors.ErrConflict)
	rec, resp = s.do(t, http.MethodPost, "/v1/analyses/"+a.ID.String()+"/reanalyze", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", resp.Code)
}

func TestCancel(t *testing.T) {
	s := newTestServer()
	a := s.seed(entities.AnalysisStatusExtracted)

	rec, _ := s.do(t, http.MethodPost, "/v1/analyses/"+a.ID.String()+"/cancel", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	s.service.cancel = fmt.Errorf("%w: analysis is not running (status extracted)", usecaseErrors.ErrConflict)
	rec, resp := s.do(t, http.MethodPost, "/v1/analyses/"+a.ID.String()+"/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", resp.Code)

	rec, _ = s.do(t, http.MethodPost, "/v1/analyses/"+uuid.NewString()+"/cancel", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitChecklist(t *testing.T) {
	s := newTestServer()
	a := s.seed(entities.AnalysisStatusBounded)
	path := "/v1/analyses/" + a.ID.String() + "/checklist"

	rec, _ := s.do(t, http.MethodPut, path, `{"categories":[{"name":"Fluidez","items":[
		{"id":"tiro_un_solo_tiempo","rating":4.4},
		{"id":"sincronia_piernas","na":true,"comment":"legs out of frame"}
	]}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, s.service.checklist, 1)
	items := s.service.checklist[0].Items
	require.Len(t, items, 2)
	v, ok := items[0].Rating.Value()
	assert.True(t, ok)
	assert.Equal(t, 4, v)
	assert.Equal(t, "Fluidez", items[0].Category)
	assert.True(t, items[1].Rating.IsNA())
}

func TestSubmitChecklist_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing rating", `{"categories":[{"name":"Fluidez","items":[{"id":"tiro_un_solo_tiempo"}]}]}`, "INVALID_CHECKLIST"},
		{"rating and na", `{"categories":[{"name":"Fluidez","items":[{"id":"tiro_un_solo_tiempo","rating":3,"na":true}]}]}`, "INVALID_CHECKLIST"},
		{"out of range", `{"categories":[{"name":"Fluidez","items":[{"id":"tiro_un_solo_tiempo","rating":7}]}]}`, "INVALID_ARGUMENT"},
		{"no items", `{"categories":[{"name":"Fluidez","items":[]}]}`, "INVALID_ARGUMENT"},
		{"no categories", `{"categories":[]}`, "INVALID_ARGUMENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			a := s.seed(entities.AnalysisStatusBounded)
			rec, resp := s.do(t, http.MethodPut, "/v1/analyses/"+a.ID.String()+"/checklist", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, resp.Code)
			assert.Nil(t, s.service.checklist)
		})
	}
}

func TestSubmitChecklist_ServiceErrors(t *testing.T) {
	s := newTestServer()
	a := s.seed(entities.AnalysisStatusExtracted)
	body := `{"categories":[{"name":"Fluidez","items":[{"id":"tiro_un_solo_tiempo","rating":3}]}]}`

	s.service.checkErr = fmt.Errorf("%w: extracted does not accept a checklist", entities.ErrInvalidTransition)
	rec, resp := s.do(t, http.MethodPut, "/v1/analyses/"+a.ID.String()+"/checklist", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ANALYSIS_INVALID_STATE", resp.Code)

	s.service.checkErr = fmt.Errorf("%w: %v", usecaseErrors.ErrInvalidInput, entities.ErrInvalidChecklist)
	rec, _ = s.do(t, http.MethodPut, "/v1/analyses/"+a.ID.String()+"/checklist", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecompute(t *testing.T) {
	s := newTestServer()
	last := uuid.New()
	s.recomputer.result = &recompute.Result{
		UpdatedCount: 3,
		Pages:        1,
		LastID:       &last,
		ProfileRefs:  map[entities.ShotType]string{entities.ShotTypeTres: "tres:v2"},
	}

	rec, resp := s.do(t, http.MethodPost, "/v1/admin/recompute", `{"shot_type":"tres"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, s.recomputer.req.ShotType)
	assert.Equal(t, entities.ShotTypeTres, *s.recomputer.req.ShotType)
	assert.Nil(t, s.recomputer.req.StartAfter)

	var body struct {
		UpdatedCount int               `json:"updated_count"`
		LastID       string            `json:"last_id"`
		ProfileRefs  map[string]string `json:"profile_refs"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	assert.Equal(t, 3, body.UpdatedCount)
	assert.Equal(t, last.String(), body.LastID)
	assert.Equal(t, "tres:v2", body.ProfileRefs["tres"])

	rec, _ = s.do(t, http.MethodPost, "/v1/admin/recompute", `{"start_after":"`+last.String()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, s.recomputer.req.StartAfter)
	assert.Equal(t, last, *s.recomputer.req.StartAfter)
	assert.Nil(t, s.recomputer.req.ShotType)
}

func TestRecompute_Errors(t *testing.T) {
	s := newTestServer()

	rec, _ := s.do(t, http.MethodPost, "/v1/admin/recompute", `{"shot_type":"hook"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/v1/admin/recompute", `{"start_after":"page-2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.recomputer.err = usecaseErrors.ErrRecomputeInProgress
	rec, resp := s.do(t, http.MethodPost, "/v1/admin/recompute", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RECOMPUTE_IN_PROGRESS", resp.Code)

	last := uuid.New()
	s.recomputer.result = &recompute.Result{UpdatedCount: 200, Pages: 1, LastID: &last}
	s.recomputer.err = fmt.Errorf("%w: page 2: connection reset", usecaseErrors.ErrBatchPageWriteFailure)
	rec, resp = s.do(t, http.MethodPost, "/v1/admin/recompute", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "BATCH_PAGE_WRITE_FAILURE", resp.Code)
	assert.Equal(t, "2", resp.Details["page"])

	var partial struct {
		UpdatedCount int    `json:"updated_count"`
		LastID       string `json:"last_id"`
		Error        string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &partial))
	assert.Equal(t, 200, partial.UpdatedCount)
	assert.Equal(t, last.String(), partial.LastID)
	assert.Contains(t, partial.Error, "connection reset")

	s.recomputer.result = &recompute.Result{UpdatedCount: 400, SkippedCount: 1, Pages: 2, LastID: &last}
	s.recomputer.err = usecaseErrors.ErrRecomputeLockLost
	rec, resp = s.do(t, http.MethodPost, "/v1/admin/recompute", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RECOMPUTE_IN_PROGRESS", resp.Code)
	var lost struct {
		UpdatedCount int    `json:"updated_count"`
		SkippedCount int    `json:"skipped_count"`
		LastID       string `json:"last_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &lost))
	assert.Equal(t, 400, lost.UpdatedCount)
	assert.Equal(t, 1, lost.SkippedCount)
	assert.Equal(t, last.String(), lost.LastID)
}

func TestWeights(t *testing.T) {
	s := newTestServer()

	rec, resp := s.do(t, http.MethodGet, "/v1/admin/weights/libre", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		ShotType string  `json:"shot_type"`
		Ref      string  `json:"ref"`
		Total    float64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &profile))
	assert.Equal(t, "libre", profile.ShotType)
	assert.Equal(t, "libre:v0", profile.Ref)
	assert.InDelta(t, 100, profile.Total, 0.001)

	rec, _ = s.do(t, http.MethodGet, "/v1/admin/weights/hook", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/v1/admin/weights/tres", `{"weights":{"tiro_un_solo_tiempo":50,"sincronia_piernas":50}}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp = s.do(t, http.MethodPut, "/v1/admin/weights/tres", `{"weights":{"tiro_un_solo_tiempo":50,"sincronia_piernas":40}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_WEIGHT_PROFILE", resp.Code)

	rec, _ = s.do(t, http.MethodPut, "/v1/admin/weights/tres", `{"weights":{"tiro_un_solo_tiempo":-10,"sincronia_piernas":110}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestStorageBucketInfo(t *testing.T) {
	s := newTestServer()

	rec, resp := s.do(t, http.MethodGet, "/v1/admin/storage", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(resp.Data), `"bucket_exists":true`)

	s.bucket.err = fmt.Errorf("dial tcp: connection refused")
	rec, resp = s.do(t, http.MethodGet, "/v1/admin/storage", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTEGRATION_STORAGE_FAILED", resp.Code)
}
