package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/portfolio"
)

type stubLoader struct {
	inputs []domain.AssetInput
}

func (l stubLoader) Load(ctx context.Context) ([]domain.AssetInput, error) {
	return l.inputs, nil
}

type fakeArchive struct {
	runs map[string]*portfolio.Outcome
}

func (a *fakeArchive) Save(ctx context.Context, o *portfolio.Outcome) error {
	a.runs[o.RunID] = o
	return nil
}

func (a *fakeArchive) Load(ctx context.Context, runID string) (*portfolio.Outcome, error) {
	if o, ok := a.runs[runID]; ok {
		return o, nil
	}
	return nil, portfolio.ErrRunNotFound
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	inputs := []domain.AssetInput{
		{Asset: domain.Asset{Symbol: "TCS", Class: domain.AssetClassEquity, Sector: "Technology"}},
		{Asset: domain.Asset{Symbol: "SUNPHARMA", Class: domain.AssetClassEquity, Sector: "Healthcare"}},
		{Asset: domain.Asset{Symbol: "NIFTYBEES", Class: domain.AssetClassETF, Sector: "Index"}},
	}
	engine := portfolio.NewEngine(config.DefaultPolicy(), 2, nil, zerolog.Nop())
	service := portfolio.NewService(stubLoader{inputs: inputs}, engine, &fakeArchive{runs: map[string]*portfolio.Outcome{}}, nil, zerolog.Nop())

	router := chi.NewRouter()
	NewHandler(service, "INR", zerolog.Nop()).RegisterRoutes(router)
	return router
}

func post(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/portfolio/recommendations", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleRecommend(t *testing.T) {
	router := newRouter(t)

	rec := post(t, router, `{"capital":"250000.50","risk_appetite":80,"asset_classes":["stocks"],"max_assets":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var outcome portfolio.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, portfolio.StatusAllocated, outcome.Status)
	assert.Equal(t, domain.RiskAggressive, outcome.Request.Profile)
	assert.Equal(t, "INR", outcome.Request.Currency)
	assert.Equal(t, int64(25000050), outcome.TotalAmount())
	assert.Len(t, outcome.Allocations, 2)

	get := httptest.NewRequest(http.MethodGet, "/portfolio/runs/"+outcome.RunID, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, get)
	assert.Equal(t, http.StatusOK, getRec.Code)
}

func TestHandleRecommend_Errors(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"malformed json", `{"capital":`, http.StatusBadRequest, ""},
		{"negative capital", `{"capital":-5,"profile":"moderate"}`, http.StatusBadRequest, "capital"},
		{"too many decimals", `{"capital":"10.001","profile":"moderate"}`, http.StatusBadRequest, "capital"},
		{"unknown currency", `{"capital":100,"currency":"XYZ","profile":"moderate"}`, http.StatusBadRequest, "currency"},
		{"missing profile", `{"capital":100}`, http.StatusBadRequest, "profile"},
		{"appetite out of range", `{"capital":100,"risk_appetite":101}`, http.StatusBadRequest, "risk_appetite"},
		{"unknown class", `{"capital":100,"profile":"moderate","asset_classes":["art"]}`, http.StatusBadRequest, "asset_classes"},
		{"empty class set", `{"capital":100,"profile":"moderate","asset_classes":[]}`, http.StatusBadRequest, "permitted_classes"},
		{"zero max assets", `{"capital":100,"profile":"moderate","max_assets":0}`, http.StatusBadRequest, "max_assets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, router, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			if tt.field != "" {
				assert.Equal(t, tt.field, body["field"])
			}
		})
	}
}

func TestHandleRecommend_NoEligibleAssets(t *testing.T) {
	rec := post(t, newRouter(t), `{"capital":1000,"profile":"conservative","exclude_sectors":["Technology","Healthcare","Index"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var outcome portfolio.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, portfolio.StatusNoEligibleAssets, outcome.Status)
	require.NotNil(t, outcome.NoEligible)
	assert.Empty(t, outcome.Allocations)
}

func TestHandleGetRun_NotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/portfolio/runs/not-a-run", nil)
	rec := httptest.NewRecorder()
	newRouter(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleStream(t *testing.T) {
	server := httptest.NewServer(newRouter(t))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/portfolio/stream"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, wsjson.Write(ctx, conn, map[string]interface{}{
		"capital":       "1000",
		"profile":       "aggressive",
		"asset_classes": []string{"equity"},
	}))

	var phases []string
	var outcome *portfolio.Outcome
	for outcome == nil {
		var msg StreamMessage
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		switch msg.Type {
		case MessageEvent:
			if msg.Event.Type == portfolio.EventPhaseCompleted {
				phases = append(phases, msg.Event.Phase)
			}
		case MessageOutcome:
			outcome = msg.Outcome
		default:
			t.Fatalf("unexpected message %+v", msg)
		}
	}

	assert.Equal(t, portfolio.StatusAllocated, outcome.Status)
	assert.Equal(t, int64(100000), outcome.TotalAmount())
	assert.Equal(t, []string{
		portfolio.PhaseLoad, portfolio.PhaseScore, portfolio.PhaseFilter, portfolio.PhaseSelect,
		portfolio.PhaseOptimize, portfolio.PhaseAllocate, portfolio.PhaseReason,
	}, phases)
}

func TestHandleStream_InvalidRequest(t *testing.T) {
	server := httptest.NewServer(newRouter(t))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(server.URL, "http")+"/portfolio/stream", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, wsjson.Write(ctx, conn, map[string]interface{}{"capital": "0", "profile": "moderate"}))

	var msg StreamMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, "capital", msg.Field)
}

func TestRegisterRoutes_RoutePrefix(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/recommendations", nil)
	rec := httptest.NewRecorder()
	newRouter(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, "Route without /portfolio prefix should return 404")
}
