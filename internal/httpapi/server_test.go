package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/smoska/flightgraph/internal/domain"
	"github.com/smoska/flightgraph/internal/platform/logger"
	"github.com/smoska/flightgraph/internal/query"
)

type fakeEngine struct {
	route    *domain.RouteResult
	routeErr error
	hubs     []domain.HubAirport
	hubsErr  error
	hubOpts  query.HubOptions
}

func (f *fakeEngine) ShortestRoute(ctx context.Context, origin, destination string, mode query.Mode) (*domain.RouteResult, error) {
	return f.route, f.routeErr
}

func (f *fakeEngine) Hubs(ctx context.Context, opts query.HubOptions) ([]domain.HubAirport, error) {
	f.hubOpts = opts
	return f.hubs, f.hubsErr
}

type fakeHealth struct{ err error }

func (f fakeHealth) Verify(ctx context.Context) error { return f.err }

func serve(t *testing.T, engine QueryService, target string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	server := NewServer(engine, fakeHealth{}, logger.NewNop())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	server.Router().ServeHTTP(w, req)
	return w
}

func TestShortestRouteOK(t *testing.T) {
	engine := &fakeEngine{route: &domain.RouteResult{
		Stops:       []domain.RouteStop{{Code: "EPWA"}, {Code: "EDDF"}, {Code: "LPPT"}},
		TotalWeight: 1845,
		Mode:        "DISTANCE",
		Found:       true,
	}}

	w := serve(t, engine, "/api/routes/shortest?from=EPWA&to=LPPT&mode=distance")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}

	var result domain.RouteResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Found || len(result.Stops) != 3 || result.TotalWeight != 1845 {
		t.Fatalf("result = %+v", result)
	}
}

func TestShortestRouteNoRouteIsNotAnError(t *testing.T) {
	engine := &fakeEngine{route: &domain.RouteResult{Mode: "DURATION", Found: false}}

	w := serve(t, engine, "/api/routes/shortest?from=EPWA&to=NZSP&mode=duration")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var result domain.RouteResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Found {
		t.Fatal("expected found=false")
	}
}

func TestShortestRouteUnknownAirport(t *testing.T) {
	engine := &fakeEngine{routeErr: &domain.UnknownAirportError{Code: "XXXX"}}

	w := serve(t, engine, "/api/routes/shortest?from=XXXX&to=EPWA")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}

	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "unknown_airport" {
		t.Fatalf("code = %q", envelope.Error.Code)
	}
}

func TestShortestRouteInvalidMode(t *testing.T) {
	w := serve(t, &fakeEngine{}, "/api/routes/shortest?from=EPWA&to=LPPT&mode=fuel")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestShortestRouteTimeout(t *testing.T) {
	engine := &fakeEngine{routeErr: domain.ErrQueryTimeout}

	w := serve(t, engine, "/api/routes/shortest?from=EPWA&to=LPPT")
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHubsPassesOptions(t *testing.T) {
	engine := &fakeEngine{hubs: []domain.HubAirport{{Code: "EGLL", OperationCount: 10, DistinctDirections: 4, HubScore: 14}}}

	w := serve(t, engine, "/api/hubs?limit=15&min_ops=5000")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if engine.hubOpts.Limit != 15 || engine.hubOpts.MinOps != 5000 {
		t.Fatalf("opts = %+v", engine.hubOpts)
	}

	var hubs []domain.HubAirport
	if err := json.Unmarshal(w.Body.Bytes(), &hubs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hubs) != 1 || hubs[0].HubScore != 14 {
		t.Fatalf("hubs = %+v", hubs)
	}
}

func TestHubsEmptyGraph(t *testing.T) {
	w := serve(t, &fakeEngine{hubs: []domain.HubAirport{}}, "/api/hubs")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var hubs []domain.HubAirport
	if err := json.Unmarshal(w.Body.Bytes(), &hubs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hubs) != 0 {
		t.Fatalf("expected empty list, got %v", hubs)
	}
}

func TestHubsRejectsBadLimit(t *testing.T) {
	w := serve(t, &fakeEngine{}, "/api/hubs?limit=many")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := NewServer(&fakeEngine{}, fakeHealth{}, logger.NewNop())
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
