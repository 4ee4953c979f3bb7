package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	memclock "github.com/pyconza/pyconza-site/internal/adapters/memory/clock"
	memticketrepo "github.com/pyconza/pyconza-site/internal/adapters/memory/ticketrepo"
	"github.com/pyconza/pyconza-site/internal/app/tickets"
	"github.com/pyconza/pyconza-site/internal/domain"
	"github.com/pyconza/pyconza-site/internal/markup"
	"github.com/pyconza/pyconza-site/internal/platform/config"
	"github.com/pyconza/pyconza-site/internal/platform/logger"
	"github.com/pyconza/pyconza-site/internal/platform/metrics"
)

func newTestRouter(t *testing.T, sold map[string]int) http.Handler {
	t.Helper()
	ctx := context.Background()

	repo := memticketrepo.NewRepo()
	i := 0
	for name, n := range sold {
		i++
		typeID := domain.TicketTypeID(fmt.Sprintf("type-%d", i))
		if err := repo.CreateType(ctx, domain.TicketType{ID: typeID, Name: name}); err != nil {
			t.Fatalf("CreateType err=%v", err)
		}
		for j := 0; j < n; j++ {
			bc := fmt.Sprintf("%s-%d", typeID, j)
			if err := repo.CreateTicket(ctx, domain.Ticket{ID: domain.TicketID(bc), TypeID: typeID, Barcode: bc}); err != nil {
				t.Fatalf("CreateTicket err=%v", err)
			}
		}
	}

	settings := config.DefaultSettings(".")
	log := logger.Discard()
	clk := memclock.NewManualClock(time.Unix(1700000000, 0).UTC())
	svc := tickets.NewService(repo, clk, settings.TicketGroups())

	counters := make([]tickets.Counter, 0, len(settings.Tickets.Counters))
	for _, c := range settings.Tickets.Counters {
		counters = append(counters, tickets.Counter{Name: c.Name, Group: c.Group, Capacity: c.Capacity})
	}
	vars := tickets.NewRegistry()
	if err := svc.RegisterCounters(vars, counters); err != nil {
		t.Fatalf("RegisterCounters err=%v", err)
	}

	reg := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTP(reg)
	api := NewServer(settings, svc, vars, markup.New(settings.Markup, vars, log), log)
	return NewRouterWithOptions(api, log, RouterOptions{
		MetricsMiddleware: httpMetrics.Middleware,
		MetricsHandler:    metrics.Handler(reg),
	})
}

func do(t *testing.T, h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, nil)
	rec := do(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestGetSettings(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, nil)
	rec := do(t, h, http.MethodGet, "/api/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[settingsDTO](t, rec)
	if !got.TalksOpen || got.Registration.Open || got.Registration.Mode != "ticket" || got.TimeZone != "Africa/Johannesburg" {
		t.Fatalf("settings=%+v", got)
	}
	if len(got.Variables) != 6 {
		t.Fatalf("variables=%v, want 6", got.Variables)
	}
}

func TestListMenus(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, nil)
	rec := do(t, h, http.MethodGet, "/api/menus", nil)
	got := decode[struct {
		Menus []menuDTO `json:"menus"`
	}](t, rec)
	if len(got.Menus) != 9 {
		t.Fatalf("menus=%d, want 9", len(got.Menus))
	}
	if got.Menus[4].Key != "talks" || len(got.Menus[4].Items) != 3 {
		t.Fatalf("talks menu=%+v", got.Menus[4])
	}
	if got.Menus[7].Link == nil || got.Menus[7].Link.URL != "https://twitter.com/pyconza" {
		t.Fatalf("twitter link=%+v", got.Menus[7])
	}
}

func TestGetTicketStats(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, map[string]int{
		"Student (Durban)":                        10,
		"Corporate (Durban, Early Bird)":          5,
		"Individual (Online)":                     4,
		"Tutorial: Pyladies Open Source Workshop": 2,
	})
	rec := do(t, h, http.MethodGet, "/api/tickets/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[snapshotDTO](t, rec)
	want := map[string]int{
		"durban_tickets_sold":          15,
		"durban_tickets_remaining":     85,
		"online_tickets_sold":          4,
		"tutorial_devops_tickets_sold": 0,
		"tutorial_gis_tickets_sold":    0,
		"tutorial_osw_tickets_sold":    2,
	}
	for k, v := range want {
		if got.Values[k] != v {
			t.Fatalf("values[%s]=%d, want %d (all=%v)", k, got.Values[k], v, got.Values)
		}
	}
	if !got.GeneratedAt.Equal(time.Unix(1700000000, 0).UTC()) {
		t.Fatalf("generatedAt=%v", got.GeneratedAt)
	}
}

func TestGetTicketStat(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, map[string]int{"Pensioner (Durban)": 120})

	rec := do(t, h, http.MethodGet, "/api/tickets/stats/durban_tickets_remaining", nil)
	got := decode[variableDTO](t, rec)
	if rec.Code != http.StatusOK || got.Value != 0 {
		t.Fatalf("status=%d value=%d, want 200 and 0 when oversold", rec.Code, got.Value)
	}

	rec = do(t, h, http.MethodGet, "/api/tickets/stats/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", rec.Code)
	}
	er := decode[errorResponse](t, rec)
	if er.Error.Code != "UNKNOWN_VARIABLE" {
		t.Fatalf("code=%q", er.Error.Code)
	}
	if rid, err := er.Error.RequestID.Get(); err != nil || rid == "" {
		t.Fatalf("requestId missing: %v", err)
	}
}

func TestListTicketGroups(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, nil)
	rec := do(t, h, http.MethodGet, "/api/tickets/groups", nil)
	got := decode[struct {
		Groups []groupDTO `json:"groups"`
	}](t, rec)
	if len(got.Groups) != 5 {
		t.Fatalf("groups=%d, want 5", len(got.Groups))
	}
	durban := got.Groups[0]
	if durban.Name != "durban" || len(durban.TicketTypes) != 8 || durban.Capacity == nil || *durban.Capacity != 100 {
		t.Fatalf("durban=%+v", durban)
	}
	if got.Groups[1].Capacity != nil {
		t.Fatalf("online capacity=%v, want none", *got.Groups[1].Capacity)
	}
}

func TestGroupSoldAndRemaining(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, map[string]int{"Student (Durban)": 30, "Student (Online)": 3})

	rec := do(t, h, http.MethodGet, "/api/tickets/groups/durban/sold", nil)
	if got := decode[groupSoldDTO](t, rec); rec.Code != http.StatusOK || got.Sold != 30 {
		t.Fatalf("status=%d sold=%+v", rec.Code, got)
	}

	cases := []struct {
		path       string
		wantStatus int
		wantCode   string
		want       groupRemainingDTO
	}{
		{path: "/api/tickets/groups/durban/remaining", wantStatus: 200, want: groupRemainingDTO{Group: "durban", Capacity: 100, Sold: 30, Remaining: 70}},
		{path: "/api/tickets/groups/durban/remaining?capacity=20", wantStatus: 200, want: groupRemainingDTO{Group: "durban", Capacity: 20, Sold: 30, Remaining: 0}},
		{path: "/api/tickets/groups/online/remaining?capacity=10", wantStatus: 200, want: groupRemainingDTO{Group: "online", Capacity: 10, Sold: 3, Remaining: 7}},
		{path: "/api/tickets/groups/online/remaining", wantStatus: 422, wantCode: "VALIDATION_ERROR"},
		{path: "/api/tickets/groups/durban/remaining?capacity=-1", wantStatus: 422, wantCode: "VALIDATION_ERROR"},
		{path: "/api/tickets/groups/durban/remaining?capacity=lots", wantStatus: 400, wantCode: "INVALID_PARAMETER"},
		{path: "/api/tickets/groups/mars/remaining", wantStatus: 404, wantCode: "UNKNOWN_TICKET_GROUP"},
		{path: "/api/tickets/groups/mars/sold", wantStatus: 404, wantCode: "UNKNOWN_TICKET_GROUP"},
	}
	for _, tc := range cases {
		rec := do(t, h, http.MethodGet, tc.path, nil)
		if rec.Code != tc.wantStatus {
			t.Fatalf("%s: status=%d, want %d (body=%s)", tc.path, rec.Code, tc.wantStatus, rec.Body.String())
		}
		if tc.wantCode != "" {
			if er := decode[errorResponse](t, rec); er.Error.Code != tc.wantCode {
				t.Fatalf("%s: code=%q, want %q", tc.path, er.Error.Code, tc.wantCode)
			}
			continue
		}
		if got := decode[groupRemainingDTO](t, rec); got != tc.want {
			t.Fatalf("%s: got=%+v, want %+v", tc.path, got, tc.want)
		}
	}
}

func TestRenderMarkup(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, map[string]int{"Student (Durban)": 25})
	body := strings.NewReader("# Tickets\n\nOnly **${durban_tickets_remaining}** Durban tickets left.\n")
	rec := do(t, h, http.MethodPost, "/api/markup/render", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content-type=%q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<strong>75</strong>") {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestRenderMarkup_TooLarge(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, nil)
	rec := do(t, h, http.MethodPost, "/api/markup/render", strings.NewReader(strings.Repeat("a", maxMarkupBytes+1)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d, want 413", rec.Code)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, nil)
	if rec := do(t, h, http.MethodGet, "/api/nowhere", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/settings", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d, want 405", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, nil)
	_ = do(t, h, http.MethodGet, "/api/settings", nil)

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `http_requests_total{method="GET",route="/api/settings",status="200"} 1`) {
		t.Fatalf("metrics body:\n%s", rec.Body.String())
	}
}
