package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/pyconza/pyconza-site/internal/app/tickets"
	"github.com/pyconza/pyconza-site/internal/domain"
	"github.com/pyconza/pyconza-site/internal/markup"
	"github.com/pyconza/pyconza-site/internal/platform/config"
)

// maxMarkupBytes bounds the body of a render request.
const maxMarkupBytes = 1 << 20

// Server holds the read-only site endpoints.
type Server struct {
	Settings config.Settings
	Tickets  *tickets.Service
	Vars     *tickets.Registry
	Markup   *markup.Renderer
	Log      *slog.Logger

	// defaultCapacity maps a group to the capacity of its configured remaining counter.
	defaultCapacity map[string]int
}

func NewServer(settings config.Settings, ticketSvc *tickets.Service, vars *tickets.Registry, renderer *markup.Renderer, log *slog.Logger) *Server {
	caps := make(map[string]int)
	for _, c := range settings.Tickets.Counters {
		if c.Capacity == nil {
			continue
		}
		g := domain.NormalizeName(c.Group)
		if _, ok := caps[g]; !ok {
			caps[g] = *c.Capacity
		}
	}
	return &Server{
		Settings:        settings,
		Tickets:         ticketSvc,
		Vars:            vars,
		Markup:          renderer,
		Log:             log,
		defaultCapacity: caps,
	}
}

type registrationDTO struct {
	Open bool   `json:"open"`
	Mode string `json:"mode"`
}

type pathsDTO struct {
	StaticDirs    []string `json:"staticDirs"`
	TemplateDirs  []string `json:"templateDirs"`
	StaticRoot    string   `json:"staticRoot"`
	MediaRoot     string   `json:"mediaRoot"`
	BuildDir      string   `json:"buildDir"`
	StaticStorage string   `json:"staticStorage"`
}

type markupDTO struct {
	SafeMode   bool     `json:"safeMode"`
	Extensions []string `json:"extensions"`
}

type settingsDTO struct {
	SiteName     string          `json:"siteName"`
	TimeZone     string          `json:"timeZone"`
	TalksOpen    bool            `json:"talksOpen"`
	Registration registrationDTO `json:"registration"`
	Paths        pathsDTO        `json:"paths"`
	Markup       markupDTO       `json:"markup"`
	Variables    []string        `json:"variables"`
}

func (s *Server) GetSettings(w http.ResponseWriter, _ *http.Request) {
	st := s.Settings
	writeJSON(w, http.StatusOK, settingsDTO{
		SiteName:  st.SiteName,
		TimeZone:  st.TimeZone,
		TalksOpen: st.TalksOpen,
		Registration: registrationDTO{
			Open: st.Registration.Open,
			Mode: st.Registration.Mode,
		},
		Paths: pathsDTO{
			StaticDirs:    nonNil(st.Paths.StaticDirs),
			TemplateDirs:  nonNil(st.Paths.TemplateDirs),
			StaticRoot:    st.Paths.StaticRoot,
			MediaRoot:     st.Paths.MediaRoot,
			BuildDir:      st.Paths.BuildDir,
			StaticStorage: st.Paths.StaticStorage,
		},
		Markup: markupDTO{
			SafeMode:   st.Markup.SafeMode,
			Extensions: nonNil(st.Markup.Extensions),
		},
		Variables: s.Vars.Names(),
	})
}

type menuItemDTO struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	URL   string `json:"url"`
	Image string `json:"image,omitempty"`
}

type menuDTO struct {
	Key   string        `json:"key,omitempty"`
	Label string        `json:"label"`
	Items []menuItemDTO `json:"items,omitempty"`
	Link  *menuItemDTO  `json:"link,omitempty"`
}

func (s *Server) ListMenus(w http.ResponseWriter, _ *http.Request) {
	menus := s.Settings.SiteMenus()
	out := make([]menuDTO, 0, len(menus))
	for _, m := range menus {
		dto := menuDTO{Key: m.Key, Label: m.Label}
		for _, it := range m.Items {
			dto.Items = append(dto.Items, menuItemDTO(it))
		}
		if m.Link != nil {
			link := menuItemDTO(*m.Link)
			dto.Link = &link
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, map[string]any{"menus": out})
}

type snapshotDTO struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Values      map[string]int `json:"values"`
}

func (s *Server) GetTicketStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Tickets.Snapshot(r.Context(), s.Vars)
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotDTO{GeneratedAt: snap.GeneratedAt, Values: snap.Values})
}

type variableDTO struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func (s *Server) GetTicketStat(w http.ResponseWriter, r *http.Request) {
	var name string
	if err := bindPathParam(r, "name", &name); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", err.Error(), map[string]any{"name": "invalid"})
		return
	}
	v, err := s.Vars.Evaluate(r.Context(), name)
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, variableDTO{Name: name, Value: v})
}

type groupDTO struct {
	Name        string   `json:"name"`
	TicketTypes []string `json:"ticketTypes"`
	Capacity    *int     `json:"capacity,omitempty"`
}

func (s *Server) ListTicketGroups(w http.ResponseWriter, _ *http.Request) {
	groups := s.Tickets.Groups()
	out := make([]groupDTO, 0, len(groups))
	for _, g := range groups {
		dto := groupDTO{Name: g.Name(), TicketTypes: g.Names()}
		if c, ok := s.defaultCapacity[g.Name()]; ok {
			dto.Capacity = &c
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": out})
}

type groupSoldDTO struct {
	Group string `json:"group"`
	Sold  int    `json:"sold"`
}

func (s *Server) GetGroupSold(w http.ResponseWriter, r *http.Request) {
	var group string
	if err := bindPathParam(r, "group", &group); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", err.Error(), map[string]any{"group": "invalid"})
		return
	}
	n, err := s.Tickets.CountGroup(r.Context(), group)
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, groupSoldDTO{Group: domain.NormalizeName(group), Sold: n})
}

type groupRemainingDTO struct {
	Group     string `json:"group"`
	Capacity  int    `json:"capacity"`
	Sold      int    `json:"sold"`
	Remaining int    `json:"remaining"`
}

func (s *Server) GetGroupRemaining(w http.ResponseWriter, r *http.Request) {
	var group string
	if err := bindPathParam(r, "group", &group); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", err.Error(), map[string]any{"group": "invalid"})
		return
	}
	var capacity *int
	if err := runtime.BindQueryParameter("form", true, false, "capacity", r.URL.Query(), &capacity); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", err.Error(), map[string]any{"capacity": "must be an integer"})
		return
	}
	if capacity == nil {
		c, ok := s.defaultCapacity[domain.NormalizeName(group)]
		if !ok {
			// Unknown groups report 404 before the missing parameter.
			if _, err := s.Tickets.Group(group); err != nil {
				writeAppError(w, r, s.Log, err)
				return
			}
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "capacity is required", map[string]any{"capacity": "required for groups without a configured capacity"})
			return
		}
		capacity = &c
	}

	res, err := s.Tickets.RemainingForGroup(r.Context(), group, *capacity)
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, groupRemainingDTO(res))
}

func (s *Server) RenderMarkup(w http.ResponseWriter, r *http.Request) {
	src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMarkupBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "markup body too large", map[string]any{"limitBytes": mbe.Limit})
			return
		}
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "could not read body", nil)
		return
	}
	out, err := s.Markup.Render(r.Context(), src)
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// bindPathParam decodes a simple-style chi path parameter into dest.
func bindPathParam(r *http.Request, name string, dest any) error {
	return runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
