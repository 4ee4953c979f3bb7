package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"
	_ "time/tzdata" // conference time zone must resolve on minimal images

	"gopkg.in/yaml.v3"

	"github.com/pyconza/pyconza-site/internal/domain"
)

// Registration modes understood by the site.
const (
	RegistrationModeTicket = "ticket"
	RegistrationModeCustom = "custom"
)

// Settings is the site configuration. It is built once at startup by Load
// (or DefaultSettings) and passed explicitly to the layers that need it.
// Nothing mutates a Settings value after Load returns.
type Settings struct {
	SiteName string `yaml:"site_name"`
	// TimeZone is the conference time zone (IANA name).
	TimeZone string `yaml:"time_zone"`
	// TalksOpen reports whether talk submissions are accepted.
	TalksOpen bool `yaml:"talks_open"`

	Registration RegistrationConfig `yaml:"registration"`
	Paths        PathsConfig        `yaml:"paths"`
	Menus        []MenuConfig       `yaml:"menus"`
	Tickets      TicketsConfig      `yaml:"tickets"`
	Markup       MarkupConfig       `yaml:"markup"`
}

type RegistrationConfig struct {
	Open bool   `yaml:"open"`
	Mode string `yaml:"mode"`
}

// PathsConfig locates site assets. Serving them is the web server's job.
type PathsConfig struct {
	StaticDirs    []string `yaml:"static_dirs"`
	TemplateDirs  []string `yaml:"template_dirs"`
	StaticRoot    string   `yaml:"static_root"`
	MediaRoot     string   `yaml:"media_root"`
	BuildDir      string   `yaml:"build_dir"`
	StaticStorage string   `yaml:"static_storage"`
}

// MenuConfig is either a dropdown menu (Menu set) or a single link (Name and URL set).
type MenuConfig struct {
	Menu  string           `yaml:"menu,omitempty"`
	Label string           `yaml:"label"`
	Items []MenuItemConfig `yaml:"items,omitempty"`

	Name  string `yaml:"name,omitempty"`
	URL   string `yaml:"url,omitempty"`
	Image string `yaml:"image,omitempty"`
}

type MenuItemConfig struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
	Image string `yaml:"image,omitempty"`
}

type TicketsConfig struct {
	// Tiers is the default tier list for groups that only name kinds.
	Tiers    []string            `yaml:"tiers"`
	Groups   []TicketGroupConfig `yaml:"groups"`
	Counters []CounterConfig     `yaml:"counters"`
}

// TicketGroupConfig defines a TicketCategoryGroup either as Tiers x Kinds or as
// an explicit list of Names.
type TicketGroupConfig struct {
	Name  string   `yaml:"name"`
	Tiers []string `yaml:"tiers,omitempty"`
	Kinds []string `yaml:"kinds,omitempty"`
	Names []string `yaml:"names,omitempty"`
}

// CounterConfig publishes a ticket count under a variable name. With Capacity set
// the variable reports remaining capacity instead of tickets sold.
type CounterConfig struct {
	Name     string `yaml:"name"`
	Group    string `yaml:"group"`
	Capacity *int   `yaml:"capacity,omitempty"`
}

type MarkupConfig struct {
	// SafeMode escapes raw HTML in page sources.
	SafeMode   bool     `yaml:"safe_mode"`
	Extensions []string `yaml:"extensions"`
	// CodeStyle is the chroma style used for highlighted code blocks.
	CodeStyle string `yaml:"code_style"`
}

var variableNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Load returns the default settings for root, overridden by the YAML file at path
// when path is non-empty. Fields absent from the file keep their defaults.
func Load(path, root string) (Settings, error) {
	s := DefaultSettings(root)
	if path == "" {
		return s, s.Validate()
	}
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("open site config: %w", err)
	}
	defer func() { _ = f.Close() }()
	return decodeOver(s, f)
}

// Parse is Load for an already-open document.
func Parse(r io.Reader, root string) (Settings, error) {
	return decodeOver(DefaultSettings(root), r)
}

func decodeOver(s Settings, r io.Reader) (Settings, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("decode site config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings for internal consistency.
func (s Settings) Validate() error {
	if _, err := time.LoadLocation(s.TimeZone); err != nil {
		return fmt.Errorf("time_zone %q: %w", s.TimeZone, err)
	}
	switch s.Registration.Mode {
	case RegistrationModeTicket, RegistrationModeCustom:
	default:
		return fmt.Errorf("registration.mode must be %q or %q, got %q", RegistrationModeTicket, RegistrationModeCustom, s.Registration.Mode)
	}

	for i, m := range s.Menus {
		if m.Menu == "" && (m.Name == "" || m.URL == "") {
			return fmt.Errorf("menus[%d]: a link entry needs name and url", i)
		}
		if m.Menu != "" && m.URL != "" {
			return fmt.Errorf("menus[%d] (%s): a menu entry cannot have a url", i, m.Menu)
		}
	}

	groups := make(map[string]struct{}, len(s.Tickets.Groups))
	for i, g := range s.Tickets.Groups {
		name := domain.NormalizeName(g.Name)
		if name == "" {
			return fmt.Errorf("tickets.groups[%d]: name must be non-empty", i)
		}
		if _, dup := groups[name]; dup {
			return fmt.Errorf("tickets.groups[%d]: duplicate group %q", i, name)
		}
		groups[name] = struct{}{}
		if len(g.Names) > 0 && (len(g.Kinds) > 0 || len(g.Tiers) > 0) {
			return fmt.Errorf("tickets.groups[%d] (%s): use either names or tiers/kinds, not both", i, name)
		}
		if len(g.Names) == 0 && len(g.Kinds) == 0 {
			return fmt.Errorf("tickets.groups[%d] (%s): needs names or kinds", i, name)
		}
	}

	counters := make(map[string]struct{}, len(s.Tickets.Counters))
	for i, c := range s.Tickets.Counters {
		if !variableNameRE.MatchString(c.Name) {
			return fmt.Errorf("tickets.counters[%d]: name %q must be an identifier", i, c.Name)
		}
		if _, dup := counters[c.Name]; dup {
			return fmt.Errorf("tickets.counters[%d]: duplicate counter %q", i, c.Name)
		}
		counters[c.Name] = struct{}{}
		if _, ok := groups[domain.NormalizeName(c.Group)]; !ok {
			return fmt.Errorf("tickets.counters[%d] (%s): unknown group %q", i, c.Name, c.Group)
		}
		if c.Capacity != nil && *c.Capacity < 0 {
			return fmt.Errorf("tickets.counters[%d] (%s): capacity must be >= 0", i, c.Name)
		}
	}
	return nil
}

// Location resolves TimeZone. Validate guarantees it succeeds.
func (s Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TicketGroups builds the configured category groups in declaration order.
func (s Settings) TicketGroups() []domain.TicketCategoryGroup {
	out := make([]domain.TicketCategoryGroup, 0, len(s.Tickets.Groups))
	for _, g := range s.Tickets.Groups {
		if len(g.Names) > 0 {
			out = append(out, domain.NewExplicitGroup(g.Name, g.Names...))
			continue
		}
		tiers := g.Tiers
		if len(tiers) == 0 {
			tiers = s.Tickets.Tiers
		}
		out = append(out, domain.NewCategoryGroup(g.Name, tiers, g.Kinds))
	}
	return out
}

// SiteMenus converts the menu configuration to domain menus.
func (s Settings) SiteMenus() []domain.Menu {
	out := make([]domain.Menu, 0, len(s.Menus))
	for _, m := range s.Menus {
		if m.Menu == "" {
			out = append(out, domain.Menu{
				Label: m.Label,
				Link:  &domain.MenuItem{Name: m.Name, Label: m.Label, URL: m.URL, Image: m.Image},
			})
			continue
		}
		items := make([]domain.MenuItem, 0, len(m.Items))
		for _, it := range m.Items {
			items = append(items, domain.MenuItem{Name: it.Name, Label: it.Label, URL: it.URL, Image: it.Image})
		}
		out = append(out, domain.Menu{Key: m.Menu, Label: m.Label, Items: items})
	}
	return out
}

// DefaultSettings returns the PyConZA configuration with paths anchored at root.
func DefaultSettings(root string) Settings {
	if root == "" {
		root = "."
	}
	previous := make([]MenuItemConfig, 0, 10)
	for year := 2012; year <= 2021; year++ {
		previous = append(previous, MenuItemConfig{
			Name:  fmt.Sprintf("pyconza%d", year),
			Label: fmt.Sprintf("PyConZA %d", year),
			URL:   fmt.Sprintf("https://%d.za.pycon.org/", year),
		})
	}
	durbanRemaining := 100

	return Settings{
		SiteName:  "PyConZA",
		TimeZone:  "Africa/Johannesburg",
		TalksOpen: true,
		Registration: RegistrationConfig{
			Open: false,
			Mode: RegistrationModeTicket,
		},
		Paths: PathsConfig{
			StaticDirs:    []string{filepath.Join(root, "static")},
			TemplateDirs:  []string{filepath.Join(root, "templates")},
			StaticRoot:    filepath.Join(root, "localstatic"),
			MediaRoot:     filepath.Join(root, "localmedia"),
			BuildDir:      filepath.Join(root, "mirror"),
			StaticStorage: "manifest",
		},
		Menus: []MenuConfig{
			{Menu: "about", Label: "About"},
			{Menu: "venue", Label: "Venue"},
			{Menu: "tickets", Label: "Tickets"},
			{Menu: "sponsors", Label: "Sponsors"},
			{Menu: "talks", Label: "Talks", Items: []MenuItemConfig{
				{Name: "schedule", Label: "Schedule", URL: "/schedule/"},
				{Name: "accepted-talks", Label: "Accepted Talks", URL: "/talks/"},
				{Name: "speakers", Label: "Speakers", URL: "/talks/speakers/"},
			}},
			{Menu: "news", Label: "News"},
			{Menu: "previous-pycons", Label: "Past PyConZAs", Items: previous},
			{Name: "twitter", Label: "Twitter", Image: "/static/img/twitter.png", URL: "https://twitter.com/pyconza"},
			{Name: "mastodon", Label: "Mastodon", Image: "/static/img/mastodon.png", URL: "https://fosstodon.org/@pyconza"},
		},
		Tickets: TicketsConfig{
			Tiers: []string{"Student", "Pensioner", "Individual", "Corporate"},
			Groups: []TicketGroupConfig{
				{Name: "durban", Kinds: []string{"Durban", "Durban, Early Bird"}},
				{Name: "online", Kinds: []string{"Online", "Online, Early Bird"}},
				{Name: "tutorial_devops", Names: []string{"Tutorial: Bridging the Gap Between DevOps and Data Professionals (Durban)"}},
				{Name: "tutorial_gis", Names: []string{"Tutorial: An Introduction to Web Mapping with Django (Durban)"}},
				{Name: "tutorial_osw", Names: []string{"Tutorial: Pyladies Open Source Workshop"}},
			},
			Counters: []CounterConfig{
				{Name: "durban_tickets_sold", Group: "durban"},
				{Name: "durban_tickets_remaining", Group: "durban", Capacity: &durbanRemaining},
				{Name: "online_tickets_sold", Group: "online"},
				{Name: "tutorial_devops_tickets_sold", Group: "tutorial_devops"},
				{Name: "tutorial_gis_tickets_sold", Group: "tutorial_gis"},
				{Name: "tutorial_osw_tickets_sold", Group: "tutorial_osw"},
			},
		},
		Markup: MarkupConfig{
			SafeMode:   false,
			Extensions: []string{"outline", "attr_list", "attr_cols", "tables", "codehilite", "variables"},
			CodeStyle:  "friendly",
		},
	}
}
