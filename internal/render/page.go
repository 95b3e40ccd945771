package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"tinyrisks_admin/internal/config"

	"gopkg.in/yaml.v3"
)

const defaultSiteName = "TinyRisks.art"

var ErrNoTitle = errors.New("page title is required")

// PageData is everything the base layout needs. Header and footer are built
// from the plain fields.
type PageData struct {
	Title      string
	SiteName   string
	Brand      string
	Subtitle   string
	Nav        []NavLink
	Theme      string
	Themes     []string
	FooterText string
	Year       int

	ExtraStyles  template.CSS
	Content      template.HTML
	ExtraScripts template.HTML

	// CSRF is sent with every htmx request when set.
	CSRF        string
	ThemeAction string
}

type layoutData struct {
	Title        string
	SiteName     string
	Theme        string
	Styles       template.CSS
	ExtraStyles  template.CSS
	Header       template.HTML
	Content      template.HTML
	Footer       template.HTML
	Script       template.JS
	ExtraScripts template.HTML
	CSRF         string
}

// Page composes stylesheet, header, content, footer and scripts into one
// document.
func Page(d PageData) ([]byte, error) {
	themes := d.Themes
	if len(themes) == 0 {
		themes = DefaultThemes
	}
	siteName := d.SiteName
	if siteName == "" {
		siteName = defaultSiteName
	}

	out, err := execute("page", layoutData{
		Title:    d.Title,
		SiteName: siteName,
		Theme:    ThemeOrDefault(themes, d.Theme),
		Styles:   Stylesheet(),
		Header: Header(HeaderData{
			Brand:       d.Brand,
			Subtitle:    d.Subtitle,
			Nav:         d.Nav,
			Themes:      themes,
			ThemeAction: d.ThemeAction,
		}),
		ExtraStyles:  d.ExtraStyles,
		Content:      d.Content,
		Footer:       Footer(FooterData{Year: d.Year, Text: d.FooterText}),
		Script:       Script(),
		ExtraScripts: d.ExtraScripts,
		CSRF:         d.CSRF,
	})
	if err != nil {
		return nil, err
	}

	return []byte(out), nil
}

// SiteData fills the site-wide fields of a page from config.
func SiteData(site config.SiteConfig) PageData {
	return PageData{
		Brand:      site.Brand,
		Subtitle:   site.Subtitle,
		FooterText: site.FooterText,
		Themes:     site.Themes,
	}
}

// PageSpec describes a static page in YAML.
type PageSpec struct {
	Title    string        `yaml:"title"`
	Subtitle string        `yaml:"subtitle"`
	Theme    string        `yaml:"theme"`
	Output   string        `yaml:"output"`
	Hero     *HeroData     `yaml:"hero"`
	Sections []SectionSpec `yaml:"sections"`
}

type SectionSpec struct {
	ID       string         `yaml:"id"`
	Title    string         `yaml:"title"`
	Cards    []WorkCardData `yaml:"cards"`
	Carousel *CarouselData  `yaml:"carousel"`
	Posts    []PostSpec     `yaml:"posts"`
}

type PostSpec struct {
	Title   string   `yaml:"title"`
	Content string   `yaml:"content"`
	Tags    []string `yaml:"tags"`
	Date    string   `yaml:"date"`
}

// LoadPageSpec decodes a page description. Unknown keys are rejected.
func LoadPageSpec(r io.Reader) (PageSpec, error) {
	const op = "render.LoadPageSpec"

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var spec PageSpec
	if err := dec.Decode(&spec); err != nil {
		return PageSpec{}, fmt.Errorf("%s: %w", op, err)
	}

	if strings.TrimSpace(spec.Title) == "" {
		return PageSpec{}, fmt.Errorf("%s: %w", op, ErrNoTitle)
	}

	return spec, nil
}

type sectionData struct {
	ID       string
	Title    string
	Cards    template.HTML
	Carousel template.HTML
	Posts    template.HTML
}

// Render builds the page body from the description and wraps it in the layout.
func (s PageSpec) Render(site config.SiteConfig) ([]byte, error) {
	const op = "render.PageSpec.Render"

	var body bytes.Buffer
	if s.Hero != nil {
		body.WriteString(string(Hero(*s.Hero)))
	}

	sections := make([]sectionData, 0, len(s.Sections))
	for _, sec := range s.Sections {
		d := sectionData{
			ID:    sec.ID,
			Title: sec.Title,
			Cards: WorkListing(sec.Cards),
		}
		if sec.Carousel != nil {
			d.Carousel = Carousel(*sec.Carousel)
		}
		for i, p := range sec.Posts {
			created, err := parseDate(p.Date)
			if err != nil {
				return nil, fmt.Errorf("%s: post %q: %w", op, p.Title, err)
			}

			d.Posts += PostCard(PostCardData{
				Index:     i + 1,
				Title:     p.Title,
				Content:   p.Content,
				Tags:      p.Tags,
				CreatedAt: created,
			})
		}
		sections = append(sections, d)
	}

	markup, err := execute("sections", sections)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	body.WriteString(string(markup))

	data := SiteData(site)
	data.Title = s.Title
	data.Theme = s.Theme
	if s.Subtitle != "" {
		data.Subtitle = s.Subtitle
	}
	data.Content = template.HTML(body.String())

	page, err := Page(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

func parseDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}

	return time.Parse("2006-01-02", s)
}
