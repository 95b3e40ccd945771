package render

import (
	"html/template"
	"time"
)

type HeroData struct {
	Kicker          string   `yaml:"kicker"`
	Title           string   `yaml:"title"`
	Poem            []string `yaml:"poem"`
	CTAText         string   `yaml:"cta_text"`
	CTAHref         string   `yaml:"cta_href"`
	BackgroundImage string   `yaml:"background_image"`
}

type WorkCardData struct {
	Meta         string   `yaml:"meta"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Link         string   `yaml:"link"`
	Image        string   `yaml:"image"`
	ImageAlt     string   `yaml:"image_alt"`
	ImageCaption string   `yaml:"image_caption"`
	Tags         []string `yaml:"tags"`
	// Content is a trusted fragment placed under the description.
	Content template.HTML `yaml:"-"`
}

type PostCardData struct {
	// Index is 1-based and shown zero padded.
	Index     int
	Title     string
	Content   string
	Tags      []string
	CreatedAt time.Time
}

type NavLink struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

type HeaderData struct {
	Brand    string
	Subtitle string
	Nav      []NavLink
	Themes   []string
	// ThemeAction makes the toggle ask the server for the next theme
	// instead of cycling in the browser.
	ThemeAction string
}

type FooterData struct {
	Year int
	Text string
}

type CarouselItem struct {
	Image   string `yaml:"image"`
	Title   string `yaml:"title"`
	Caption string `yaml:"caption"`
	Link    string `yaml:"link"`
}

type CarouselData struct {
	Title string         `yaml:"title"`
	Items []CarouselItem `yaml:"items"`
}

var DefaultNav = []NavLink{
	{Label: "Home", Href: "/"},
	{Label: "Work", Href: "/#work"},
	{Label: "Poseidon", Href: "/poseidon.html"},
	{Label: "Writing", Href: "/writing.html"},
	{Label: "Contact", Href: "/#contact"},
}

const (
	defaultBrand    = "TinyRisks"
	defaultSubtitle = "Art Studio"
	defaultFooter   = "TinyRisks.art — Built with semantic HTML + simple CSS."
)

func Hero(d HeroData) template.HTML {
	return component("hero", d)
}

// WorkCard renders one card. The image alt text falls back to the title.
func WorkCard(d WorkCardData) template.HTML {
	if d.ImageAlt == "" {
		d.ImageAlt = d.Title
	}

	return component("work-card", d)
}

func PostCard(d PostCardData) template.HTML {
	return component("post-card", d)
}

func Header(d HeaderData) template.HTML {
	if d.Brand == "" {
		d.Brand = defaultBrand
	}
	if d.Subtitle == "" {
		d.Subtitle = defaultSubtitle
	}
	if d.Nav == nil {
		d.Nav = DefaultNav
	}
	if len(d.Themes) == 0 {
		d.Themes = DefaultThemes
	}

	return component("header", d)
}

func Footer(d FooterData) template.HTML {
	if d.Year == 0 {
		d.Year = currentYear()
	}
	if d.Text == "" {
		d.Text = defaultFooter
	}

	return component("footer", d)
}

// WorkListing renders the cards in order.
func WorkListing(items []WorkCardData) template.HTML {
	var out template.HTML
	for _, item := range items {
		out += WorkCard(item)
	}

	return out
}

func Carousel(d CarouselData) template.HTML {
	if len(d.Items) == 0 {
		return ""
	}

	return component("carousel", d)
}
