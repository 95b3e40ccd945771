// Package render draws the public page components and the admin console
// from embedded html/template files. Every dynamic value goes through
// contextual escaping; template.HTML is only used for fragments this
// package produced itself and for rendered markdown.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/lib/format"
)

//go:embed templates/*.html static/*
var assets embed.FS

var templates = template.Must(template.New("render").Funcs(template.FuncMap{
	"date":     format.Date,
	"ago":      format.Ago,
	"counter":  format.Index,
	"fileSize": format.FileSize,
	"imageURL": models.ImageURL,
	"joinTags": format.JoinTags,
	"join":     strings.Join,
}).ParseFS(assets, "templates/*.html"))

// Static serves the console's stylesheet and scripts.
func Static() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}

	return sub
}

func staticText(name string) string {
	b, err := assets.ReadFile("static/" + name)
	if err != nil {
		panic(err)
	}

	return string(b)
}

var (
	siteCSS = staticText("site.css")
	siteJS  = staticText("site.js")
)

// Stylesheet is the shared base stylesheet.
func Stylesheet() template.CSS {
	return template.CSS(siteCSS)
}

// Script is the shared script bundle: year stamping, theme toggle and the
// carousel controls.
func Script() template.JS {
	return template.JS(siteJS)
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render.%s: %w", name, err)
	}

	return template.HTML(buf.String()), nil
}

// component runs a template that cannot fail for well-typed data; a failure
// is rendered as an HTML comment rather than a broken page.
func component(name string, data any) template.HTML {
	out, err := execute(name, data)
	if err != nil {
		return template.HTML("<!-- " + template.HTMLEscapeString(err.Error()) + " -->")
	}

	return out
}

func currentYear() int {
	return time.Now().Year()
}
