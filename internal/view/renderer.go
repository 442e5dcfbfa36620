// Package view renders the HTML pages of the todo tracker.
package view

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFiles embed.FS

var ErrUnknownTemplate = errors.New("unknown template")

type Renderer interface {
	Render(w io.Writer, name string, model map[string]any) error
}

type HTMLRenderer struct {
	templates *template.Template
}

func New() (*HTMLRenderer, error) {
	templates, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &HTMLRenderer{templates: templates}, nil
}

func (r *HTMLRenderer) Render(w io.Writer, name string, model map[string]any) error {
	if r.templates.Lookup(name) == nil {
		return fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	if err := r.templates.ExecuteTemplate(w, name, model); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}
