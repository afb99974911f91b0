// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
)

const (
	TextTemplateName = "confirmation.txt"
	HTMLTemplateName = "confirmation.html"
)

//go:embed templates/confirmation.txt templates/confirmation.html
var embeddedTemplates embed.FS

// TemplateStore loads raw template bodies by file name.
type TemplateStore interface {
	Load(name string) (string, error)
}

// FSTemplates reads templates from a filesystem on every call so that edits
// to a template directory take effect without a restart.
type FSTemplates struct {
	fsys   fs.FS
	source string
}

// NewTemplateStore returns a store over dir, or over the embedded defaults
// when dir is empty.
func NewTemplateStore(dir string) *FSTemplates {
	if dir == "" {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			// the embed pattern above guarantees the directory exists
			panic(err)
		}
		return &FSTemplates{fsys: sub, source: "embedded"}
	}
	return &FSTemplates{fsys: os.DirFS(dir), source: dir}
}

// NewFSTemplateStore wraps an arbitrary filesystem, e.g. fstest.MapFS in tests.
func NewFSTemplateStore(fsys fs.FS, source string) *FSTemplates {
	return &FSTemplates{fsys: fsys, source: source}
}

func (s *FSTemplates) Load(name string) (string, error) {
	b, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return "", fmt.Errorf("load template %s from %s: %w", name, s.source, err)
	}
	return string(b), nil
}

// Source describes where templates are read from, for logging.
func (s *FSTemplates) Source() string {
	return s.source
}

// Confirmation is the text and HTML template pair of a booking confirmation.
type Confirmation struct {
	Text string
	HTML string
}

// LoadConfirmation loads both confirmation templates. Either one missing is an error.
func LoadConfirmation(store TemplateStore) (Confirmation, error) {
	text, err := store.Load(TextTemplateName)
	if err != nil {
		return Confirmation{}, err
	}
	html, err := store.Load(HTMLTemplateName)
	if err != nil {
		return Confirmation{}, err
	}
	return Confirmation{Text: text, HTML: html}, nil
}

// Render renders both bodies with the same context.
func (c Confirmation) Render(ctx RenderContext) (text, html string) {
	return Render(c.Text, ctx), Render(c.HTML, ctx)
}
