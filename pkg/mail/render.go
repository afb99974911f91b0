// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package mail

import "strings"

// RenderContext holds the values substituted into a confirmation template.
type RenderContext struct {
	Service      string
	Date         string
	Time         string
	Notes        string
	SupportEmail string
}

// NotesBlock returns "Notes: <notes>" or "" when there are no notes.
func (c RenderContext) NotesBlock() string {
	notes := strings.TrimSpace(c.Notes)
	if notes == "" {
		return ""
	}
	return "Notes: " + notes
}

// Render replaces {{service}}, {{date}}, {{time}}, {{supportEmail}} and
// {{notesBlock}} in tpl. Values are trimmed and inserted as-is, without HTML
// escaping. Any other placeholder is left untouched. Substituted values are
// not scanned again, so a value containing "{{date}}" stays literal.
func Render(tpl string, ctx RenderContext) string {
	r := strings.NewReplacer(
		"{{service}}", strings.TrimSpace(ctx.Service),
		"{{date}}", strings.TrimSpace(ctx.Date),
		"{{time}}", strings.TrimSpace(ctx.Time),
		"{{supportEmail}}", strings.TrimSpace(ctx.SupportEmail),
		"{{notesBlock}}", ctx.NotesBlock(),
	)
	return r.Replace(tpl)
}
