package mail

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedTemplates(t *testing.T) {
	store := NewTemplateStore("")
	assert.Equal(t, "embedded", store.Source())

	c, err := LoadConfirmation(store)
	require.NoError(t, err)

	for _, body := range []string{c.Text, c.HTML} {
		for _, placeholder := range []string{"{{service}}", "{{date}}", "{{time}}", "{{notesBlock}}", "{{supportEmail}}"} {
			assert.Contains(t, body, placeholder)
		}
	}

	text, html := c.Render(RenderContext{Service: "Thai Massage", Date: "2025-03-14", Time: "15:30", SupportEmail: "help@example.com"})
	assert.Contains(t, text, "Service: Thai Massage")
	assert.NotContains(t, text, "{{")
	assert.Contains(t, html, `href="mailto:help@example.com"`)
	assert.NotContains(t, html, "{{")
}

func TestDirTemplates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TextTemplateName), []byte("text {{service}}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, HTMLTemplateName), []byte("<p>{{service}}</p>"), 0o600))

	store := NewTemplateStore(dir)
	c, err := LoadConfirmation(store)
	require.NoError(t, err)
	assert.Equal(t, "text {{service}}", c.Text)
	assert.Equal(t, "<p>{{service}}</p>", c.HTML)

	// edits are picked up on the next load
	require.NoError(t, os.WriteFile(filepath.Join(dir, TextTemplateName), []byte("changed"), 0o600))
	c, err = LoadConfirmation(store)
	require.NoError(t, err)
	assert.Equal(t, "changed", c.Text)
}

func TestLoadConfirmationMissingTemplate(t *testing.T) {
	tests := []struct {
		name    string
		fsys    fstest.MapFS
		missing string
	}{
		{
			name:    "text missing",
			fsys:    fstest.MapFS{HTMLTemplateName: {Data: []byte("<p/>")}},
			missing: TextTemplateName,
		},
		{
			name:    "html missing",
			fsys:    fstest.MapFS{TextTemplateName: {Data: []byte("t")}},
			missing: HTMLTemplateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfirmation(NewFSTemplateStore(tt.fsys, "test"))
			require.Error(t, err)
			assert.ErrorIs(t, err, fs.ErrNotExist)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestDirTemplatesNonexistentDir(t *testing.T) {
	_, err := NewTemplateStore(filepath.Join(t.TempDir(), "nope")).Load(TextTemplateName)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
