package site

import (
	"io/fs"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/spashell/headless"
	"github.com/vcrobe/spashell/loader"
)

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"about", "contacts", "home"}, Registry().Routes())
}

func TestEveryRouteHasFragments(t *testing.T) {
	pages := Pages()
	for _, route := range Registry().Routes() {
		t.Run(route, func(t *testing.T) {
			_, err := fs.Stat(pages, path.Join(route, "index.css"))
			assert.NoError(t, err, "style fragment")

			_, errHTML := fs.Stat(pages, path.Join(route, "index.html"))
			_, errMD := fs.Stat(pages, path.Join(route, "index.md"))
			assert.True(t, errHTML == nil || errMD == nil, "markup fragment")
		})
	}
}

func TestShellHasMounts(t *testing.T) {
	doc, err := Shell()
	require.NoError(t, err)

	d, err := headless.ParseString(string(doc))
	require.NoError(t, err)

	m := loader.DefaultMounts
	for _, sel := range []string{m.Style, m.Content, "head>title", "#logo", "#siteName", "#mainMenu"} {
		assert.True(t, d.Exists(sel), sel)
	}

	n, err := d.BindClicks("#mainMenu a", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestFS(t *testing.T) {
	_, err := fs.Stat(FS(), ShellFile)
	assert.NoError(t, err)
	_, err = fs.Stat(FS(), "global.css")
	assert.NoError(t, err)
}
