package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tinyrisks_admin/internal/cli"
	"tinyrisks_admin/internal/lib/apitest"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	out string
	err error
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()

	root := cli.NewRootCmd(nil)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()

	return result{out: out.String(), err: err}
}

func setupAPI(t *testing.T) *apitest.API {
	t.Helper()

	api, srv := apitest.Start(t)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("API_BASE_URL", srv.URL)

	return api
}

func TestThemeNext(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	res := run(t, "", "theme", "next", "cyan")
	require.NoError(t, res.err)
	assert.Equal(t, "light\n", res.out)

	res = run(t, "", "theme", "next", "neon")
	require.NoError(t, res.err)
	assert.Equal(t, "brass\n", res.out)

	res = run(t, "", "theme", "list")
	require.NoError(t, res.err)
	assert.Equal(t, "brass\ncyan\nlight\n", res.out)
}

func TestSnippets(t *testing.T) {
	setupAPI(t)

	res := run(t, "", "snippets", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "No posts yet. Create your first one!")

	title := gofakeit.Sentence(3)
	res = run(t, "", "snippets", "create", "--title", title, "--content", "text", "--tags", "a, b")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Post created successfully!")

	res = run(t, "", "snippets", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, title)
	assert.Contains(t, res.out, "a, b")
}

func TestPosts(t *testing.T) {
	api := setupAPI(t)

	res := run(t, "", "posts", "create", "--title", "Hello", "--content", "# Hi", "--published")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Post created!")

	res = run(t, "", "posts", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Hello")
	assert.Contains(t, res.out, "published")

	res = run(t, "", "posts", "unpublish", "1")
	require.NoError(t, res.err)

	res = run(t, "", "posts", "edit", "1", "--title", "Renamed")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Post updated!")

	res = run(t, "", "posts", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Renamed")
	assert.Contains(t, res.out, "draft")

	res = run(t, "", "--yes", "posts", "delete", "1")
	require.NoError(t, res.err)
	assert.Len(t, api.Requests("DELETE /api/text-posts/1"), 1)
}

func TestPostValidation(t *testing.T) {
	api := setupAPI(t)

	res := run(t, "", "posts", "create", "--title", "No content")
	require.Error(t, res.err)
	assert.Empty(t, api.Requests("POST /api/text-posts"))
}

func TestGalleryCreate(t *testing.T) {
	api := setupAPI(t)

	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("png"), 0o644))
	}

	res := run(t, "", "gallery", "create", "--title", "Sea", "--files", filepath.Join(dir, "*.png"))
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Gallery created!")
	assert.Len(t, api.Requests("POST /api/community-images"), 1)

	res = run(t, "", "gallery", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Sea")

	res = run(t, "", "gallery", "create", "--title", "Nothing")
	require.Error(t, res.err)
	assert.Len(t, api.Requests("POST /api/community-images"), 1)
}

func TestBuildAndLogout(t *testing.T) {
	api := setupAPI(t)

	res := run(t, "", "build")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Site built successfully!")
	assert.Equal(t, 1, api.Builds())

	res = run(t, "", "logout")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "/login")
	assert.Equal(t, 1, api.Logouts())
}

func TestRenderPage(t *testing.T) {
	dir := t.TempDir()
	site := filepath.Join(dir, "htdocs")

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("site:\n  output_dir: "+site+"\n"), 0o644))

	pagePath := filepath.Join(dir, "writing.yaml")
	require.NoError(t, os.WriteFile(pagePath, []byte(`
title: Writing
sections:
  - title: Posts
    posts:
      - title: First
        content: hello
`), 0o644))

	res := run(t, "", "--config", cfgPath, "render", "page", "--from", pagePath)
	require.NoError(t, res.err)

	written := filepath.Join(site, "writing.html")
	assert.Equal(t, written+"\n", res.out)

	page, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>Writing | TinyRisks.art</title>")
	assert.Contains(t, string(page), "First")

	res = run(t, "", "--config", cfgPath, "render", "page", "--from", pagePath, "--stdout")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.out, "<!DOCTYPE html>"))
}

func TestPreview(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	res := run(t, "**bold**", "preview")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "<strong>bold</strong>")
}
