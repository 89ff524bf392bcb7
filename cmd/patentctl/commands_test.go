package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patentai/internal/gateway/handler"
	"patentai/internal/gateway/repository/draft"
	"patentai/internal/generation"
	"patentai/internal/llm"
	llmclient "patentai/internal/llmClient"
	"patentai/internal/session"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func gateway(t *testing.T, fake *llm.FakeClient) *httptest.Server {
	t.Helper()
	profile, err := llmclient.ProfileFor(llmclient.ProviderFake)
	require.NoError(t, err)
	h := handler.NewGenerateHandler(generation.New(fake, profile), fake, draft.NewMemoryStore(0, 0), nil, 1<<20)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate-patent-stream", h.HandleStream)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFormGenerateSave(t *testing.T) {
	dir := t.TempDir()
	sessionPath := filepath.Join(dir, "session.json")
	srv := gateway(t, llm.NewFakeClient())

	out, _, err := execute(t, "", "--session", sessionPath, "form",
		"--title", "Widget", "--problem", "P", "--solution", "S", "--technical", "T", "--office", "wipo")
	require.NoError(t, err)
	assert.Contains(t, out, "stored invention for WIPO")

	docPath := filepath.Join(dir, "draft.md")
	_, progress, err := execute(t, "", "--session", sessionPath, "--server", srv.URL, "--log", "development",
		"generate", "--out", docPath, "--save")
	require.NoError(t, err)
	assert.Contains(t, progress, "generating Title...")
	assert.Contains(t, progress, "generating Detailed Description...")

	written, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(written), "## Title\n\n"))

	store, err := session.OpenFileStore(sessionPath)
	require.NoError(t, err)
	var generated string
	ok, err := session.Load(store, session.KeyGeneratedPatent, &generated)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, strings.TrimSuffix(string(written), "\n"), generated)

	d, ok, err := session.LoadDraft(store)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, generated, d.Document)
	assert.False(t, d.SavedAt.IsZero())
}

func TestGenerate_WithoutForm(t *testing.T) {
	_, _, err := execute(t, "", "--session", filepath.Join(t.TempDir(), "s.json"), "generate")
	assert.ErrorContains(t, err, "run patentctl form first")
}

func TestForm_Rejects(t *testing.T) {
	sessionPath := filepath.Join(t.TempDir(), "s.json")
	_, _, err := execute(t, "", "--session", sessionPath, "form", "--title", "Widget")
	assert.ErrorContains(t, err, "problem is required")

	_, _, err = execute(t, "", "--session", sessionPath, "form", "--office", "jpo")
	assert.ErrorContains(t, err, "unknown office")
}

func TestSessionSaveAndClear(t *testing.T) {
	sessionPath := filepath.Join(t.TempDir(), "s.json")
	_, _, err := execute(t, "", "--session", sessionPath, "session", "save")
	assert.ErrorContains(t, err, "nothing generated")

	store, err := session.OpenFileStore(sessionPath)
	require.NoError(t, err)
	require.NoError(t, session.SaveGenerated(store, "## Title\n\nWidget"))

	out, _, err := execute(t, "", "--session", sessionPath, "session", "save")
	require.NoError(t, err)
	assert.Contains(t, out, "draft saved at")

	out, _, err = execute(t, "", "--session", sessionPath, "session", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"savedPatent"`)
	assert.Contains(t, out, `"savedPatentDate"`)

	_, _, err = execute(t, "", "--session", sessionPath, "session", "clear")
	require.NoError(t, err)
	out, _, err = execute(t, "", "--session", sessionPath, "session", "show")
	require.NoError(t, err)
	assert.Equal(t, "{}\n", out)
}

func TestNormalizeAndOffices(t *testing.T) {
	out, _, err := execute(t, "<h2>Claims</h2><p>A <strong>widget</strong>.</p>", "normalize")
	require.NoError(t, err)
	assert.Equal(t, "## Claims\n\nA **widget**.\n", out)

	out, _, err = execute(t, "<p>A <em>widget</em></p>", "normalize", "--html")
	require.NoError(t, err)
	assert.Contains(t, out, "<p>A <em>widget</em></p>")

	out, _, err = execute(t, "", "offices")
	require.NoError(t, err)
	assert.Contains(t, out, "uspto")
	assert.Contains(t, out, "India")
}
