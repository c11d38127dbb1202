package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/jask/pathoscreen/internal/catalog"
	"github.com/jask/pathoscreen/internal/config"
	"github.com/jask/pathoscreen/internal/logx"
	"github.com/jask/pathoscreen/internal/prefs"
	"github.com/jask/pathoscreen/internal/screening"
	"github.com/jask/pathoscreen/internal/secrets"
	"github.com/jask/pathoscreen/internal/stub"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}

func init() {
	color.NoColor = true
	logx.Discard()
}

func testConfig(t *testing.T, endpoint string) config.Config {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("PATHOSCREEN_TOKEN", "")
	return config.Config{
		Analysis: config.AnalysisConfig{Endpoint: endpoint, Timeout: 5 * time.Second, TokenEnv: "PATHOSCREEN_TOKEN"},
		Media:    config.MediaConfig{Library: home},
		Database: config.DatabaseConfig{Path: filepath.Join(home, "data", "pathoscreen.db")},
		Catalog:  config.CatalogConfig{Path: filepath.Join(home, "missing-variants.toml")},
	}
}

func writeSlide(t *testing.T, name string, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func run(t *testing.T, cfg config.Config, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := runCommand(context.Background(), cfg, args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestAnalyzeCommandPrintsResultAndRecordsHistory(t *testing.T) {
	srv := httptest.NewServer(stub.NewRouter(stub.Options{Variants: []string{"JR", "SR"}}))
	defer srv.Close()
	cfg := testConfig(t, srv.URL+"/analyze")
	slide := writeSlide(t, "liver.jpg", jpegBytes)

	code, out, errOut := run(t, cfg, "analyze", "-image", slide, "-organ", "Liver", "-variant", "jr")
	require.Equal(t, 0, code, errOut)
	for _, want := range []string{"Analysis Results", "Observations", "Preliminary Diagnosis", "Confidence Level", "Disclaimer", "Liver tissue"} {
		require.Contains(t, out, want)
	}
	require.Contains(t, errOut, "JR PathoAI")

	code, out, _ = run(t, cfg, "history")
	require.Equal(t, 0, code)
	require.Contains(t, out, "✓")
	require.Contains(t, out, "JR")
	require.Contains(t, out, "Liver")

	path, err := prefs.Path("")
	require.NoError(t, err)
	p, err := prefs.Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Dir(slide), p.LastLibrary)
}

func TestAnalyzeCommandFailureIsRecorded(t *testing.T) {
	srv := httptest.NewServer(stub.NewRouter(stub.Options{Token: "expected"}))
	defer srv.Close()
	cfg := testConfig(t, srv.URL+"/analyze")
	slide := writeSlide(t, "lung.jpg", jpegBytes)

	code, _, errOut := run(t, cfg, "analyze", "-image", slide, "-organ", "Lung")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "Analysis failed")
	require.Contains(t, errOut, "Please try again.")

	_, out, _ := run(t, cfg, "history", "-n", "5")
	require.Contains(t, out, "✗")
	require.Contains(t, out, "status 401")
}

func TestAnalyzeCommandUsesStoredToken(t *testing.T) {
	srv := httptest.NewServer(stub.NewRouter(stub.Options{Token: "from-store"}))
	defer srv.Close()
	cfg := testConfig(t, srv.URL+"/analyze")
	slide := writeSlide(t, "skin.jpg", jpegBytes)

	code, out, _ := run(t, cfg, "token", "set", "from-store")
	require.Equal(t, 0, code)
	require.Contains(t, out, "token saved")

	code, _, errOut := run(t, cfg, "analyze", "-image", slide, "-organ", "Skin")
	require.Equal(t, 0, code, errOut)

	code, _, _ = run(t, cfg, "token", "clear")
	require.Equal(t, 0, code)
	code, _, _ = run(t, cfg, "analyze", "-image", slide, "-organ", "Skin")
	require.Equal(t, 1, code)
}

func TestAnalyzeCommandValidation(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/analyze")
	slide := writeSlide(t, "a.jpg", jpegBytes)
	notImage := writeSlide(t, "notes.jpg", []byte("just some text"))

	code, _, errOut := run(t, cfg, "analyze", "-organ", "Liver")
	require.Equal(t, 2, code)
	require.Contains(t, errOut, "-image is required")

	code, _, errOut = run(t, cfg, "analyze", "-image", slide, "-organ", "   ")
	require.Equal(t, 2, code)
	require.Contains(t, errOut, "-organ is required")

	code, _, errOut = run(t, cfg, "analyze", "-image", slide, "-organ", "Liver", "-variant", "XL")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "unknown variant")

	code, _, errOut = run(t, cfg, "analyze", "-image", notImage, "-organ", "Liver")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "Not an image")
}

func TestHistoryShowsOneAttempt(t *testing.T) {
	srv := httptest.NewServer(stub.NewRouter(stub.Options{}))
	defer srv.Close()
	cfg := testConfig(t, srv.URL+"/analyze")
	slide := writeSlide(t, "kidney.jpg", jpegBytes)

	code, _, errOut := run(t, cfg, "analyze", "-image", slide, "-organ", "Kidney", "-context", "hematuria")
	require.Equal(t, 0, code, errOut)

	_, out, _ := run(t, cfg, "history")
	fields := strings.Fields(strings.TrimSpace(out))
	id := fields[len(fields)-1]

	code, out, errOut = run(t, cfg, "history", "-id", id)
	require.Equal(t, 0, code, errOut)
	for _, want := range []string{"Kidney", "kidney.jpg", "context: hematuria", "Preliminary Diagnosis", "Disclaimer"} {
		require.Contains(t, out, want)
	}

	code, _, errOut = run(t, cfg, "history", "-id", "does-not-exist")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "no analysis with id")
}

func TestInitScaffoldsFiles(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/analyze")
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("PATHOSCREEN_CONFIG", cfgPath)

	code, out, errOut := run(t, cfg, "init")
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "wrote "+cfgPath)
	require.Contains(t, out, "wrote "+cfg.Catalog.Path)
	require.Contains(t, out, "at schema 1")

	loaded, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, cfg.Analysis.Endpoint, loaded.Analysis.Endpoint)
	require.Equal(t, cfg.Catalog.Path, loaded.Catalog.Path)

	cat, err := catalog.Load(cfg.Catalog.Path)
	require.NoError(t, err)
	require.Equal(t, screening.DefaultCatalog(), cat)

	code, out, _ = run(t, cfg, "init")
	require.Equal(t, 0, code)
	require.Contains(t, out, "kept "+cfgPath)
	require.Contains(t, out, "kept "+cfg.Catalog.Path)
	require.NotContains(t, out, "wrote")

	code, out, _ = run(t, cfg, "init", "-force")
	require.Equal(t, 0, code)
	require.Contains(t, out, "wrote "+cfgPath)
}

func TestVariantsCommand(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/analyze")
	code, out, _ := run(t, cfg, "variants")
	require.Equal(t, 0, code)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "  JR"))
	require.Contains(t, lines[0], "1/7 used today")
	require.True(t, strings.HasPrefix(lines[1], "* SR"))
}

func TestUnknownCommand(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/analyze")
	code, _, errOut := run(t, cfg, "frobnicate")
	require.Equal(t, 2, code)
	require.Contains(t, errOut, "usage: pathoscreen")
}

func TestResolveTokenOrder(t *testing.T) {
	cfg := testConfig(t, "http://x")
	cfg.Analysis.Token = "from-config"
	store, err := secrets.NewStore(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "from-config", resolveToken(cfg, store))

	require.NoError(t, store.Put(tokenName, "from-store"))
	require.Equal(t, "from-store", resolveToken(cfg, store))

	t.Setenv("PATHOSCREEN_TOKEN", "from-env")
	require.Equal(t, "from-env", resolveToken(cfg, store))
}

func TestNewControllerPrefersLastVariant(t *testing.T) {
	e := &env{catalog: screening.DefaultCatalog()}
	require.Equal(t, "SR", e.newController().State().Variant.Tag)

	e.cfg.UI.DefaultVariant = "jr"
	require.Equal(t, "JR", e.newController().State().Variant.Tag)

	e.cfg.UI.DefaultVariant = "JR"
	e.prefs.LastVariant = "SR"
	require.Equal(t, "SR", e.newController().State().Variant.Tag)

	e.prefs.LastVariant = "gone"
	require.Equal(t, "JR", e.newController().State().Variant.Tag)
}
