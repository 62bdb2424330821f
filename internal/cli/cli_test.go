package cli

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/globe/pkg/buildinfo"
	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/fonts"
	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/geocode"
	"github.com/matzehuels/globe/pkg/intel"
)

// isolate points config and cache lookups at a temp dir and clears secrets.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("MAPBOX_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GLOBE_REDIS_ADDR", "")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandTree(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"serve", "describe", "search", "reverse", "export", "cache", "config", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	isolate(t)
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if want := "globe " + buildinfo.String() + "\n"; out != want {
		t.Errorf("--version = %q, want %q", out, want)
	}
}

func TestConfigPathAndShow(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "globe.toml")
	if err := os.WriteFile(path, []byte("[map]\ntoken = \"pk.abcdefghijkl\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", path, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("config path = %q", out)
	}

	out, err = execute(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "abcdefghijkl") {
		t.Error("token not redacted")
	}
	if !strings.Contains(out, "pk.a****") {
		t.Errorf("redacted token missing from:\n%s", out)
	}
}

func TestConfigMissingEmojiFont(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "globe.toml")
	font := filepath.Join(dir, "missing.ttf")
	if err := os.WriteFile(path, []byte("[workspace]\nemoji_font = \""+font+"\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("missing emoji font should only warn: %v", err)
	}
	if !strings.Contains(out, "missing.ttf") {
		t.Errorf("emoji_font missing from:\n%s", out)
	}
	if !fonts.HasEmoji("★") {
		t.Error("built-in emoji font lost after failed load")
	}
}

func TestConfigInit(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.toml")

	if _, err := execute(t, "--config", path, "config", "init"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := execute(t, "--config", path, "config", "init"); err == nil {
		t.Error("second init without --force succeeded")
	}
	if _, err := execute(t, "--config", path, "config", "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestDescribeValidation(t *testing.T) {
	isolate(t)
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"bad mode", []string{"describe", "Oslo", "--mode", "poem"}, errors.ErrCodeInvalidMode},
		{"bad latitude", []string{"describe", "Oslo", "--lat", "91"}, errors.ErrCodeInvalidCoordinate},
		{"control chars", []string{"describe", "Os\x00lo"}, errors.ErrCodeInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append(tt.args, "--no-cache")...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDescribeModes(t *testing.T) {
	d := intel.NewOffline(0)
	opts := describeOptions{lat: 38.7223, lng: -9.1393}
	texts, err := describeModes(context.Background(), d, "Lisbon", opts, intel.Modes)
	if err != nil {
		t.Fatal(err)
	}
	if len(texts) != len(intel.Modes) {
		t.Fatalf("got %d texts", len(texts))
	}
	for i, m := range intel.Modes {
		want := intel.Template(intel.Request{Place: "Lisbon", Lat: opts.lat, Lng: opts.lng, Mode: m})
		if texts[i] != want {
			t.Errorf("mode %s: got %q, want %q", m, texts[i], want)
		}
	}
}

func TestSearchWithoutGeocoder(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "--config", path, "--no-cache", "search", "paris")
	if err == nil || !strings.Contains(err.Error(), "no geocoder") {
		t.Errorf("err = %v", err)
	}
}

func TestParseLngLat(t *testing.T) {
	tests := []struct {
		lng, lat string
		want     geo.LngLat
		ok       bool
	}{
		{"139.6917", "35.6895", geo.LngLat{Lng: 139.6917, Lat: 35.6895}, true},
		{"-180", "-90", geo.LngLat{Lng: -180, Lat: -90}, true},
		{"181", "0", geo.LngLat{}, false},
		{"0", "north", geo.LngLat{}, false},
		{"NaN", "0", geo.LngLat{}, false},
	}
	for _, tt := range tests {
		got, err := parseLngLat(tt.lng, tt.lat)
		if (err == nil) != tt.ok {
			t.Errorf("parseLngLat(%s, %s) err = %v", tt.lng, tt.lat, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("parseLngLat(%s, %s) = %v", tt.lng, tt.lat, got)
		}
		if !tt.ok && !errors.Is(err, errors.ErrCodeInvalidCoordinate) {
			t.Errorf("parseLngLat(%s, %s) code = %s", tt.lng, tt.lat, errors.GetCode(err))
		}
	}
}

func TestExportScene(t *testing.T) {
	dir := isolate(t)

	base := image.NewRGBA(image.Rect(0, 0, 400, 250))
	for i := range base.Pix {
		base.Pix[i] = 0xff
	}
	writePNG(t, filepath.Join(dir, "base.png"), base)

	scene := `{
	  "width": 200, "height": 125, "pixel_ratio": 2,
	  "center": {"lng": 0, "lat": 0}, "zoom": 2,
	  "base": "base.png",
	  "markers": [{"position": {"lng": 0, "lat": 0}, "color": "#0000ff"}],
	  "legend": [{"label": "Camp", "color": "#00ff00"}]
	}`
	scenePath := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(scenePath, []byte(scene), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out", "trip.png")

	if _, err := execute(t, "export", "--scene", scenePath, "-o", out); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 250 {
		t.Errorf("export size = %v", b)
	}
}

func TestExportRequiresScene(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "export"); err == nil {
		t.Error("export without --scene succeeded")
	}
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestFeaturePicker(t *testing.T) {
	features := []geocode.Feature{
		{ID: "1", Name: "Paris", PlaceName: "Paris, France", Center: geo.LngLat{Lng: 2.35, Lat: 48.85}, PlaceTypes: []string{"place"}},
		{ID: "2", Name: "Paris", PlaceName: "Paris, Texas", Center: geo.LngLat{Lng: -95.55, Lat: 33.66}, PlaceTypes: []string{"place"}},
		{ID: "3", Name: "Paris", PlaceName: "Paris, Ontario", Center: geo.LngLat{Lng: -80.38, Lat: 43.19}, PlaceTypes: []string{"place"}},
	}
	var m tea.Model = NewFeaturePicker(features)

	press := func(key string) {
		var msg tea.KeyMsg
		switch key {
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		}
		m, _ = m.Update(msg)
	}

	press("down")
	press("down")
	press("down")
	press("up")
	if got := m.(FeaturePicker).Cursor; got != 1 {
		t.Fatalf("cursor = %d, want 1", got)
	}
	if !strings.Contains(m.View(), "Paris, Texas") {
		t.Error("view lacks the results")
	}
	press("enter")
	sel := m.(FeaturePicker).Selected
	if sel == nil || sel.ID != "2" {
		t.Fatalf("selected = %+v", sel)
	}
}

func TestRenderDescription(t *testing.T) {
	got := renderDescription("**Lore — Kyoto**\n\nOld capital.")
	if strings.Contains(got, "**") {
		t.Errorf("title markers kept: %q", got)
	}
	if !strings.Contains(got, "Lore — Kyoto") || !strings.Contains(got, "Old capital.") {
		t.Errorf("render = %q", got)
	}
}
