package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/hpungsan/glimpse/internal/config"
	"github.com/hpungsan/glimpse/internal/db"
	"github.com/hpungsan/glimpse/internal/history"
)

// setupTestHistory creates a history engine over a temporary database.
func setupTestHistory(t *testing.T) (*history.History, *config.Config, string) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.StorageDir = filepath.Join(tmpDir, "screenshots")

	hist, err := history.Open(database, cfg)
	if err != nil {
		t.Fatalf("failed to open history: %v", err)
	}
	return hist, cfg, tmpDir
}

// captureStdout runs fn and returns what it wrote to stdout.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	runErr := fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("read captured stdout: %v", err)
	}
	return buf.String(), runErr
}

func writeCLITestPNG(t *testing.T, dir, name string, seed uint8) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 25), G: uint8(y * 25), B: seed, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("write test image: %v", err)
	}
	return path
}

func TestAddAndGetCommands(t *testing.T) {
	hist, cfg, dir := setupTestHistory(t)
	app := newCLIApp(hist, cfg, nil)
	path := writeCLITestPNG(t, dir, "shot.png", 1)

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"glimpse", "add", "--description", "login page", path})
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	var added struct {
		Record struct {
			ID int64 `json:"id"`
		} `json:"record"`
		Duplicate bool `json:"duplicate"`
	}
	if err := json.Unmarshal([]byte(out), &added); err != nil {
		t.Fatalf("add output is not JSON: %v\n%s", err, out)
	}
	if added.Record.ID == 0 || added.Duplicate {
		t.Fatalf("add output = %+v", added)
	}

	out, err = captureStdout(t, func() error {
		return app.Run([]string{"glimpse", "get", "1"})
	})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !strings.Contains(out, "login page") {
		t.Errorf("get output missing description: %s", out)
	}
}

func TestSearchCommand(t *testing.T) {
	hist, cfg, dir := setupTestHistory(t)
	app := newCLIApp(hist, cfg, nil)

	if _, err := hist.Add(history.AddInput{
		Path:        writeCLITestPNG(t, dir, "a.png", 1),
		Description: "database migration error",
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"glimpse", "search", "migration"})
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(out, "database migration error") {
		t.Errorf("search output missing match: %s", out)
	}

	// An unsearchable query exits non-zero with the error code.
	_, err = captureStdout(t, func() error {
		return app.Run([]string{"glimpse", "search", "!!!"})
	})
	if err == nil || !strings.Contains(err.Error(), "INVALID_QUERY") {
		t.Errorf("err = %v, want INVALID_QUERY", err)
	}
}

func TestDeleteCommand_Idempotent(t *testing.T) {
	hist, cfg, dir := setupTestHistory(t)
	app := newCLIApp(hist, cfg, nil)

	if _, err := hist.Add(history.AddInput{Path: writeCLITestPNG(t, dir, "a.png", 1)}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"glimpse", "delete", "1"})
	})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(out, `"deleted": true`) {
		t.Errorf("first delete output: %s", out)
	}

	out, err = captureStdout(t, func() error {
		return app.Run([]string{"glimpse", "delete", "1"})
	})
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if !strings.Contains(out, `"deleted": false`) {
		t.Errorf("second delete output: %s", out)
	}
}

func TestCleanupCommand_ParsesMaxAge(t *testing.T) {
	hist, cfg, _ := setupTestHistory(t)
	app := newCLIApp(hist, cfg, nil)

	out, err := captureStdout(t, func() error {
		return app.Run([]string{"glimpse", "cleanup", "--max-age", "7d"})
	})
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if !strings.Contains(out, `"max_age_days": 7`) {
		t.Errorf("cleanup output: %s", out)
	}

	_, err = captureStdout(t, func() error {
		return app.Run([]string{"glimpse", "cleanup", "--max-age", "7"})
	})
	if err == nil {
		t.Error("cleanup accepted a duration without the d suffix")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"7d", 7, false},
		{"30d", 30, false},
		{"0d", 0, false},
		{"7", 0, true},
		{"-1d", 0, true},
		{"xd", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDuration(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestIsCLIMode(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"glimpse"}, false},
		{[]string{"glimpse", "add"}, true},
		{[]string{"glimpse", "search", "error"}, true},
		{[]string{"glimpse", "--help"}, true},
		{[]string{"glimpse", "-v"}, true},
		{[]string{"glimpse", "bogus"}, false},
	}
	for _, tt := range tests {
		os.Args = tt.args
		if got := isCLIMode(); got != tt.want {
			t.Errorf("isCLIMode(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
