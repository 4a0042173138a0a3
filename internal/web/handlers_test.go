package web

import (
	"encoding/json"
	"image"
	"image/color"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/hpungsan/glimpse/internal/config"
	"github.com/hpungsan/glimpse/internal/db"
	"github.com/hpungsan/glimpse/internal/history"
)

func setupTest(t *testing.T) (*Handlers, *history.History, string) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.StorageDir = filepath.Join(tmpDir, "screenshots")

	hist, err := history.Open(database, cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}
	renderer := NewRenderer(templateSub, "test")

	return &Handlers{
		history:  hist,
		cfg:      cfg,
		renderer: renderer,
	}, hist, tmpDir
}

func addRecord(t *testing.T, hist *history.History, dir, name string, seed uint8, desc string) int64 {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 20), B: seed, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("write image: %v", err)
	}

	out, err := hist.Add(history.AddInput{Path: path, Description: desc})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return out.Record.ID
}

func TestHandleList_Empty(t *testing.T) {
	h, _, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodGet, "/screenshots", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No screenshots recorded yet") {
		t.Error("empty state not rendered")
	}
}

func TestHandleList_ShowsRecords(t *testing.T) {
	h, hist, dir := setupTest(t)
	addRecord(t, hist, dir, "a.png", 1, "login page with error banner")

	req := httptest.NewRequest(http.MethodGet, "/screenshots", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "login page with error banner") {
		t.Error("record description not rendered")
	}
}

func TestHandleSearch_EmptyQueryShowsForm(t *testing.T) {
	h, _, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodGet, "/screenshots/search", nil)
	rec := httptest.NewRecorder()
	h.HandleSearch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleSearch_WithQuery(t *testing.T) {
	h, hist, dir := setupTest(t)
	addRecord(t, hist, dir, "a.png", 1, "terminal with a stack trace")
	addRecord(t, hist, dir, "b.png", 2, "photo of a cat")

	req := httptest.NewRequest(http.MethodGet, "/screenshots/search?q=stack+trace", nil)
	rec := httptest.NewRecorder()
	h.HandleSearch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "terminal with a stack trace") {
		t.Error("matching record not rendered")
	}
	if strings.Contains(body, "photo of a cat") {
		t.Error("non-matching record rendered")
	}
}

func TestHandleDetail_RendersMarkdown(t *testing.T) {
	h, hist, dir := setupTest(t)
	id := addRecord(t, hist, dir, "a.png", 1, "**bold** description")

	req := httptest.NewRequest(http.MethodGet, "/screenshots/1", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.HandleDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (id %d)", rec.Code, id)
	}
	if !strings.Contains(rec.Body.String(), "<strong>bold</strong>") {
		t.Error("markdown not rendered to HTML")
	}
}

func TestHandleDetail_NotFound(t *testing.T) {
	h, _, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodGet, "/screenshots/999", nil)
	req.SetPathValue("id", "999")
	rec := httptest.NewRecorder()
	h.HandleDetail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDelete_JSONErrorNegotiation(t *testing.T) {
	h, _, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodDelete, "/screenshots/999", nil)
	req.SetPathValue("id", "999")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if payload.Error.Code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", payload.Error.Code)
	}
}

func TestHandleDelete_RemovesRecord(t *testing.T) {
	h, hist, dir := setupTest(t)
	id := addRecord(t, hist, dir, "a.png", 1, "short lived")

	req := httptest.NewRequest(http.MethodDelete, "/screenshots/1", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if _, err := hist.Get(id); err == nil {
		t.Error("record still present after delete")
	}
}

func TestHandleImage_ServesFile(t *testing.T) {
	h, hist, dir := setupTest(t)
	addRecord(t, hist, dir, "a.png", 1, "")

	req := httptest.NewRequest(http.MethodGet, "/screenshots/1/image", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.HandleImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "image/png") {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
}
