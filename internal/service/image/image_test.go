package image

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/walter2161/grupo-de-agentes/internal/config"
)

func TestPresets(t *testing.T) {
	a := Artistic("robot")
	if a.Style != StyleArtistic || a.AspectRatio != Ratio1x1 || a.Quality != QualityHD {
		t.Errorf("Artistic() = %+v", a)
	}
	p := Photographic("beach")
	if p.Style != StylePhotographic || p.AspectRatio != Ratio16x9 || p.Quality != QualityHD {
		t.Errorf("Photographic() = %+v", p)
	}
}

func TestMappings(t *testing.T) {
	tests := []struct {
		req   Request
		size  string
		style string
		q     string
	}{
		{Artistic("x"), "1024x1024", "vivid", "hd"},
		{Photographic("x"), "1792x1024", "natural", "hd"},
		{Request{AspectRatio: Ratio9x16, Style: StyleAnime}, "1024x1792", "vivid", "standard"},
		{Request{}, "1024x1024", "vivid", "standard"},
	}
	for _, tt := range tests {
		if got := sizeFor(tt.req.AspectRatio); got != tt.size {
			t.Errorf("sizeFor(%q) = %q, want %q", tt.req.AspectRatio, got, tt.size)
		}
		if got := styleFor(tt.req.Style); got != tt.style {
			t.Errorf("styleFor(%q) = %q, want %q", tt.req.Style, got, tt.style)
		}
		if got := qualityFor(tt.req.Quality); got != tt.q {
			t.Errorf("qualityFor(%q) = %q, want %q", tt.req.Quality, got, tt.q)
		}
	}
}

func TestOpenAIGenerator(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1700000000,"data":[{"url":"https://img.example/1.png"}]}`))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator(config.ImageConfig{Enabled: true, APIKey: "k", BaseURL: srv.URL})
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	res, err := g.Generate(context.Background(), Photographic("sunset over Rio"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.URL != "https://img.example/1.png" || res.Prompt != "sunset over Rio" || !res.Timestamp.Equal(fixed) {
		t.Errorf("Result = %+v", res)
	}
	if got["size"] != "1792x1024" || got["style"] != "natural" || got["quality"] != "hd" {
		t.Errorf("request body = %v", got)
	}
}

func TestNewGeneratorDisabled(t *testing.T) {
	g := NewGenerator(config.ImageConfig{Enabled: false})
	if _, err := g.Generate(context.Background(), Artistic("x")); !errors.Is(err, ErrDisabled) {
		t.Errorf("Generate() error = %v, want ErrDisabled", err)
	}
}
