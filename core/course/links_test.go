package course

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func Test_ResolveShareLinks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ShareLinks
	}{
		{name: "empty", raw: "", want: ShareLinks{}},
		{name: "not a url", raw: "not a url", want: ShareLinks{}},
		{
			name: "drive file link",
			raw:  "https://drive.google.com/file/d/FILE123/view?usp=sharing",
			want: ShareLinks{
				ViewURL:     "https://drive.google.com/file/d/FILE123/view",
				DownloadURL: "https://drive.google.com/uc?export=download&id=FILE123",
			},
		},
		{
			name: "drive open link",
			raw:  "https://drive.google.com/open?id=FILE456",
			want: ShareLinks{
				ViewURL:     "https://drive.google.com/file/d/FILE456/view",
				DownloadURL: "https://drive.google.com/uc?export=download&id=FILE456",
			},
		},
		{
			name: "dropbox",
			raw:  "https://www.dropbox.com/s/abc/file.pdf",
			want: ShareLinks{
				ViewURL:     "https://www.dropbox.com/s/abc/file.pdf?dl=0",
				DownloadURL: "https://www.dropbox.com/s/abc/file.pdf?dl=1",
			},
		},
		{
			name: "onedrive",
			raw:  "https://1drv.ms/b/s!abc",
			want: ShareLinks{
				ViewURL:     "https://1drv.ms/b/s!abc",
				DownloadURL: "https://1drv.ms/b/s!abc?download=1",
			},
		},
		{
			name: "unknown host passes through",
			raw:  "https://example.com/material.pdf",
			want: ShareLinks{
				ViewURL:     "https://example.com/material.pdf",
				DownloadURL: "https://example.com/material.pdf",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveShareLinks(tt.raw); got != tt.want {
				t.Errorf("ResolveShareLinks() = %+v; want %+v", got, tt.want)
			}
		})
	}
}

func Test_ResolveDirectDownload(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "", want: ""},
		{
			name: "dropbox share path",
			raw:  "https://www.dropbox.com/s/abc/file.pdf",
			want: "https://dl.dropboxusercontent.com/s/abc/file.pdf",
		},
		{
			name: "drive file link",
			raw:  "https://drive.google.com/file/d/FILE123/view",
			want: "https://drive.google.com/uc?export=download&id=FILE123",
		},
		{
			name: "onedrive",
			raw:  "https://onedrive.live.com/embed?cid=XYZ",
			want: "https://onedrive.live.com/embed?cid=XYZ&download=1",
		},
		{
			name: "unknown host passes through",
			raw:  "https://example.com/material.pdf",
			want: "https://example.com/material.pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveDirectDownload(tt.raw); got != tt.want {
				t.Errorf("ResolveDirectDownload() = %v; want %v", got, tt.want)
			}
		})
	}
}

func Test_NormalizeVideoURL(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOk bool
	}{
		{name: "empty", raw: ""},
		{name: "not a url", raw: "not a url"},
		{name: "youtu.be", raw: "https://youtu.be/abc123", want: "https://www.youtube.com/watch?v=abc123", wantOk: true},
		{name: "youtu.be empty path", raw: "https://youtu.be/"},
		{name: "youtube watch", raw: "https://www.youtube.com/watch?v=abc123&t=10", want: "https://www.youtube.com/watch?v=abc123", wantOk: true},
		{name: "youtube missing id", raw: "https://www.youtube.com/watch"},
		{name: "vimeo", raw: "https://vimeo.com/123456", want: "https://vimeo.com/123456", wantOk: true},
		{name: "drive", raw: "https://drive.google.com/file/d/FILE123/view", want: "https://drive.google.com/file/d/FILE123/view", wantOk: true},
		{name: "direct mp4", raw: "https://cdn.example.com/intro.mp4", want: "https://cdn.example.com/intro.mp4", wantOk: true},
		{name: "plain http link", raw: "https://example.com/video", want: "https://example.com/video", wantOk: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeVideoURL(tt.raw)
			if got != tt.want || ok != tt.wantOk {
				t.Errorf("NormalizeVideoURL() = (%v, %v); want (%v, %v)", got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func Test_IsAllowedShareDomain(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{name: "drive", raw: "https://drive.google.com/file/d/ABC/view", want: true},
		{name: "docs", raw: "https://docs.google.com/document/d/ABC/edit", want: true},
		{name: "dropbox", raw: "https://www.dropbox.com/s/abc/file.pdf?dl=0", want: true},
		{name: "dropbox subdomain", raw: "https://dl.dropbox.com/s/abc/file.pdf", want: true},
		{name: "onedrive short", raw: "https://1drv.ms/b/s!abc", want: true},
		{name: "lookalike host", raw: "https://drive.google.com.evil.example/file", want: false},
		{name: "arbitrary host", raw: "https://example.com/file.pdf", want: false},
		{name: "not a url", raw: "not a url", want: false},
		{name: "empty", raw: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAllowedShareDomain(tt.raw); got != tt.want {
				t.Errorf("IsAllowedShareDomain(%q) = %v; want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func Test_NewCourse_Validate_archivoEnlace(t *testing.T) {
	validate := validator.New()

	base := NewCourse{
		Nombre:      "Curso",
		Descripcion: "Desc",
		Duracion:    "2 horas",
		FechaLimite: "2026-12-31",
		Cupos:       5,
	}

	nc := base
	nc.ArchivoEnlace = "https://drive.google.com/file/d/ABC/view"
	if err := nc.Validate(validate); err != nil {
		t.Errorf("Validate(drive link) err = %v; want nil", err)
	}

	nc = base
	if err := nc.Validate(validate); err != nil {
		t.Errorf("Validate(no link) err = %v; want nil", err)
	}

	nc = base
	nc.ArchivoEnlace = "https://example.com/file.pdf"
	if err := nc.Validate(validate); err == nil {
		t.Error("Validate(arbitrary host) err = nil; want archivoEnlace error")
	}

	enlace := "https://example.com/file.pdf"
	uc := UpdateCourse{ArchivoEnlace: &enlace}
	if err := uc.Validate(validate); err == nil {
		t.Error("UpdateCourse Validate(arbitrary host) err = nil; want archivoEnlace error")
	}
}
