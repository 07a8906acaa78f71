package course

import (
	"net/url"
	"regexp"
	"strings"
)

// Course material lives on third-party sharing services; their share links are
// rewritten into direct view/download links, best-effort. Unknown hosts pass
// through untouched and malformed URLs resolve to empty links.

var allowedShareDomains = []string{
	"drive.google.com",
	"docs.google.com",
	"onedrive.live.com",
	"1drv.ms",
	"dropbox.com",
	"www.dropbox.com",
}

var directMediaRegex = regexp.MustCompile(`(?i)\.(mp4|webm|ogg|mov)$`)

// ShareLinks holds the rewritten course material links.
type ShareLinks struct {
	ViewURL     string `json:"viewUrl"`
	DownloadURL string `json:"downloadUrl"`
}

func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsAllowedShareDomain reports whether the link points at one of the sharing
// services course material may come from.
func IsAllowedShareDomain(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	host := u.Hostname()
	for _, d := range allowedShareDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// ResolveShareLinks rewrites a sharing link into view + download variants.
func ResolveShareLinks(raw string) ShareLinks {
	if raw == "" || !IsValidURL(raw) {
		return ShareLinks{}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ShareLinks{ViewURL: raw, DownloadURL: raw}
	}
	host := u.Hostname()

	switch {
	case strings.Contains(host, "drive.google.com"):
		fileID := driveFileID(u)
		if fileID == "" {
			return ShareLinks{ViewURL: raw, DownloadURL: raw}
		}
		return ShareLinks{
			ViewURL:     "https://drive.google.com/file/d/" + fileID + "/view",
			DownloadURL: "https://drive.google.com/uc?export=download&id=" + fileID,
		}

	case strings.Contains(host, "dropbox.com"):
		return ShareLinks{
			ViewURL:     withQueryParam(raw, "dl", "0"),
			DownloadURL: withQueryParam(raw, "dl", "1"),
		}

	case strings.Contains(host, "1drv.ms"), strings.Contains(host, "onedrive.live.com"):
		return ShareLinks{
			ViewURL:     raw,
			DownloadURL: withQueryParam(raw, "download", "1"),
		}
	}
	return ShareLinks{ViewURL: raw, DownloadURL: raw}
}

// ResolveDirectDownload rewrites a sharing link into its most direct download
// form (dropbox raw host, drive uc export, onedrive download flag).
func ResolveDirectDownload(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	host := u.Hostname()

	switch {
	case strings.Contains(host, "dropbox.com"):
		parts := splitPath(u.Path)
		if len(parts) >= 2 && parts[0] == "s" {
			end := 3
			if len(parts) < end {
				end = len(parts)
			}
			return "https://dl.dropboxusercontent.com/" + strings.Join(parts[:end], "/")
		}
		return withQueryParam(raw, "dl", "1")

	case strings.Contains(host, "drive.google.com"):
		if fileID := driveFileID(u); fileID != "" {
			return "https://drive.google.com/uc?export=download&id=" + fileID
		}
		return raw

	case strings.Contains(host, "1drv.ms"), strings.Contains(host, "onedrive.live.com"):
		return withQueryParam(raw, "download", "1")
	}
	return raw
}

// NormalizeVideoURL maps a stored video link to the URL a client should open.
// ok is false when the link cannot be resolved to anything playable.
func NormalizeVideoURL(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())

	switch {
	case strings.Contains(host, "youtu.be"):
		id := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "?", 2)[0]
		if id == "" {
			return "", false
		}
		return "https://www.youtube.com/watch?v=" + id, true

	case strings.Contains(host, "youtube.com"):
		id := u.Query().Get("v")
		if id == "" {
			return "", false
		}
		return "https://www.youtube.com/watch?v=" + id, true

	case strings.Contains(host, "vimeo.com"):
		parts := splitPath(u.Path)
		if len(parts) == 0 {
			return "", false
		}
		return "https://vimeo.com/" + parts[0], true

	case strings.Contains(host, "drive.google.com"):
		if fileID := driveFileID(u); fileID != "" {
			return "https://drive.google.com/file/d/" + fileID + "/view", true
		}
		return "", false

	case directMediaRegex.MatchString(u.Path):
		return raw, true
	}

	if IsValidURL(raw) {
		return raw, true
	}
	return "", false
}

func driveFileID(u *url.URL) string {
	if strings.Contains(u.Path, "/file/d/") {
		rest := strings.SplitN(u.Path, "/file/d/", 2)[1]
		return strings.SplitN(rest, "/", 2)[0]
	}
	return u.Query().Get("id")
}

func withQueryParam(raw, key, val string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set(key, val)
	u.RawQuery = q.Encode()
	return u.String()
}

func splitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}
