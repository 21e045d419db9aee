package pdf

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// AssetConfig locates image files referenced by documents.
type AssetConfig struct {
	// UploadsDir is where API uploads land on disk.
	UploadsDir string
	// PublicDir holds static assets shipped with the deployment.
	PublicDir string
	// APIBaseURL is the public origin used when a file cannot be found
	// locally and the reference must degrade to a remote URL.
	APIBaseURL string
}

// Assets resolves stored image references into strings that can be dropped
// straight into an <img src> attribute. Resolution never fails: missing
// files degrade to a URL against the API origin.
type Assets struct {
	cfg  AssetConfig
	logo string
}

// NewAssets constructs the resolver and loads the company logo once. The
// logo is probed from the public dir, the uploads dir, then the working
// directory; when none exists the document falls back to a text wordmark.
func NewAssets(cfg AssetConfig, logger *slog.Logger) *Assets {
	a := &Assets{cfg: cfg}
	for _, candidate := range []string{
		filepath.Join(cfg.PublicDir, "logo.png"),
		filepath.Join(cfg.UploadsDir, "logo.png"),
		"logo.png",
	} {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		a.logo = "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
		if logger != nil {
			logger.Info("pdf: logo loaded", slog.String("path", candidate))
		}
		break
	}
	return a
}

// Logo returns the embeddable logo data URI, or "" when no logo file exists.
func (a *Assets) Logo() string {
	return a.logo
}

// ResolveImage turns a stored image reference into an embeddable source.
// Data URIs and absolute URLs pass through; relative paths are probed
// against the local candidate roots and inlined as base64 on the first hit.
// Read errors skip to the next candidate; a total miss falls back to
// <APIBaseURL>/uploads/<ref>.
func (a *Assets) ResolveImage(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "http") {
		return ref
	}

	for _, candidate := range []string{
		filepath.Join(a.cfg.UploadsDir, ref),
		filepath.Join(a.cfg.PublicDir, "uploads", ref),
		ref,
	} {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		return fmt.Sprintf("data:image/%s;base64,%s", mimeForExt(filepath.Ext(candidate)), base64.StdEncoding.EncodeToString(data))
	}

	return strings.TrimSuffix(a.cfg.APIBaseURL, "/") + "/uploads/" + ref
}

func mimeForExt(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return "png"
	case "webp":
		return "webp"
	case "gif":
		return "gif"
	default:
		return "jpeg"
	}
}
