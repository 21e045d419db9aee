// Package web embeds static assets and HTML templates.
package web

import "embed"

// Templates holds the embedded HTML templates.
//
//go:embed templates
var Templates embed.FS
