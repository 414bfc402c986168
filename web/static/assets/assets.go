// Package assets embute os estáticos servidos em /assets/ (css próprio;
// pico e htmx vêm de CDN).
package assets

import "embed"

//go:embed all:*
var FS embed.FS
