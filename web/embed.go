// Package web embeds the dashboard templates and static assets.
package web

import "embed"

// TemplatesFS contains the embedded HTML templates under templates/.
//
//go:embed all:templates
var TemplatesFS embed.FS

// StaticFS contains the embedded stylesheet under static/.
//
//go:embed all:static
var StaticFS embed.FS
