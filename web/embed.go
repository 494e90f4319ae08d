// Package web embeds the Budget Buddy page templates and static assets.
package web

import "embed"

// TemplatesFS holds index.html and the overview and entries fragments.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the notification script.
//
//go:embed static/*
var StaticFS embed.FS
