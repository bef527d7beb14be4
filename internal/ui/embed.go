// Package ui embeds the built browser front end.
package ui

import "embed"

//go:embed dist
var DistFS embed.FS
