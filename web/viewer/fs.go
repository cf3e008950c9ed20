// Package viewer embeds the static assets for the local web viewer.
package viewer

import "embed"

//go:embed index.html
var FS embed.FS
