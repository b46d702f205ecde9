package frontend

import (
	"embed"
)

// The concierge demo page. It talks to /api/v1/agent only.
//
//go:embed static
var embeddedFiles embed.FS
