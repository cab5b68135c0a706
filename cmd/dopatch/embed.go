package dopatch

import "embed"

// topicFiles holds the markdown pages served by `dopatch help <topic>`
//
//go:embed topics/*.md
var topicFiles embed.FS
