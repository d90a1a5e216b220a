// Package dashboard embeds the MESBoard web UI.
//
// The page subscribes to /api/sse. Snapshot events replace the text of the
// elements whose IDs appear in the snapshot's values, creating a tile for
// any ID the page does not have yet. Notify and dismiss events drive a
// single toast, so only one notification is ever on screen.
package dashboard

import "embed"

// Assets holds assets/index.html. The server replaces {{.Title}} in it with
// the HTML-escaped board title.
//
//go:embed assets
var Assets embed.FS
