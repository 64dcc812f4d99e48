// Package assets embeds the tree icons referenced by explorer nodes. Icon
// paths are rooted at "icons/", matching the paths explorer.Icons returns.
package assets

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// IconFS contains the embedded icons. Walk from "icons" to iterate over all
// files.
//
//go:embed icons
var IconFS embed.FS

// FallbackIcon is served for icon paths with no embedded file, such as
// representation kinds introduced after this build.
const FallbackIcon = "icons/unknown.svg"

// Icon returns the SVG for an icon path, falling back to FallbackIcon.
func Icon(p string) ([]byte, error) {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	data, err := fs.ReadFile(IconFS, p)
	if err == nil {
		return data, nil
	}
	return fs.ReadFile(IconFS, FallbackIcon)
}

// Has reports whether p names an embedded icon.
func Has(p string) bool {
	_, err := fs.Stat(IconFS, p)
	return err == nil
}

// IconHandler serves icons under the request path, e.g. GET /icons/class.svg.
func IconHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ".svg") {
			http.NotFound(w, r)
			return
		}
		data, err := Icon(r.URL.Path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(data)
	})
}
