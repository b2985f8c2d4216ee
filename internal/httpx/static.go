package httpx

import (
	"net/http"
	"path"
	"strings"
)

const (
	indexFile     = "index.html"
	assetMaxAge   = "public, max-age=86400"
	indexNoCache  = "no-cache"
	apiPathPrefix = "/api"
)

// SPA serves the built web app from dir. Paths that match no file get
// index.html so client-side routes survive a reload. API paths and
// non-GET methods keep the JSON 404.
func SPA(dir string) http.Handler {
	root := http.Dir(dir)
	files := http.FileServer(root)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			RouteNotFound(w, r)
			return
		}
		p := path.Clean("/" + r.URL.Path)
		if p == apiPathPrefix || strings.HasPrefix(p, apiPathPrefix+"/") {
			RouteNotFound(w, r)
			return
		}

		if p != "/" && p != "/"+indexFile && isFile(root, p) {
			w.Header().Set("Cache-Control", assetMaxAge)
			files.ServeHTTP(w, r)
			return
		}

		f, err := root.Open("/" + indexFile)
		if err != nil {
			RouteNotFound(w, r)
			return
		}
		defer f.Close()
		st, err := f.Stat()
		if err != nil {
			RouteNotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", indexNoCache)
		http.ServeContent(w, r, indexFile, st.ModTime(), f)
	})
}

func isFile(root http.FileSystem, name string) bool {
	f, err := root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	st, err := f.Stat()
	return err == nil && !st.IsDir()
}
