package rest

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
)

const indexFile = "index.html"

// spaHandler serves the client bundle from dir. Paths that do not name a file fall back to
// index.html so client-side routes survive a reload.
type spaHandler struct {
	dir string
}

func (that spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := filepath.Join(that.dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))

	info, err := os.Stat(name)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		http.ServeFile(w, r, filepath.Join(that.dir, indexFile))
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.FileServer(http.Dir(that.dir)).ServeHTTP(w, r)
}
