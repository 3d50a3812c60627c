package dev

import (
	"bytes"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sjc5/inkwell/internal/common"
)

// GetServeStaticHandler serves the output directory. HTML documents,
// including directory indexes, get the live reload script injected.
func GetServeStaticHandler(config *common.Config) http.Handler {
	root := config.GetDistDir()
	fileServer := http.FileServer(http.Dir(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		full := filepath.Join(root, filepath.FromSlash(name))

		info, err := os.Stat(full)
		if err == nil && info.IsDir() {
			if !strings.HasSuffix(r.URL.Path, "/") {
				// let the file server redirect to the canonical path
				fileServer.ServeHTTP(w, r)
				return
			}
			full = filepath.Join(full, "index.html")
		}

		if strings.EqualFold(filepath.Ext(full), ".html") {
			if b, err := os.ReadFile(full); err == nil {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Write(injectRefreshScript(b))
				return
			}
		}

		fileServer.ServeHTTP(w, r)
	})
}

func injectRefreshScript(doc []byte) []byte {
	script := []byte(GetRefreshScript())
	if len(script) == 0 {
		return doc
	}
	i := bytes.LastIndex(bytes.ToLower(doc), []byte("</body>"))
	if i == -1 {
		return append(doc, script...)
	}
	out := make([]byte, 0, len(doc)+len(script))
	out = append(out, doc[:i]...)
	out = append(out, script...)
	return append(out, doc[i:]...)
}
