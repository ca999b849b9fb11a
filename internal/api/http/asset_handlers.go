package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub-io/learnhub-portal/internal/storage"
)

const maxUploadBytes = 512 << 20 // lesson videos get large

// UploadAssetHandler accepts a multipart upload and stores it under the
// key given in the "key" form field.
func UploadAssetHandler(store storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "bad multipart body", http.StatusBadRequest)
			return
		}
		key := r.FormValue("key")
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		defer f.Close()
		canonical, err := store.Put(key, f)
		if err != nil {
			if errors.Is(err, storage.ErrBadKey) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{
			"key": canonical,
			"url": store.URL(canonical),
		})
	}
}

// AssetHandler streams a stored asset. Mounted at /assets/*.
func AssetHandler(store storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		rc, err := store.Open(key)
		if err != nil {
			if errors.Is(err, storage.ErrBadKey) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if os.IsNotExist(err) {
				http.Error(w, "asset not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rc.Close()
		if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		io.Copy(w, rc)
	}
}
