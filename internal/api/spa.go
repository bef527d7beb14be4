package api

import (
	"net/http"
	"os"
)

// spaFileSystem serves index.html for any path that is not a real asset so
// client-side routes survive a reload.
type spaFileSystem struct {
	root http.FileSystem
}

func (s *spaFileSystem) Open(name string) (http.File, error) {
	f, err := s.root.Open(name)
	if os.IsNotExist(err) {
		return s.root.Open("index.html")
	}
	return f, err
}
