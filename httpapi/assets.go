package httpapi

import (
	"embed"
	"io/fs"
)

// Shell page, tab strip styles and the display script.
//
//go:embed assets/index.html assets/app.css assets/app.js
var shellFiles embed.FS

var shellFS = mustSub(shellFiles, "assets")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
