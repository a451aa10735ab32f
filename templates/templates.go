// Package templates embeds the slam-file templates shipped with slamgen.
package templates

import (
	"embed"
	"io/fs"
)

// SlamFileName is the native-engine template for a mapping run.
const SlamFileName = "slamfile.slm"

// Pongo2SlamFileName is the same script in pongo2 syntax, relative to
// Pongo2FS.
const Pongo2SlamFileName = "slamfile.tpl"

//go:embed slamfile.slm pongo2/*.tpl
var files embed.FS

// FS exposes every embedded template.
func FS() fs.FS {
	return files
}

// Pongo2FS is rooted at the pongo2 templates.
func Pongo2FS() fs.FS {
	sub, err := fs.Sub(files, "pongo2")
	if err != nil {
		panic(err)
	}
	return sub
}

// SlamFile returns the native-engine slam template source.
func SlamFile() string {
	data, err := files.ReadFile(SlamFileName)
	if err != nil {
		panic(err)
	}
	return string(data)
}
