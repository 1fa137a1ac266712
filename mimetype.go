package main

import (
	"path/filepath"
	"strings"
)

// defaultMIME is used whenever the extension table has no entry.
const defaultMIME = "application/octet-stream"

// extensionMIME is a fixed extension->MIME table, not the OS mime database,
// so results are identical across platforms. Covers the 3-D tileset formats
// this server serves plus the common sibling asset types a tileset carries.
var extensionMIME = map[string]string{
	".json":  "application/json",
	".b3dm":  "application/octet-stream",
	".i3dm":  "application/octet-stream",
	".pnts":  "application/octet-stream",
	".cmpt":  "application/octet-stream",
	".glb":   "model/gltf-binary",
	".gltf":  "model/gltf+json",
	".bin":   "application/octet-stream",
	".ktx2":  "image/ktx2",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".png":   "image/png",
	".webp":  "image/webp",
	".txt":   "text/plain",
	".xml":   "application/xml",
	".html":  "text/html",
	".css":   "text/css",
	".js":    "application/javascript",
	".wasm":  "application/wasm",
	".zip":   "application/zip",
	".gz":    "application/gzip",
	".las":   "application/octet-stream",
	".laz":   "application/octet-stream",
}

// mimeFromPath derives a MIME type from a file's extension. The second
// return value is false when the extension is unknown, matching the spec's
// "unknown extensions yield None" rule; callers render that as defaultMIME.
func mimeFromPath(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	mt, ok := extensionMIME[ext]
	return mt, ok
}
