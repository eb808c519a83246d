// Package zip bundles generated images into a single downloadable archive.
package zip

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

type Entry struct {
	Name     string
	Data     []byte
	Modified time.Time
}

// Write streams entries as a zip archive. Images are already compressed, so
// entries are stored rather than deflated. Repeated names get a numeric suffix.
func Write(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	used := make(map[string]int, len(entries))
	for _, e := range entries {
		hdr := &zip.FileHeader{
			Name:     uniqueName(used, e.Name),
			Method:   zip.Store,
			Modified: e.Modified,
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("zip: create %s: %w", hdr.Name, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			return fmt.Errorf("zip: write %s: %w", hdr.Name, err)
		}
	}
	return zw.Close()
}

func uniqueName(used map[string]int, name string) string {
	name = strings.TrimLeft(path.Clean("/"+strings.ReplaceAll(name, `\`, "/")), "/")
	if name == "" || name == "." {
		name = "image"
	}
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n+1, ext)
}
