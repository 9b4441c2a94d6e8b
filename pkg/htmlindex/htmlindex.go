// Package htmlindex renders a browsable index.html into every directory of
// a repository tree, so the published bucket doubles as a plain file
// listing.
package htmlindex

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-logr/logr"
)

const fileName = "index.html"

var page = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Index of {{.Path}}</title></head>
<body>
<h1>Index of {{.Path}}</h1>
<table>
<tr><th align="left">Name</th><th align="right">Size</th></tr>
{{- if ne .Path "/"}}
<tr><td><a href="../">../</a></td><td></td></tr>
{{- end}}
{{- range .Entries}}
<tr><td><a href="{{.Href}}">{{.Name}}</a></td><td align="right">{{.Size}}</td></tr>
{{- end}}
</table>
</body>
</html>
`))

type entry struct {
	Name string
	Href string
	Size string
}

type pageData struct {
	Path    string
	Entries []entry
}

// Render writes an index.html into root and every directory below it.
// Hidden housekeeping files are not listed.
func Render(ctx context.Context, root string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("root", root)

	var dirs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		if err := renderDir(root, dir); err != nil {
			return err
		}
	}
	log.V(1).Info("rendered directory indexes", "count", len(dirs))
	return nil
}

func renderDir(root, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return err
	}
	webPath := "/"
	if rel != "." {
		webPath = "/" + filepath.ToSlash(rel) + "/"
	}

	data := pageData{Path: webPath}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || name == fileName {
			continue
		}
		if e.IsDir() {
			data.Entries = append(data.Entries, entry{Name: name + "/", Href: name + "/"})
			continue
		}
		info, err := e.Info()
		if err != nil {
			return err
		}
		data.Entries = append(data.Entries, entry{Name: name, Href: name, Size: humanSize(info.Size())})
	}
	sort.Slice(data.Entries, func(i, j int) bool {
		return data.Entries[i].Name < data.Entries[j].Name
	})

	f, err := os.Create(filepath.Join(dir, fileName))
	if err != nil {
		return err
	}
	if err := page.Execute(f, data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
