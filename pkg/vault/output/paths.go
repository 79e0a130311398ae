package output

import "bytes"

// PathsFormatter writes one absolute package root per line so the listing
// can be piped into xargs, open or a file manager.
type PathsFormatter struct{}

func (f *PathsFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, p := range r.Packages {
		w.WriteString(p.Path)
		w.WriteByte('\n')
	}
	return nil
}
