package policy

import (
	"os"
	"time"
)

// Source is the named, timestamped resource a policy is loaded from.
type Source interface {
	Path() string
	Exists() bool
	LastModified() time.Time
}

// FileSource is a Source backed by a file on disk.
type FileSource struct {
	path string
}

func NewFileSource(path string) FileSource {
	return FileSource{path: path}
}

func (s FileSource) Path() string { return s.path }

func (s FileSource) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

func (s FileSource) LastModified() time.Time {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime().UTC()
}
