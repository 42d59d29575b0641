package batch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnsureDir creates dir and any missing parents. An existing directory is
// left as is.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return newError(KindIO, "create output directory", dir, err)
	}
	return nil
}

// TableArtifactName returns the artifact name for the index-th table of
// source (index starts at 0).
func TableArtifactName(source string, index int, ext string) string {
	return fmt.Sprintf("table_%s_%d.%s", source, index, ext)
}

// TextArtifactName returns the artifact name for the text of a 0-indexed
// page of source. The name carries the page number starting at 1.
func TextArtifactName(source string, page int) string {
	return fmt.Sprintf("text_%s_%d.txt", source, page+1)
}

// WriteArtifact writes an artifact named name into dir and returns its
// path. The content goes to a temporary file in dir that is renamed into
// place once write succeeds, so a failed write leaves no partial artifact.
// An existing artifact of the same name is replaced.
func WriteArtifact(dir, name string, write func(w io.Writer) error) (string, error) {
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", newError(KindIO, "create artifact", path, err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", newError(KindIO, "write artifact", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", newError(KindIO, "write artifact", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return "", newError(KindIO, "write artifact", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", newError(KindIO, "write artifact", path, err)
	}
	return path, nil
}
