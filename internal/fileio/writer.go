package fileio

import (
	"bufio"
	"io"
	"os"
	"path"
)

// Writer is a struct for writing report files into a run directory
type Writer struct {
	// rootDir is the directory every relative path is resolved against
	rootDir string
}

// NewWriter creates a writer rooted at rootDir
func NewWriter(rootDir string) *Writer {
	return &Writer{rootDir: rootDir}
}

// PathFor returns the full path for the provided file, useful for using functions
// and libraries that don't work with the fileio.Writer
func (w *Writer) PathFor(filePath string) string {
	return path.Join(w.rootDir, filePath)
}

// WriteStream creates the file at the provided path and lets render fill it.
// A file whose rendering failed is removed.
func (w *Writer) WriteStream(filePath string, render func(io.Writer) error) (err error) {
	fullPath := w.PathFor(filePath)
	outFile, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := outFile.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(fullPath)
		}
	}()

	buf := bufio.NewWriter(outFile)
	if err := render(buf); err != nil {
		return err
	}
	return buf.Flush()
}
