package processor

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/fulmenhq/gousemin/pkg/block"
)

// File gathers everything known about one parsed source file.
type File struct {
	Path    string
	Dir     string
	Name    string
	Content string
	// SearchPath lists the directories references are resolved against.
	// It defaults to the file's own directory.
	SearchPath []string
	Blocks     []block.Block
}

// ParseFile scans content as the text of filePath.
func ParseFile(filePath, content string, opts ...block.Option) (*File, error) {
	blocks, err := block.Scan(content, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	dir := filepath.Dir(filePath)
	return &File{
		Path:       filePath,
		Dir:        dir,
		Name:       filepath.Base(filePath),
		Content:    content,
		SearchPath: []string{dir},
		Blocks:     blocks,
	}, nil
}

// ReadFile reads filePath from fs and scans it.
func ReadFile(fs billy.Filesystem, filePath string, opts ...block.Option) (*File, error) {
	data, err := util.ReadFile(fs, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	// Editors on Windows like to prepend a byte order mark; it would end up
	// glued to the first line of the output.
	data = bytes.TrimPrefix(data, utf8BOM)
	return ParseFile(filePath, string(data), opts...)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}
