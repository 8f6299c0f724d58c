package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem implements the local file node: READ, WRITE, DELETE and LIST
// operations rooted at an optional base directory. When Root is set, paths
// escaping it are rejected.
type FileSystem struct {
	Root string
}

func NewFileSystem(root string) *FileSystem {
	return &FileSystem{Root: root}
}

func (f *FileSystem) Execute(_ context.Context, config map[string]any, _ map[string]string) (map[string]any, error) {
	operation := configString(config, "operation")
	filePath := configString(config, "filePath")

	resolved, err := f.resolvePath(filePath)
	if err != nil {
		return nil, err
	}

	switch operation {
	case "READ":
		content, err := os.ReadFile(resolved)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("file not found: %s", filePath)
			}
			return nil, err
		}
		return map[string]any{"status": "success", "content": string(content)}, nil

	case "WRITE":
		content := configString(config, "content")
		if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
			return nil, err
		}
		return map[string]any{"status": "success", "message": fmt.Sprintf("File written to %s", filePath)}, nil

	case "DELETE":
		err := os.Remove(resolved)
		if errors.Is(err, os.ErrNotExist) {
			return map[string]any{"status": "warning", "message": fmt.Sprintf("File not found: %s", filePath)}, nil
		}
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "success", "message": fmt.Sprintf("File deleted: %s", filePath)}, nil

	case "LIST":
		entries, err := os.ReadDir(resolved)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("directory not found: %s", filePath)
			}
			return nil, err
		}
		files := make([]any, 0, len(entries))
		for _, entry := range entries {
			files = append(files, entry.Name())
		}
		return map[string]any{"status": "success", "files": files}, nil

	default:
		return nil, fmt.Errorf("unsupported file system operation: %s", operation)
	}
}

func (f *FileSystem) resolvePath(filePath string) (string, error) {
	if f.Root == "" {
		return filePath, nil
	}
	joined := filepath.Join(f.Root, filePath)
	rel, err := filepath.Rel(f.Root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the configured root", filePath)
	}
	return joined, nil
}
