// Package source loads raw Julia files or in-memory buffers into uniform
// items for the analysis pipeline, and discovers workspace files.
package source

import (
	"fmt"
	"os"
	"time"
)

// Metadata describes a loaded file.
type Metadata struct {
	LastModified time.Time
	Size         int64
}

// Item is one unit of input to the pipeline. Immutable once loaded.
type Item struct {
	Path    string
	Content []byte
	Meta    Metadata
}

// Load reads a file from disk into an Item.
func Load(path string) (Item, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Item{}, fmt.Errorf("stat %s: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Item{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Item{
		Path:    path,
		Content: content,
		Meta: Metadata{
			LastModified: info.ModTime(),
			Size:         info.Size(),
		},
	}, nil
}

// LoadAll reads every path, skipping files that cannot be read. A single
// unreadable file must not abort workspace loading.
func LoadAll(paths []string) []Item {
	items := make([]Item, 0, len(paths))
	for _, p := range paths {
		item, err := Load(p)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

// FromString wraps an in-memory buffer as an Item, for open editor
// documents that have no on-disk counterpart yet.
func FromString(path, text string) Item {
	return Item{
		Path:    path,
		Content: []byte(text),
		Meta: Metadata{
			LastModified: time.Now(),
			Size:         int64(len(text)),
		},
	}
}
