package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BaSui01/embedgate/rag"
)

// DocumentLoader reads a source file into documents ready for embedding.
// Returned documents carry ID and Text; Embedding is filled in by the caller.
type DocumentLoader interface {
	Load(ctx context.Context, source string) ([]rag.Document, error)

	// SupportedTypes returns the file extensions this loader handles (e.g. ".txt").
	SupportedTypes() []string
}

// Options 控制文档 ID 的分配
type Options struct {
	// FirstID 是源文件未提供 id 时分配的第一个 ID，之后依次递增
	FirstID uint64
	// TextField / IDField 是 JSON 对象中的字段路径（gjson 语法）
	TextField string
	IDField   string
}

func (o Options) withDefaults() Options {
	if o.TextField == "" {
		o.TextField = "text"
	}
	if o.IDField == "" {
		o.IDField = "id"
	}
	return o
}

// Registry routes Load calls to the appropriate DocumentLoader based on file extension.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]DocumentLoader // extension (lowercase, with dot) -> loader
}

// NewRegistry creates a registry pre-populated with the text and JSON loaders.
func NewRegistry(opts Options) *Registry {
	opts = opts.withDefaults()
	r := &Registry{loaders: make(map[string]DocumentLoader)}
	for _, l := range []DocumentLoader{NewTextLoader(opts), NewJSONLoader(opts)} {
		for _, ext := range l.SupportedTypes() {
			r.loaders[ext] = l
		}
	}
	return r
}

// Register adds or replaces a loader for the given file extension.
func (r *Registry) Register(ext string, loader DocumentLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[strings.ToLower(ext)] = loader
}

// Load determines the loader from the source's file extension and delegates to it.
func (r *Registry) Load(ctx context.Context, source string) ([]rag.Document, error) {
	ext := strings.ToLower(filepath.Ext(source))
	if ext == "" {
		return nil, fmt.Errorf("loader: cannot determine file type for %q (no extension)", source)
	}

	r.mu.RLock()
	l, ok := r.loaders[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("loader: no loader registered for extension %q", ext)
	}

	return l.Load(ctx, source)
}

// SupportedTypes returns all registered extensions, sorted.
func (r *Registry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
