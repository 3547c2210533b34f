package loader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BaSui01/embedgate/rag"
	"github.com/tidwall/gjson"
)

// JSONLoader loads JSON arrays, single JSON objects and JSONL files.
// Each object must carry a non-empty text field; the id field is optional.
type JSONLoader struct {
	opts Options
}

// NewJSONLoader creates a JSONLoader.
func NewJSONLoader(opts Options) *JSONLoader {
	return &JSONLoader{opts: opts.withDefaults()}
}

// Load reads a JSON or JSONL file and returns Documents.
func (l *JSONLoader) Load(ctx context.Context, source string) ([]rag.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if strings.ToLower(filepath.Ext(source)) == ".jsonl" {
		return l.loadJSONL(source)
	}
	return l.loadJSON(source)
}

// loadJSON handles .json files (single object or array).
func (l *JSONLoader) loadJSON(source string) ([]rag.Document, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("json loader: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return []rag.Document{}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("json loader: %s is not valid JSON", source)
	}

	root := gjson.ParseBytes(data)
	var items []gjson.Result
	switch {
	case root.IsArray():
		items = root.Array()
	case root.IsObject():
		items = []gjson.Result{root}
	default:
		return nil, fmt.Errorf("json loader: %s must contain an object or an array", source)
	}

	docs := make([]rag.Document, 0, len(items))
	for i, item := range items {
		doc, err := l.toDocument(item, len(docs))
		if err != nil {
			return nil, fmt.Errorf("json loader: %s item %d: %w", source, i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// loadJSONL handles .jsonl files (one JSON object per line).
func (l *JSONLoader) loadJSONL(source string) ([]rag.Document, error) {
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("jsonl loader: %w", err)
	}
	defer f.Close()

	var docs []rag.Document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !gjson.Valid(line) {
			return nil, fmt.Errorf("jsonl loader: line %d in %s: invalid JSON", lineNum, source)
		}
		doc, err := l.toDocument(gjson.Parse(line), len(docs))
		if err != nil {
			return nil, fmt.Errorf("jsonl loader: line %d in %s: %w", lineNum, source, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("jsonl loader: reading %s: %w", source, err)
	}
	return docs, nil
}

// toDocument 提取文本与 ID；缺少 id 时按位置分配 FirstID+index
func (l *JSONLoader) toDocument(item gjson.Result, index int) (rag.Document, error) {
	if !item.IsObject() {
		return rag.Document{}, fmt.Errorf("expected an object, got %s", item.Type)
	}

	text := item.Get(l.opts.TextField)
	if text.Type != gjson.String || strings.TrimSpace(text.Str) == "" {
		return rag.Document{}, fmt.Errorf("field %q must be a non-empty string", l.opts.TextField)
	}

	id := l.opts.FirstID + uint64(index)
	if v := item.Get(l.opts.IDField); v.Exists() {
		if v.Type != gjson.Number || v.Num < 0 || v.Num != float64(uint64(v.Num)) {
			return rag.Document{}, fmt.Errorf("field %q must be an unsigned integer", l.opts.IDField)
		}
		id = v.Uint()
	}

	return rag.Document{ID: id, Text: text.Str}, nil
}

// SupportedTypes returns the extensions handled by JSONLoader.
func (l *JSONLoader) SupportedTypes() []string {
	return []string{".json", ".jsonl"}
}
