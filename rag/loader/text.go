package loader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/BaSui01/embedgate/rag"
)

// TextLoader 按空行切分段落，每段一个文档
type TextLoader struct {
	opts Options
}

// NewTextLoader creates a TextLoader.
func NewTextLoader(opts Options) *TextLoader {
	return &TextLoader{opts: opts.withDefaults()}
}

// Load reads a text or markdown file and returns one document per paragraph.
func (l *TextLoader) Load(ctx context.Context, source string) ([]rag.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("text loader: %w", err)
	}
	defer f.Close()

	var (
		docs []rag.Document
		para []string
	)
	flush := func() {
		if text := strings.TrimSpace(strings.Join(para, "\n")); text != "" {
			docs = append(docs, rag.Document{
				ID:   l.opts.FirstID + uint64(len(docs)),
				Text: text,
			})
		}
		para = para[:0]
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		para = append(para, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("text loader: reading %s: %w", source, err)
	}
	flush()

	return docs, nil
}

// SupportedTypes returns the extensions handled by TextLoader.
func (l *TextLoader) SupportedTypes() []string {
	return []string{".txt", ".md"}
}
