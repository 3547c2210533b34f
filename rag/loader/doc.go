// Package loader reads local files into rag.Document values for the ingest
// command.
//
// Supported formats out of the box:
//   - Plain text and Markdown (.txt, .md): one document per paragraph
//   - JSON / JSONL (.json, .jsonl): one document per object, text from the
//     "text" field and an optional unsigned "id"
//
// Use Registry to route loading by file extension:
//
//	registry := loader.NewRegistry(loader.Options{FirstID: 1})
//	docs, err := registry.Load(ctx, "/path/to/data.jsonl")
package loader
