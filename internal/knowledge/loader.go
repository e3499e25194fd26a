// Package knowledge loads the assistant's knowledge base source files.
// Two formats feed the index: kb.json holds structured topics with
// per-section payloads, mb.json holds freeform pre-chunked passages.
// Both flatten into the same Document shape for embedding and storage.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Document is one indexable unit of knowledge.
type Document struct {
	ID      string
	Topic   string
	Section string
	Text    string
	Sources []string
}

// kbFile mirrors kb.json: {"knowledge_base": [topic, ...]}.
type kbFile struct {
	KnowledgeBase []kbTopic `json:"knowledge_base"`
}

// kbTopic is one structured topic. Data is kept raw so a malformed
// topic can be skipped without dropping the whole file.
type kbTopic struct {
	TopicName string          `json:"topic_name"`
	Sources   []any           `json:"sources"`
	Data      json.RawMessage `json:"data"`
}

// mbChunk is one freeform passage from mb.json.
type mbChunk struct {
	ChunkText string         `json:"chunk_text"`
	Metadata  map[string]any `json:"metadata"`
}

// LoadKB reads and flattens the structured knowledge base. Each
// (topic, section) pair becomes one document whose text is a
// "[topic / section]" header followed by the payload rendered as
// "key: value" lines. A missing or malformed file yields an empty
// slice with a warning; it is not an error.
func LoadKB(path string, logger *zap.Logger) []Document {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("kb file does not exist; no structured knowledge will be loaded", zap.String("path", path))
		} else {
			logger.Warn("failed to read kb file", zap.String("path", path), zap.Error(err))
		}
		return nil
	}

	var file kbFile
	if err := json.Unmarshal(data, &file); err != nil {
		logger.Warn("failed to parse kb file", zap.String("path", path), zap.Error(err))
		return nil
	}

	var docs []Document
	for _, topic := range file.KnowledgeBase {
		// data must be an object of section -> payload; skip otherwise
		var sections map[string]json.RawMessage
		if err := json.Unmarshal(topic.Data, &sections); err != nil {
			continue
		}

		sources := normalizeSourceList(topic.Sources)

		names := make([]string, 0, len(sections))
		for name := range sections {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, section := range names {
			var payload any
			if err := json.Unmarshal(sections[section], &payload); err != nil {
				continue
			}

			header := fmt.Sprintf("[%s / %s]", topic.TopicName, section)
			docs = append(docs, Document{
				Topic:   topic.TopicName,
				Section: section,
				Text:    header + "\n" + strings.Join(payloadLines(payload), "\n"),
				Sources: sources,
			})
		}
	}

	return docs
}

// LoadMB reads the freeform passages. Entries without chunk text are
// skipped. A missing or malformed file yields an empty slice with a
// warning; it is not an error.
func LoadMB(path string, logger *zap.Logger) []Document {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("mb file does not exist; no freeform knowledge will be loaded", zap.String("path", path))
		} else {
			logger.Warn("failed to read mb file", zap.String("path", path), zap.Error(err))
		}
		return nil
	}

	var chunks []mbChunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		logger.Warn("failed to parse mb file", zap.String("path", path), zap.Error(err))
		return nil
	}

	var docs []Document
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.ChunkText) == "" {
			continue
		}
		docs = append(docs, Document{
			Topic:   metaString(chunk.Metadata, "topic_name"),
			Section: metaString(chunk.Metadata, "section"),
			Text:    chunk.ChunkText,
			Sources: normalizeSources(chunk.Metadata["sources"]),
		})
	}

	return docs
}

// Load reads both knowledge files and assigns sequential document IDs
// ("doc-0", "doc-1", ...) across the concatenation, kb first.
func Load(kbPath, mbPath string, logger *zap.Logger) []Document {
	docs := LoadKB(kbPath, logger)
	docs = append(docs, LoadMB(mbPath, logger)...)

	for i := range docs {
		docs[i].ID = fmt.Sprintf("doc-%d", i)
	}
	return docs
}

// payloadLines renders a section payload as text lines. Objects become
// "key: value" lines in key order, with one line per element for list
// values; lists and scalars are printed bare.
func payloadLines(payload any) []string {
	switch v := payload.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var lines []string
		for _, k := range keys {
			if items, ok := v[k].([]any); ok {
				for _, item := range items {
					lines = append(lines, fmt.Sprintf("%s: %v", k, item))
				}
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %v", k, v[k]))
		}
		return lines

	case []any:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			lines = append(lines, fmt.Sprint(item))
		}
		return lines

	default:
		return []string{fmt.Sprint(v)}
	}
}

// normalizeSources accepts the two source shapes metadata carries: a
// list of names, or a single comma-separated string.
func normalizeSources(raw any) []string {
	switch v := raw.(type) {
	case []any:
		return normalizeSourceList(v)
	case string:
		var sources []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				sources = append(sources, part)
			}
		}
		return sources
	default:
		return nil
	}
}

func normalizeSourceList(items []any) []string {
	var sources []string
	for _, item := range items {
		s := strings.TrimSpace(fmt.Sprint(item))
		if s != "" {
			sources = append(sources, s)
		}
	}
	return sources
}

func metaString(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}
