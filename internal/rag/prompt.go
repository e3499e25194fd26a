package rag

import (
	"sort"
	"strings"

	"baymax/internal/llm"
	"baymax/internal/store"
)

// contextSeparator sits between retrieved passages so the model can
// tell where one document ends and the next begins.
const contextSeparator = "\n\n---\n"

// ragInstruction tells the model how to use the context block and to
// cite its sources.
const ragInstruction = "Gunakan informasi dari [KONTEKS] untuk menjawab pertanyaan. " +
	"Jika konteks tidak relevan, berikan jawaban umum sesuai kebijaksanaan Anda. " +
	"Selalu cantumkan bagian 'Sumber:' di akhir jawaban yang berisi nama lembaga, " +
	"dipisahkan oleh koma, dari sumber yang digunakan. " +
	"Jika Anda tidak dapat menemukan jawaban yang relevan atau yakin, katakan bahwa " +
	"Anda tidak tahu dan sarankan untuk berkonsultasi dengan tenaga medis."

// BuildPrompt folds retrieved passages into a grounded prompt and
// collects the distinct source agencies behind them. Sources come back
// sorted so the citation line is stable across runs. Passages already
// carry their "[topic / section]" headers from indexing, so the
// context block needs no extra labeling here.
func BuildPrompt(question string, hits []store.Hit) (string, []string) {
	passages := make([]string, 0, len(hits))
	sourceSet := make(map[string]struct{})
	for _, hit := range hits {
		passages = append(passages, hit.Content)
		for _, src := range hit.Sources {
			src = strings.TrimSpace(src)
			if src != "" {
				sourceSet[src] = struct{}{}
			}
		}
	}

	sources := make([]string, 0, len(sourceSet))
	for src := range sourceSet {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	var b strings.Builder
	b.WriteString(llm.BaymaxSystemPrompt)
	b.WriteString("\n\n[KONTEKS]\n")
	b.WriteString(strings.Join(passages, contextSeparator))
	b.WriteString("\n\n[PERTANYAAN PENGGUNA]\n")
	b.WriteString(question)
	b.WriteString("\n\n[PETUNJUK]\n")
	b.WriteString(ragInstruction)
	return b.String(), sources
}
