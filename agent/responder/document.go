package responder

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

const (
	DefaultTopK = 10

	NoDocumentsFound = "No relevant information found in the document index."

	snippetLogLength = 200
)

var (
	aboutPattern      = regexp.MustCompile(`\babout\b`)
	possessivePattern = regexp.MustCompile(`['’]s\b`)
)

// Document answers from the child's indexed records.
type Document struct {
	embedder  contractx.Embedder
	index     contractx.VectorIndex
	namespace string
	topK      int
}

func NewDocument(embedder contractx.Embedder, index contractx.VectorIndex, namespace string) *Document {
	return &Document{
		embedder:  embedder,
		index:     index,
		namespace: strings.TrimSpace(namespace),
		topK:      DefaultTopK,
	}
}

func (d *Document) Respond(ctx context.Context, prompt string) string {
	query := NormalizeQuery(prompt)
	if query == "" {
		return NoDocumentsFound
	}

	vector, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return fmt.Sprintf("Error in document retrieval: %v", err)
	}

	matches, err := d.index.Query(ctx, vector, d.topK, d.namespace)
	if err != nil {
		return fmt.Sprintf("Error in document retrieval: %v", err)
	}

	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		text := m.Text()
		if text == "" {
			log.Debug().Str("match_id", m.ID).Msg("document match has no content or text metadata")
			continue
		}
		log.Debug().
			Str("match_id", m.ID).
			Float64("score", m.Score).
			Str("snippet", truncateRunes(text, snippetLogLength)).
			Msg("document match")
		texts = append(texts, text)
	}
	if len(texts) == 0 {
		return NoDocumentsFound
	}
	return strings.Join(texts, "\n\n")
}

// NormalizeQuery turns a caregiver question into an index query: everything
// after the first standalone "about" (when something follows it), without
// possessive 's, ASCII punctuation or surrounding space, lower-cased.
func NormalizeQuery(text string) string {
	query := strings.ToLower(text)
	if loc := aboutPattern.FindStringIndex(query); loc != nil {
		if rest := strings.TrimSpace(query[loc[1]:]); rest != "" {
			query = rest
		}
	}
	query = possessivePattern.ReplaceAllString(query, "")
	query = strings.Map(func(r rune) rune {
		if isASCIIPunct(r) {
			return -1
		}
		return r
	}, query)
	return strings.TrimSpace(query)
}

func isASCIIPunct(r rune) bool {
	return strings.ContainsRune("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", r)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
