package router

import (
	"regexp"
	"strings"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

var (
	DefaultDocumentKeywords = []string{"zoe", "diagnoses", "medical history", "records", "report"}
	DefaultWebKeywords      = []string{"news", "current events", "latest", "update"}
)

const calculatorToken = "calculate"

// Two numbers joined by one binary operator, e.g. "2 + 2" or "10/5".
var arithmeticPattern = regexp.MustCompile(`\d+\s*[+\-*/]\s*\d+`)

type Config struct {
	DocumentKeywords []string `envconfig:"DOCUMENT_KEYWORDS" split_words:"true"`
	WebKeywords      []string `envconfig:"WEB_KEYWORDS" split_words:"true"`
}

// Router decides which responders apply to a query. It holds no mutable
// state and is safe for concurrent use.
type Router struct {
	documentKeywords []string
	webKeywords      []string
}

func New(cfg Config) *Router {
	docs := normalizeKeywords(cfg.DocumentKeywords)
	if len(docs) == 0 {
		docs = normalizeKeywords(DefaultDocumentKeywords)
	}
	web := normalizeKeywords(cfg.WebKeywords)
	if len(web) == 0 {
		web = normalizeKeywords(DefaultWebKeywords)
	}
	return &Router{
		documentKeywords: docs,
		webKeywords:      web,
	}
}

func (r *Router) Route(text string) contractx.RoutingDecision {
	return r.route(text, nil)
}

// RouteQuery routes the query text and also treats the child's name as a
// document keyword.
func (r *Router) RouteQuery(q contractx.Query) contractx.RoutingDecision {
	var extra []string
	if name := strings.ToLower(strings.TrimSpace(q.ChildName)); name != "" {
		extra = append(extra, name)
	}
	return r.route(q.Text, extra)
}

func (r *Router) route(text string, extraDocumentKeywords []string) contractx.RoutingDecision {
	lower := strings.ToLower(text)
	docKeywords := r.documentKeywords
	if len(extraDocumentKeywords) > 0 {
		docKeywords = append(append([]string(nil), r.documentKeywords...), extraDocumentKeywords...)
	}
	return contractx.RoutingDecision{
		Document:   containsAny(lower, docKeywords),
		WebSearch:  containsRecency(lower, r.webKeywords, docKeywords),
		Calculator: strings.Contains(lower, calculatorToken) || arithmeticPattern.MatchString(text),
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// containsRecency reports whether a recency keyword occurs in text. One
// occurrence is ignored: a recency word between a possessive and a document
// keyword ("zoe's latest report") points at the child's own records.
func containsRecency(text string, recency []string, documents []string) bool {
	for _, kw := range recency {
		for start := 0; start < len(text); {
			idx := strings.Index(text[start:], kw)
			if idx < 0 {
				break
			}
			idx += start
			end := idx + len(kw)
			if !qualifiesOwnRecord(text[:idx], text[end:], documents) {
				return true
			}
			start = end
		}
	}
	return false
}

func qualifiesOwnRecord(before, after string, documents []string) bool {
	before = strings.TrimRight(before, " \t")
	if !strings.HasSuffix(before, "'s") && !strings.HasSuffix(before, "\u2019s") {
		return false
	}
	return startsWithAny(strings.TrimLeft(after, " \t"), documents)
}

func startsWithAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.HasPrefix(text, kw) {
			return true
		}
	}
	return false
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
