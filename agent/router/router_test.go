package router

import (
	"testing"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

func TestRouteKeywordTable(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	tests := []struct {
		name string
		text string
		want contractx.RoutingDecision
	}{
		{"no keywords", "How do I help with bedtime?", contractx.RoutingDecision{}},
		{"empty", "", contractx.RoutingDecision{}},
		{"child name", "What is Zoe's latest report?", contractx.RoutingDecision{Document: true}},
		{"possessive recency", "Show Liam's latest   records", contractx.RoutingDecision{Document: true}},
		{"curly possessive recency", "Zoe\u2019s latest report", contractx.RoutingDecision{Document: true}},
		{"recency without possessive", "show the latest records", contractx.RoutingDecision{Document: true, WebSearch: true}},
		{"recency on its own", "latest guidance for Zoe's report", contractx.RoutingDecision{Document: true, WebSearch: true}},
		{"news before report", "any news report about ADHD medication?", contractx.RoutingDecision{Document: true, WebSearch: true}},
		{"latest reports on research", "latest reports on autism research", contractx.RoutingDecision{Document: true, WebSearch: true}},
		{"update records", "update records from the CDC", contractx.RoutingDecision{Document: true, WebSearch: true}},
		{"possessive then other recency", "Zoe's latest report and the latest news", contractx.RoutingDecision{Document: true, WebSearch: true}},
		{"medical history", "Summarize the MEDICAL HISTORY please", contractx.RoutingDecision{Document: true}},
		{"diagnoses", "list the diagnoses", contractx.RoutingDecision{Document: true}},
		{"records", "any school records?", contractx.RoutingDecision{Document: true}},
		{"news", "Any news on ADHD research?", contractx.RoutingDecision{WebSearch: true}},
		{"current events", "current events in autism policy", contractx.RoutingDecision{WebSearch: true}},
		{"update", "Is there an update on the guidelines?", contractx.RoutingDecision{WebSearch: true}},
		{"calculate token", "Calculate the weekly hours", contractx.RoutingDecision{Calculator: true}},
		{"calculate", "calculate 5 * 6", contractx.RoutingDecision{Calculator: true}},
		{"arithmetic", "what is 2 + 2", contractx.RoutingDecision{Calculator: true}},
		{"arithmetic no spaces", "12/4 sessions", contractx.RoutingDecision{Calculator: true}},
		{"arithmetic minus", "10 -3", contractx.RoutingDecision{Calculator: true}},
		{"single number", "she is 7 years old", contractx.RoutingDecision{}},
		{"all", "Calculate 3*4 from Zoe's records and the latest news", contractx.RoutingDecision{Document: true, WebSearch: true, Calculator: true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := r.Route(tt.text); got != tt.want {
				t.Fatalf("Route(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestRouteDeterministic(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	const text = "Latest report: 4 + 5"
	first := r.Route(text)
	for i := 0; i < 50; i++ {
		if got := r.Route(text); got != first {
			t.Fatalf("Route() changed between calls: %+v vs %+v", got, first)
		}
	}
}

func TestRouteArithmeticIgnoresCasing(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	for _, text := range []string{"WHAT IS 2 + 2", "what is 2 + 2", "WhAt Is 2+2 ?"} {
		if !r.Route(text).Calculator {
			t.Fatalf("Route(%q).Calculator = false, want true", text)
		}
	}
}

func TestRouteCustomKeywords(t *testing.T) {
	t.Parallel()

	r := New(Config{
		DocumentKeywords: []string{" IEP ", ""},
		WebKeywords:      []string{"headlines"},
	})

	if got := r.Route("Review the IEP goals"); !got.Document {
		t.Fatalf("expected custom document keyword to match, got %+v", got)
	}
	if got := r.Route("today's headlines"); !got.WebSearch {
		t.Fatalf("expected custom web keyword to match, got %+v", got)
	}
	if got := r.Route("zoe's latest report"); got.Document || got.WebSearch {
		t.Fatalf("default keywords must be replaced, got %+v", got)
	}
}

func TestRouteQueryAddsChildName(t *testing.T) {
	t.Parallel()

	r := New(Config{})
	q := contractx.Query{Text: "How did Liam sleep?", ChildName: "Liam"}
	if got := r.RouteQuery(q); !got.Document {
		t.Fatalf("RouteQuery() = %+v, want document", got)
	}
	if got := r.Route(q.Text); got.Document {
		t.Fatalf("Route() must not know the child name, got %+v", got)
	}
}
