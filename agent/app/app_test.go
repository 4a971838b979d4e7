package app

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := Config{StoreDriver: "sqlite", VectorDriver: "pinecone", EmbeddingProvider: "openai"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []Config{
		{StoreDriver: "mongo", VectorDriver: "pinecone", EmbeddingProvider: "openai"},
		{StoreDriver: "sqlite", VectorDriver: "faiss", EmbeddingProvider: "openai"},
		{StoreDriver: "sqlite", VectorDriver: "pinecone", EmbeddingProvider: "cohere"},
	}
	for _, cfg := range tests {
		if err := cfg.Validate(); !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("Validate(%+v) error = %v, want ErrValidation", cfg, err)
		}
	}
}

func TestOneOfNormalizes(t *testing.T) {
	t.Parallel()

	if !oneOf(" Postgres ", StoreMemory, StorePostgres) {
		t.Fatal("expected case-insensitive match")
	}
}

func TestCloseRunsInReverseOrder(t *testing.T) {
	t.Parallel()

	var order []int
	a := &App{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return errors.New("boom") },
	}}
	if err := a.Close(); err == nil {
		t.Fatal("expected joined error")
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("close order = %v", order)
	}
}
