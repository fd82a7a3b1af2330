package search

import (
	"errors"
	"testing"
)

func TestNoopIndexSignalsFallback(t *testing.T) {
	var idx Index = NoopIndex{}

	if err := idx.IndexFound(FoundDoc{ID: "1"}); err != nil {
		t.Fatalf("noop index must accept documents, got %v", err)
	}
	if err := idx.DeleteFound("1"); err != nil {
		t.Fatalf("noop delete must succeed, got %v", err)
	}
	if _, _, err := idx.SearchFound("wallet", "", 10, 0); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
