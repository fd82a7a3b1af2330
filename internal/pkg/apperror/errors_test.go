package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var errThingMissing = NotFound("thing not found")

func TestKindMarkersMatchByKind(t *testing.T) {
	wrapped := fmt.Errorf("load thing: %w", errThingMissing)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("expected wrapped error to match the not-found marker")
	}
	if errors.Is(wrapped, ErrConflict) {
		t.Fatalf("not-found error must not match conflict marker")
	}
	if !errors.Is(wrapped, errThingMissing) {
		t.Fatalf("expected sentinel identity to survive wrapping")
	}
	if errors.Is(NotFound("thing not found"), errThingMissing) {
		t.Fatalf("distinct sentinels with equal text must not match")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(fmt.Errorf("x: %w", Validation("bad"))); got != KindValidation {
		t.Fatalf("expected validation kind, got %q", got)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Fatalf("expected empty kind for plain errors, got %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:        http.StatusUnprocessableEntity,
		KindAuthorization:     http.StatusForbidden,
		KindInvalidTransition: http.StatusConflict,
		KindNotFound:          http.StatusNotFound,
		KindConflict:          http.StatusConflict,
		KindAuthentication:    http.StatusUnauthorized,
		KindRateLimited:       http.StatusTooManyRequests,
		Kind("other"):         http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := kind.HTTPStatus(); got != want {
			t.Fatalf("%s: expected %d, got %d", kind, want, got)
		}
	}
}
