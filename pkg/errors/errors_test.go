package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("smtp: connection refused")
	err := Wrap(CodeTransport, cause, "send confirmation email")

	if err.Code() != CodeTransport {
		t.Fatalf("unexpected code %s", err.Code())
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	inner := New(CodeConflict, "request no longer staged")
	outer := fmt.Errorf("building order: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", meta.HTTPStatus)
	}
}

func TestMetadataDistinguishesRenderFromStorage(t *testing.T) {
	render := MetadataFor(CodeRender)
	storage := MetadataFor(CodeStorage)
	if render.PublicMessage == storage.PublicMessage {
		t.Fatal("render and storage failures must surface distinct messages")
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodePostCommit, "sent but not recorded"))
	if !IsCode(err, CodePostCommit) {
		t.Fatal("expected post-commit code")
	}
	if IsCode(err, CodeValidation) {
		t.Fatal("unexpected validation code")
	}
}
