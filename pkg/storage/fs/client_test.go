package fs

import (
	"context"
	"testing"
)

func TestWriteReadExists(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	exists, err := client.Exists(ctx, "orders/po_1.html")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("expected missing document")
	}

	if err := client.Write(ctx, "orders/po_1.html", []byte("<html>doc</html>")); err != nil {
		t.Fatalf("write: %v", err)
	}

	content, err := client.Read(ctx, "orders/po_1.html")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) != "<html>doc</html>" {
		t.Fatalf("unexpected content %q", content)
	}

	exists, err = client.Exists(ctx, "orders/po_1.html")
	if err != nil {
		t.Fatalf("exists after write: %v", err)
	}
	if !exists {
		t.Fatal("expected stored document")
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Write(ctx, "../outside.html", []byte("x")); err == nil {
		t.Fatal("expected path escape error")
	}
	if err := client.Write(ctx, "/abs.html", []byte("x")); err == nil {
		t.Fatal("expected absolute path error")
	}
}
