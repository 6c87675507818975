package pipe

import (
	"io"
	"testing"
)

func TestPeekCountsBufferedBytes(t *testing.T) {
	p, err := Open()
	if err != nil {
		t.Fatalf("open pipe: %v", err)
	}
	defer p.Close()

	n, err := Peek(p.R)
	if err != nil {
		t.Fatalf("peek empty pipe: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 buffered bytes, got %d", n)
	}

	payload := []byte("hello, pipe")
	if _, err := p.W.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	n, err = Peek(p.R)
	if err != nil {
		t.Fatalf("peek after write: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("expected %d buffered bytes, got %d", len(payload), n)
	}

	// Peek must not consume: the bytes are still readable.
	buf := make([]byte, len(payload))
	if _, err := io.ReadFull(p.R, buf); err != nil {
		t.Fatalf("read after peek: %v", err)
	}
	if string(buf) != string(payload) {
		t.Fatalf("read %q, want %q", buf, payload)
	}
}

func TestPeekBrokenPipeReportsZero(t *testing.T) {
	p, err := Open()
	if err != nil {
		t.Fatalf("open pipe: %v", err)
	}
	defer p.Close()

	if err := p.W.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	p.W = nil

	n, err := Peek(p.R)
	if err != nil {
		t.Fatalf("peek with writer gone: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 bytes on broken pipe, got %d", n)
	}
}

func TestPeekNilStream(t *testing.T) {
	if _, err := Peek(nil); err == nil {
		t.Fatal("expected error peeking nil stream")
	}
}

func TestDupIsIndependentlyClosable(t *testing.T) {
	p, err := Open()
	if err != nil {
		t.Fatalf("open pipe: %v", err)
	}
	defer p.Close()

	dup, err := Dup(p.W)
	if err != nil {
		t.Fatalf("dup: %v", err)
	}

	if _, err := dup.Write([]byte("ab")); err != nil {
		t.Fatalf("write through dup: %v", err)
	}
	if err := dup.Close(); err != nil {
		t.Fatalf("close dup: %v", err)
	}

	// The original endpoint survives the duplicate's close.
	if _, err := p.W.Write([]byte("cd")); err != nil {
		t.Fatalf("write through original after dup close: %v", err)
	}

	n, err := Peek(p.R)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 buffered bytes, got %d", n)
	}
}

func TestSetModeValidatesStream(t *testing.T) {
	p, err := Open()
	if err != nil {
		t.Fatalf("open pipe: %v", err)
	}
	defer p.Close()

	if err := SetMode(p.R, Binary); err != nil {
		t.Fatalf("set binary mode: %v", err)
	}
	if err := SetMode(p.R, Text); err != nil {
		t.Fatalf("set text mode: %v", err)
	}
	if err := SetMode(nil, Binary); err == nil {
		t.Fatal("expected error for nil stream")
	}
}
