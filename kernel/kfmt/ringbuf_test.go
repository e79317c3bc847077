package kfmt

import "testing"

func TestRingBufferWriteRead(t *testing.T) {
	var rb ringBuffer

	rb.Write([]byte("hello"))

	buf := make([]byte, 5)
	n, err := rb.Read(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 || string(buf) != "hello" {
		t.Fatalf("expected to read back %q; got %q", "hello", string(buf[:n]))
	}

	if _, err := rb.Read(buf); err == nil {
		t.Fatal("expected EOF once the buffer is drained")
	}
}

func TestRingBufferWrap(t *testing.T) {
	var rb ringBuffer

	filler := make([]byte, ringBufferSize-2)
	rb.Write(filler)
	// drain so rIndex advances away from 0
	rb.Read(make([]byte, ringBufferSize-2))

	rb.Write([]byte("ABCDEF"))

	out := make([]byte, 6)
	n, err := rb.Read(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out[:n]) != "ABCDEF" {
		t.Fatalf("expected wrapped read to return %q; got %q", "ABCDEF", string(out[:n]))
	}
}
