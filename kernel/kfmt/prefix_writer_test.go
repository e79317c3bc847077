package kfmt

import (
	"bytes"
	"testing"
)

func TestPrefixWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &PrefixWriter{Sink: &buf, Prefix: []byte("[memmap] ")}

	w.Write([]byte("line one\n"))
	w.Write([]byte("line two\nline three"))

	exp := "[memmap] line one\n[memmap] line two\n[memmap] line three"
	if got := buf.String(); got != exp {
		t.Errorf("expected %q; got %q", exp, got)
	}
}

func TestPrefixWriterEmptyWrite(t *testing.T) {
	var buf bytes.Buffer
	w := &PrefixWriter{Sink: &buf, Prefix: []byte("[x] ")}

	w.Write(nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output for an empty write; got %q", buf.String())
	}
}
