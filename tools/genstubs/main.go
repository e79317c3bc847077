// Command genstubs emits the per-vector interrupt entry trampolines that
// kernel/idt installs into the IDT. Every vector needs its own tiny
// assembly entrypoint because the CPU gives no other way to tell a
// handler which vector fired (vectors that push a hardware error code and
// vectors that don't also need slightly different prologues), so rather
// than hand-maintain 256 near-identical blocks this tool generates both
// the Go bodyless-function declarations and their backing Plan9 assembly
// from a single template, the same division of labor as gopheros's
// tools/redirects and tools/makelogo use for other generated artifacts.
//
// Usage:
//
//	go run ./tools/genstubs -out-go kernel/idt/stubs_amd64.go -out-asm kernel/idt/stubs_amd64.s
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"os"
	"text/template"
)

const vectorCount = 256

// hasHardwareErrorCode lists the vectors where the CPU itself pushes an
// error code onto the stack before invoking the handler (Intel SDM vol.
// 3A §6.13). Every other vector's stub pushes a dummy zero in its place so
// the common entry sequence below it always finds the same stack shape.
var hasHardwareErrorCode = map[int]bool{
	8: true, 10: true, 11: true, 12: true,
	13: true, 14: true, 17: true, 21: true, 29: true, 30: true,
}

type stub struct {
	Vector      int
	HasHWErrCde bool
}

const goTemplate = `// Code generated by tools/genstubs. DO NOT EDIT.

package idt

// isrStub declares the entrypoint trampoline for one interrupt vector.
// Each one pushes (or synthesizes) an error code and the vector number,
// then jumps to the shared dispatch routine in entry_amd64.s.
type isrStub = func()

var isrStubs = [{{.Count}}]isrStub{
{{- range .Stubs}}
	isrStub{{.Vector}},
{{- end}}
}

{{range .Stubs}}
func isrStub{{.Vector}}()
{{- end}}
`

const asmTemplate = `// Code generated by tools/genstubs. DO NOT EDIT.

#include "textflag.h"

{{range .Stubs}}
TEXT ·isrStub{{.Vector}}(SB), NOSPLIT, $0-0
{{- if not .HasHWErrCde}}
	PUSHQ $0
{{- end}}
	PUSHQ ${{.Vector}}
	JMP   ·commonStubEntry(SB)
{{end}}
`

func buildStubs() []stub {
	stubs := make([]stub, vectorCount)
	for v := 0; v < vectorCount; v++ {
		stubs[v] = stub{Vector: v, HasHWErrCde: hasHardwareErrorCode[v]}
	}
	return stubs
}

func render(name, tmplText string, stubs []stub) ([]byte, error) {
	tmpl, err := template.New(name).Parse(tmplText)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct {
		Count int
		Stubs []stub
	}{Count: vectorCount, Stubs: stubs}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func main() {
	outGo := flag.String("out-go", "", "path to write the generated Go declarations")
	outAsm := flag.String("out-asm", "", "path to write the generated Plan9 assembly")
	flag.Parse()

	if *outGo == "" || *outAsm == "" {
		fmt.Fprintln(os.Stderr, "genstubs: both -out-go and -out-asm are required")
		os.Exit(1)
	}

	stubs := buildStubs()

	goSrc, err := render("go", goTemplate, stubs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "genstubs: %s\n", err)
		os.Exit(1)
	}
	formatted, err := format.Source(goSrc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "genstubs: formatting generated Go source: %s\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outGo, formatted, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "genstubs: %s\n", err)
		os.Exit(1)
	}

	asmSrc, err := render("asm", asmTemplate, stubs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "genstubs: %s\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outAsm, asmSrc, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "genstubs: %s\n", err)
		os.Exit(1)
	}
}
