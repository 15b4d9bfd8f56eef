// Command kfe is a minimal frontend used by the end-to-end tests.
//
// A source line "import ./x.kn" declares a relative import, "use a.b" a
// library import and "pub fn name" an exported function. A line "error"
// fails compilation.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
)

type compileRequest struct {
	Module       domain.ModuleID                      `json:"module"`
	Source       []byte                               `json:"source"`
	Dependencies map[domain.ModuleID]domain.Signature `json:"dependencies"`
}

type compileResponse struct {
	Object    []byte           `json:"object"`
	Signature domain.Signature `json:"signature"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: kfe imports <path> | kfe compile")
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "imports":
		err = imports()
	case "compile":
		err = compile()
	default:
		err = fmt.Errorf("unknown verb %q", os.Args[1])
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func imports() error {
	source, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}

	refs := []domain.ImportRef{}
	for line := range strings.Lines(string(source)) {
		line = strings.TrimSpace(line)
		if path, ok := strings.CutPrefix(line, "import "); ok {
			refs = append(refs, domain.ImportRef{Kind: domain.ImportRelative, Path: path})
		}
		if path, ok := strings.CutPrefix(line, "use "); ok {
			refs = append(refs, domain.ImportRef{Kind: domain.ImportLibrary, Path: path})
		}
	}
	return json.NewEncoder(os.Stdout).Encode(map[string]any{"imports": refs})
}

func compile() error {
	var req compileRequest
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		return err
	}

	var items []domain.ExportedItem
	for i, line := range strings.Split(string(req.Source), "\n") {
		line = strings.TrimSpace(line)
		if line == "error" {
			return fmt.Errorf("%s:%d: syntax error", req.Module, i+1)
		}
		if name, ok := strings.CutPrefix(line, "pub fn "); ok {
			items = append(items, domain.ExportedItem{Name: name, Kind: "fn", Type: "() -> ()"})
		}
	}

	return json.NewEncoder(os.Stdout).Encode(compileResponse{
		Object:    req.Source,
		Signature: domain.Signature{Items: items},
	})
}
