// Command sqllint checks that every SQL string constant starts with a
// "--sql <uuid>" audit marker and that no marker is used twice.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlKeywordPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	uuidMarkerPattern = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type violation struct {
	file    string
	name    string
	line    int
	message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.file, v.line, v.message, v.name)
}

// statement is one SQL constant found in a file.
type statement struct {
	file   string
	name   string
	line   int
	marker string
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}
	violations, err := lintTargets(targets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
		os.Exit(1)
	}
	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "sqllint: SQL audit marker violations")
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", v)
		}
		os.Exit(1)
	}
}

func lintTargets(targets []string) ([]violation, error) {
	var stmts []statement
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if filepath.Ext(target) != ".go" {
				continue
			}
			found, err := scanFile(target, nil)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, found...)
			continue
		}
		walkErr := filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != target && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			found, err := scanFile(path, nil)
			if err != nil {
				return err
			}
			stmts = append(stmts, found...)
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}
	return check(stmts), nil
}

// scanFile collects SQL string constants. src overrides the file contents
// when non-nil.
func scanFile(path string, src any) ([]statement, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}
	var out []statement
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range vs.Values {
			bl, ok := value.(*ast.BasicLit)
			if !ok || bl.Kind != token.STRING {
				continue
			}
			raw, err := unquote(bl.Value)
			if err != nil || !sqlKeywordPattern.MatchString(raw) {
				continue
			}
			name := ""
			if i < len(vs.Names) && vs.Names[i] != nil {
				name = vs.Names[i].Name
			}
			out = append(out, statement{
				file:   path,
				name:   name,
				line:   fset.Position(bl.Pos()).Line,
				marker: firstLine(raw),
			})
		}
		return true
	})
	return out, nil
}

func check(stmts []statement) []violation {
	var violations []violation
	seen := make(map[string]statement, len(stmts))
	for _, s := range stmts {
		if !uuidMarkerPattern.MatchString(s.marker) {
			violations = append(violations, violation{file: s.file, line: s.line, name: s.name, message: "missing or invalid --sql <uuid> marker"})
			continue
		}
		if prev, dup := seen[s.marker]; dup {
			violations = append(violations, violation{
				file:    s.file,
				line:    s.line,
				name:    s.name,
				message: fmt.Sprintf("marker already used by %s at %s:%d", prev.name, prev.file, prev.line),
			})
			continue
		}
		seen[s.marker] = s
	}
	return violations
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}
