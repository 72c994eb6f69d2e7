// Package scenarios holds the login behaviour as Gherkin features and runs
// their steps against the login page object.
package scenarios

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
	tagexpressions "github.com/cucumber/tag-expressions/go/v6"
	"github.com/google/uuid"
)

//go:embed features/*.feature
var Features embed.FS

// Load parses every .feature file under fsys, compiles the scenarios into
// pickles and keeps those matching tagExpr. An empty tagExpr keeps everything.
func Load(fsys fs.FS, tagExpr string) ([]*messages.Pickle, error) {
	var evaluator tagexpressions.Evaluatable
	if expr := strings.TrimSpace(tagExpr); expr != "" {
		e, err := parseTags(expr)
		if err != nil {
			return nil, err
		}
		evaluator = e
	}

	files, err := featureFiles(fsys)
	if err != nil {
		return nil, err
	}

	var pickles []*messages.Pickle
	for _, file := range files {
		compiled, err := compileFile(fsys, file)
		if err != nil {
			return nil, err
		}
		for _, p := range compiled {
			if evaluator == nil || evaluator.Evaluate(TagNames(p)) {
				pickles = append(pickles, p)
			}
		}
	}
	return pickles, nil
}

// parseTags parses expr. The parser panics on a missing trailing operand
// ("@a and", "not"), which is reported as an error as well.
func parseTags(expr string) (e tagexpressions.Evaluatable, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, err = nil, fmt.Errorf("invalid tag expression %q: %v", expr, r)
		}
	}()
	e, err = tagexpressions.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid tag expression %q: %w", expr, err)
	}
	return e, nil
}

// TagNames returns the pickle's tags, inherited feature tags included.
func TagNames(p *messages.Pickle) []string {
	names := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		names = append(names, tag.Name)
	}
	return names
}

func featureFiles(fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && path.Ext(p) == ".feature" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search feature files: %w", err)
	}
	return files, nil
}

func compileFile(fsys fs.FS, file string) ([]*messages.Pickle, error) {
	f, err := fsys.Open(file)
	if err != nil {
		return nil, fmt.Errorf("could not read file %s: %w", file, err)
	}
	defer f.Close()

	document, err := gherkin.ParseGherkinDocument(f, (&messages.Incrementing{}).NewId)
	if err != nil {
		return nil, fmt.Errorf("gherkin parse error in file %s: %w", file, err)
	}
	document.Uri = file

	return gherkin.Pickles(*document, file, uuid.NewString), nil
}
