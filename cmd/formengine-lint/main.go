package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/goliatone/go-formengine/pkg/loader"
)

func main() {
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [paths...]\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "\nLint form definition files (JSON or YAML). Directories are walked.\n\n"); err != nil {
			panic(err)
		}
		flag.PrintDefaults()
	}
	strict := flag.Bool("strict", false, "treat warnings as failures")
	asJSON := flag.Bool("json", false, "print issues as JSON")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"."}
	}

	files, err := collect(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lint: %v\n", err)
		os.Exit(1)
	}

	l := loader.New()
	var issues []loader.Issue
	for _, path := range files {
		linted, err := lintFile(l, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		issues = append(issues, linted...)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Source == issues[j].Source {
			return issues[i].Index < issues[j].Index
		}
		return issues[i].Source < issues[j].Source
	})

	failed := false
	for _, issue := range issues {
		if issue.Severity == loader.SeverityError || *strict {
			failed = true
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(issues); err != nil {
			fmt.Fprintf(os.Stderr, "lint: encode: %v\n", err)
			os.Exit(1)
		}
	} else {
		for _, issue := range issues {
			fmt.Fprintln(os.Stderr, issue.String())
		}
	}
	if failed {
		os.Exit(1)
	}
}

func lintFile(l *loader.Loader, path string) ([]loader.Issue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	structure, err := l.Parse(raw, path)
	if err != nil {
		return nil, err
	}
	result := l.Validate(structure)
	for i := range result.Issues {
		result.Issues[i].Source = path
	}
	return result.Issues, nil
}

func collect(paths []string) ([]string, error) {
	var out []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				if p != path && (entry.Name() == "_examples" || entry.Name()[0] == '.') {
					return filepath.SkipDir
				}
				return nil
			}
			if loader.IsDefinitionFile(p) {
				out = append(out, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
