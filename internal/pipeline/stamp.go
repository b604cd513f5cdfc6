// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path"
	"path/filepath"
	"reflect"

	"github.com/go-git/go-git/v5"
	"github.com/qiniu/x/log"
	"github.com/zeebo/blake3"
	"golang.org/x/mod/modfile"

	"github.com/goplus/maxsat/internal/deps"
)

// Output directory layout:
//
//	out/
//	  ipamir.go          # generated bindings
//	  .maxsatgen.json    # stamp describing the run that wrote them
const stampFile = ".maxsatgen.json"

// stamp records what a run produced. It carries no timestamps so that
// repeated runs over the same inputs write identical files.
type stamp struct {
	ImportPath string   `json:"import_path,omitempty"`
	Header     string   `json:"header"`
	Digest     string   `json:"digest"`
	Bindings   []string `json:"bindings"`
	Directives []string `json:"directives"`
	Triggers   []string `json:"triggers"`
	Sources    []source `json:"sources"`
}

// source identifies the checkout a dependency was built from.
type source struct {
	Name     string `json:"name"`
	Dir      string `json:"dir"`
	Revision string `json:"revision,omitempty"`
}

func (p *Pipeline) stamp(ds []deps.Dependency, res *Result) error {
	out := filepath.Dir(res.File)
	src, err := os.ReadFile(res.File)
	if err != nil {
		return err
	}
	s := &stamp{
		ImportPath: importPath(out),
		Header:     p.Config.HeaderPath(),
		Digest:     digest(src),
		Triggers:   res.Triggers,
	}
	for _, b := range res.Bindings {
		s.Bindings = append(s.Bindings, b.GoName)
	}
	for _, d := range res.Directives {
		s.Directives = append(s.Directives, d.String())
	}
	for _, d := range ds {
		s.Sources = append(s.Sources, source{Name: d.Name, Dir: d.Root, Revision: revision(d.Root)})
	}
	file := filepath.Join(out, stampFile)
	if old, err := loadStamp(file); err == nil && reflect.DeepEqual(old, s) {
		log.Debugf("%s is up to date", file)
		return nil
	}
	if err := saveStamp(file, s); err != nil {
		return &WriteError{Path: file, Err: err}
	}
	return nil
}

// digest is the hex BLAKE3-256 sum of data.
func digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// revision returns the commit checked out in dir, or "" if dir is not the
// root of a git work tree.
func revision(dir string) string {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			log.Warnf("%s: %v", dir, err)
		} else {
			log.Debugf("%s is not a git checkout", dir)
		}
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		log.Warnf("%s: cannot resolve HEAD: %v", dir, err)
		return ""
	}
	return head.Hash().String()
}

// importPath returns the import path of the package in dir, derived from
// the nearest enclosing go.mod. It is empty outside a module.
func importPath(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for d := abs; ; d = filepath.Dir(d) {
		data, err := os.ReadFile(filepath.Join(d, "go.mod"))
		if err == nil {
			mod := modfile.ModulePath(data)
			if mod == "" {
				return ""
			}
			rel, err := filepath.Rel(d, abs)
			if err != nil || rel == "." {
				return mod
			}
			return path.Join(mod, filepath.ToSlash(rel))
		}
		if filepath.Dir(d) == d {
			return ""
		}
	}
}

func loadStamp(file string) (*stamp, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var s stamp
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func saveStamp(file string, s *stamp) error {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, append(data, '\n'), 0o644)
}
