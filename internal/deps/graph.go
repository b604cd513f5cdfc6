// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deps

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidGraph = errors.New("invalid dependency graph")
	ErrCycle        = errors.New("dependency cycle")
)

// GraphError describes a dependency set that cannot be ordered.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

// BuildOrder returns deps ordered so that every dependency comes after the
// ones it depends on. Independent dependencies keep their input order.
func BuildOrder(deps []Dependency) ([]Dependency, error) {
	index := make(map[string]int, len(deps))
	for i, d := range deps {
		if d.Name == "" {
			return nil, &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf("dependency #%d has no name", i)}
		}
		if _, dup := index[d.Name]; dup {
			return nil, &GraphError{Kind: ErrInvalidGraph, Msg: "duplicate dependency " + d.Name}
		}
		index[d.Name] = i
	}

	indeg := make([]int, len(deps))
	dependents := make([][]int, len(deps))
	for i, d := range deps {
		for _, name := range d.DependsOn {
			j, ok := index[name]
			if !ok {
				return nil, &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf("%s depends on unknown %s", d.Name, name)}
			}
			indeg[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	// Kahn's algorithm; always pick the lowest ready index to stay stable.
	done := make([]bool, len(deps))
	out := make([]Dependency, 0, len(deps))
	for len(out) < len(deps) {
		next := -1
		for i := range deps {
			if !done[i] && indeg[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, &GraphError{Kind: ErrCycle, Msg: strings.Join(findCycle(deps, index, done), " -> ")}
		}
		done[next] = true
		out = append(out, deps[next])
		for _, m := range dependents[next] {
			indeg[m]--
		}
	}
	return out, nil
}

// LinkOrder returns deps ordered for archive resolution: a library comes
// before every library it depends on.
func LinkOrder(deps []Dependency) ([]Dependency, error) {
	order, err := BuildOrder(deps)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// findCycle walks DependsOn edges among the unfinished dependencies until a
// name repeats and returns that loop.
func findCycle(deps []Dependency, index map[string]int, done []bool) []string {
	start := -1
	for i := range deps {
		if !done[i] {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	seen := map[int]int{}
	var path []int
	cur := start
	for {
		if at, ok := seen[cur]; ok {
			names := make([]string, 0, len(path)-at+1)
			for _, i := range path[at:] {
				names = append(names, deps[i].Name)
			}
			return append(names, deps[cur].Name)
		}
		seen[cur] = len(path)
		path = append(path, cur)
		next := -1
		for _, name := range deps[cur].DependsOn {
			if j := index[name]; !done[j] {
				next = j
				break
			}
		}
		if next < 0 {
			return nil
		}
		cur = next
	}
}
