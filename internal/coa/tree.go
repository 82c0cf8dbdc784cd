package coa

import (
	"log/slog"
	"sort"
)

// Node is one resolved position in the account forest. Children are held
// as arena indices so the forest stays acyclic and serialisable.
type Node struct {
	Account  Account
	children []int
}

// Forest is an arena of account nodes plus the indices of its roots.
// Accounts are stored in a flat table keyed by code; parent/child
// relationships are index references resolved at build time.
type Forest struct {
	nodes   []Node
	byCode  map[string]int
	roots   []int
	orphans []string
}

// BuildForest groups accounts by parent code into a forest. An account
// whose parent code is absent or unresolved is promoted to a root and
// reported as an orphan; one bad record never blocks the whole chart.
// Children are ordered by code ascending.
func BuildForest(accounts []Account, logger *slog.Logger) *Forest {
	f := &Forest{
		nodes:  make([]Node, 0, len(accounts)),
		byCode: make(map[string]int, len(accounts)),
	}
	for _, acc := range accounts {
		if _, dup := f.byCode[acc.Code]; dup {
			if logger != nil {
				logger.Warn("duplicate account code skipped", slog.String("code", acc.Code))
			}
			continue
		}
		f.byCode[acc.Code] = len(f.nodes)
		f.nodes = append(f.nodes, Node{Account: acc})
	}

	for idx := range f.nodes {
		acc := f.nodes[idx].Account
		if acc.ParentCode == "" {
			f.roots = append(f.roots, idx)
			continue
		}
		parent, ok := f.byCode[acc.ParentCode]
		if !ok || parent == idx {
			f.orphans = append(f.orphans, acc.Code)
			f.roots = append(f.roots, idx)
			if logger != nil {
				logger.Warn("orphan account treated as root",
					slog.String("code", acc.Code),
					slog.String("parentCode", acc.ParentCode))
			}
			continue
		}
		f.nodes[parent].children = append(f.nodes[parent].children, idx)
	}

	sortByCode := func(indices []int) {
		sort.Slice(indices, func(i, j int) bool {
			return f.nodes[indices[i]].Account.Code < f.nodes[indices[j]].Account.Code
		})
	}
	sortByCode(f.roots)
	for idx := range f.nodes {
		sortByCode(f.nodes[idx].children)
	}
	return f
}

// Len returns the number of accounts in the forest.
func (f *Forest) Len() int { return len(f.nodes) }

// Roots returns the root accounts in code order.
func (f *Forest) Roots() []Account {
	out := make([]Account, 0, len(f.roots))
	for _, idx := range f.roots {
		out = append(out, f.nodes[idx].Account)
	}
	return out
}

// Orphans lists account codes whose parent could not be resolved.
func (f *Forest) Orphans() []string {
	return append([]string(nil), f.orphans...)
}

// Lookup returns the account for a code.
func (f *Forest) Lookup(code string) (Account, bool) {
	idx, ok := f.byCode[code]
	if !ok {
		return Account{}, false
	}
	return f.nodes[idx].Account, true
}

// Children returns the direct child accounts of a code in code order.
func (f *Forest) Children(code string) []Account {
	idx, ok := f.byCode[code]
	if !ok {
		return nil
	}
	out := make([]Account, 0, len(f.nodes[idx].children))
	for _, child := range f.nodes[idx].children {
		out = append(out, f.nodes[child].Account)
	}
	return out
}

// FlatAccount carries an account with its depth in the forest, for
// indent-aware listings and exports.
type FlatAccount struct {
	Account Account
	Depth   int
}

// Flatten walks the forest pre-order, parents before children.
func (f *Forest) Flatten() []FlatAccount {
	out := make([]FlatAccount, 0, len(f.nodes))
	var walk func(idx, depth int)
	walk = func(idx, depth int) {
		out = append(out, FlatAccount{Account: f.nodes[idx].Account, Depth: depth})
		for _, child := range f.nodes[idx].children {
			walk(child, depth+1)
		}
	}
	for _, root := range f.roots {
		walk(root, 0)
	}
	return out
}
