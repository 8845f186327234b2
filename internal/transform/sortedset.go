package transform

import (
	"sort"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// SortedSet stores a set (no duplicates allowed) of string IDs in memory
// in a way that also provides fast sorted access.
type SortedSet interface {
	Size() int
	Add(key string)
	Exists(key string) bool
	Values() []string
}

type RedBlackTreeSet struct {
	inner *redblacktree.Tree
}

var _ SortedSet = (*RedBlackTreeSet)(nil)

func NewSortedSet() *RedBlackTreeSet {
	return &RedBlackTreeSet{
		inner: redblacktree.NewWithStringComparator(),
	}
}

func (r *RedBlackTreeSet) Add(key string) {
	r.inner.Put(key, nil)
}

func (r *RedBlackTreeSet) Exists(key string) bool {
	_, ok := r.inner.Get(key)
	return ok
}

func (r *RedBlackTreeSet) Size() int {
	return r.inner.Size()
}

func (r *RedBlackTreeSet) Values() []string {
	values := make([]string, 0, r.inner.Size())
	for _, v := range r.inner.Keys() {
		values = append(values, v.(string))
	}
	return values
}

// AuthorSet is an immutable, sorted list of author ids searched by bisection.
// It is read concurrently by every worker of a filter pass.
type AuthorSet []string

// NewAuthorSet returns the sorted, de-duplicated set of ids.
func NewAuthorSet(ids ...string) AuthorSet {
	s := NewSortedSet()
	for _, id := range ids {
		s.Add(id)
	}
	return AuthorSet(s.Values())
}

// Contains reports whether id is in the set.
func (s AuthorSet) Contains(id string) bool {
	i := sort.SearchStrings(s, id)
	return i < len(s) && s[i] == id
}

// ContainsAny reports whether any of ids is in the set.
func (s AuthorSet) ContainsAny(ids []string) bool {
	for _, id := range ids {
		if s.Contains(id) {
			return true
		}
	}
	return false
}
