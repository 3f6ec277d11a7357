package dedupe

import (
	"fmt"
	"strings"
)

// Predicate derives blocking keys from a record. Records sharing at
// least one key for some predicate land in the same bucket and become
// candidate pairs.
type Predicate interface {
	Name() string
	Keys(r Record) []string
}

// FieldPredicate blocks on the whole normalized value of one field.
type FieldPredicate struct {
	Field string
}

func (p FieldPredicate) Name() string { return fmt.Sprintf("field(%s)", p.Field) }

func (p FieldPredicate) Keys(r Record) []string {
	v := normalize(r.Fields[p.Field])
	if v == "" {
		return nil
	}
	return []string{v}
}

// PrefixPredicate blocks on the first N bytes of a normalized field
// value, a coarse bucket for typo-tolerant grouping.
type PrefixPredicate struct {
	Field  string
	Length int
}

func (p PrefixPredicate) Name() string {
	return fmt.Sprintf("prefix(%s,%d)", p.Field, p.Length)
}

func (p PrefixPredicate) Keys(r Record) []string {
	v := normalize(r.Fields[p.Field])
	if v == "" {
		return nil
	}
	if len(v) > p.Length {
		v = v[:p.Length]
	}
	return []string{v}
}

// TokenPredicate blocks on each whitespace-separated token of a field,
// so records sharing any single token become candidates.
type TokenPredicate struct {
	Field string
}

func (p TokenPredicate) Name() string { return fmt.Sprintf("token(%s)", p.Field) }

func (p TokenPredicate) Keys(r Record) []string {
	v := normalize(r.Fields[p.Field])
	if v == "" {
		return nil
	}
	tokens := strings.Fields(v)
	seen := make(map[string]struct{}, len(tokens))
	keys := tokens[:0]
	for _, tok := range tokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keys = append(keys, tok)
	}
	return keys
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// covers reports whether the predicate puts both records in a common
// bucket.
func covers(p Predicate, a, b Record) bool {
	ka := p.Keys(a)
	if len(ka) == 0 {
		return false
	}
	kb := p.Keys(b)
	if len(kb) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(ka))
	for _, k := range ka {
		set[k] = struct{}{}
	}
	for _, k := range kb {
		if _, ok := set[k]; ok {
			return true
		}
	}
	return false
}
