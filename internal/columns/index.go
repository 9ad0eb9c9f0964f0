package columns

import "sort"

// trigram -> set(normalized key)
type index struct {
	inv map[string]map[string]struct{}
}

func buildIndex(norms []string) *index {
	idx := &index{inv: make(map[string]map[string]struct{})}
	for _, nn := range norms {
		if nn == "" {
			continue
		}
		for g := range trigramSet(nn) {
			bucket, ok := idx.inv[g]
			if !ok {
				bucket = make(map[string]struct{})
				idx.inv[g] = bucket
			}
			bucket[nn] = struct{}{}
		}
	}
	return idx
}

func trigramSet(s string) map[string]struct{} {
	m := make(map[string]struct{})
	if s == "" {
		return m
	}
	r := []rune(" " + s + " ")
	if len(r) < 3 {
		m[string(r)] = struct{}{}
		return m
	}
	for i := 0; i <= len(r)-3; i++ {
		m[string(r[i:i+3])] = struct{}{}
	}
	return m
}

func (idx *index) candidates(norm string) []string {
	if norm == "" {
		return nil
	}
	seen := make(map[string]struct{})
	for g := range trigramSet(norm) {
		for nn := range idx.inv[g] {
			seen[nn] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for nn := range seen {
		out = append(out, nn)
	}
	sort.Strings(out) // для детерминированного порядка
	return out
}
