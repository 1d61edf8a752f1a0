package inventory

import (
	"fmt"
	"sort"

	"github.com/terassyi/jsvm/internal/version"
)

// ErrNoMatch is wrapped with the tool name when no index entry satisfies
// a requested spec.
type ErrNoMatch struct {
	Tool string
	Spec string
}

func (e *ErrNoMatch) Error() string {
	return fmt.Sprintf("no matching %s version for %q", e.Tool, e.Spec)
}

// Resolve selects the Entry matching spec within idx for the given tool
// name, per the five VersionSpec resolution cases in §4.5. lts-aware
// resolution (Tag(Lts)) only has meaning for Node; for every other tool
// it aliases to Tag(Latest).
func Resolve(tool string, idx *Index, spec version.Spec) (Entry, error) {
	switch spec.Kind {
	case version.KindExact:
		for _, e := range idx.Entries {
			if e.Version == spec.Exact.String() {
				return e, nil
			}
		}
		return Entry{}, &ErrNoMatch{Tool: tool, Spec: spec.Render()}

	case version.KindRange:
		candidates := idx.Entries
		if idx.rawFormat != "array" {
			candidates = sortedDescending(idx.Entries)
		}
		for _, e := range candidates {
			v, err := version.Parse(e.Version)
			if err != nil {
				continue
			}
			if spec.Match(v) {
				return e, nil
			}
		}
		return Entry{}, &ErrNoMatch{Tool: tool, Spec: spec.Render()}

	case version.KindTag:
		switch spec.Tag {
		case version.TagLatest:
			return resolveLatest(tool, idx)
		case version.TagLTS:
			if tool != "node" {
				return resolveLatest(tool, idx)
			}
			for _, e := range idx.Entries {
				if e.LTS {
					return e, nil
				}
			}
			return Entry{}, &ErrNoMatch{Tool: tool, Spec: spec.Render()}
		case version.TagCustom:
			if idx.DistTags != nil {
				if v, ok := idx.DistTags[spec.TagName]; ok {
					for _, e := range idx.Entries {
						if e.Version == v {
							return e, nil
						}
					}
				}
			}
			return Entry{}, &ErrNoMatch{Tool: tool, Spec: spec.Render()}
		}
	}

	return Entry{}, &ErrNoMatch{Tool: tool, Spec: spec.Render()}
}

func resolveLatest(tool string, idx *Index) (Entry, error) {
	if idx.DistTags != nil {
		if v, ok := idx.DistTags["latest"]; ok {
			for _, e := range idx.Entries {
				if e.Version == v {
					return e, nil
				}
			}
		}
	}
	if len(idx.Entries) == 0 {
		return Entry{}, &ErrNoMatch{Tool: tool, Spec: "latest"}
	}
	return idx.Entries[0], nil
}

// sortedDescending returns a copy of entries ordered highest-to-lowest.
// Resolve applies it to every index except array-shaped ones, whose
// declared (newest-first) order is matched as-is.
func sortedDescending(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		vi, erri := version.Parse(out[i].Version)
		vj, errj := version.Parse(out[j].Version)
		if erri != nil || errj != nil {
			return false
		}
		return vi.Compare(vj) > 0
	})
	return out
}
