package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SectionKey names a nested, ordered collection inside ProfileRecord.Details.
type SectionKey string

const (
	SectionSkills      SectionKey = "skills"
	SectionExperience  SectionKey = "experience"
	SectionEducation   SectionKey = "education"
	SectionResume      SectionKey = "resume"
	SectionCompanyInfo SectionKey = "companyInfo"
)

var sectionOwners = map[SectionKey]Role{
	SectionSkills:      RoleJobSeeker,
	SectionExperience:  RoleJobSeeker,
	SectionEducation:   RoleJobSeeker,
	SectionResume:      RoleJobSeeker,
	SectionCompanyInfo: RoleEmployer,
}

// Valid reports whether k is a known section.
func (k SectionKey) Valid() bool {
	_, ok := sectionOwners[k]
	return ok
}

// AllowedFor reports whether profiles of the given role carry this section.
func (k SectionKey) AllowedFor(role Role) bool {
	owner, ok := sectionOwners[k]
	return ok && owner == role
}

// SectionEntry is one element of a section. ID is assigned by the store on append and
// never changes afterwards.
type SectionEntry struct {
	ID     string
	Fields map[string]string
}

// MarshalJSON flattens the entry into {"id": ..., <field>: <value>, ...}.
func (e SectionEntry) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	if e.ID != "" {
		out["id"] = e.ID
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the flattened form produced by MarshalJSON.
func (e *SectionEntry) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.ID = ""
	e.Fields = make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("section field %q: %w", k, err)
		}
		if k == "id" {
			e.ID = s
			continue
		}
		e.Fields[k] = s
	}
	return nil
}

func (e SectionEntry) clone() SectionEntry {
	cp := SectionEntry{ID: e.ID, Fields: make(map[string]string, len(e.Fields))}
	for k, v := range e.Fields {
		cp.Fields[k] = v
	}
	return cp
}

// Details holds a profile's role-specific sections.
type Details map[SectionKey][]SectionEntry

// Clone deep-copies every section.
func (d Details) Clone() Details {
	if d == nil {
		return Details{}
	}
	cp := make(Details, len(d))
	for key, entries := range d {
		copied := make([]SectionEntry, len(entries))
		for i, entry := range entries {
			copied[i] = entry.clone()
		}
		cp[key] = copied
	}
	return cp
}

// Keys returns the populated section keys in sorted order.
func (d Details) Keys() []SectionKey {
	keys := make([]SectionKey, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// MergeKind selects how MergeDetails folds entries into a section.
type MergeKind int

const (
	MergeAppend MergeKind = iota
	MergeReplaceAt
	MergeReplaceByID
)

func (k MergeKind) String() string {
	switch k {
	case MergeAppend:
		return "append"
	case MergeReplaceAt:
		return "replace_at"
	case MergeReplaceByID:
		return "replace_by_id"
	}
	return "unknown"
}

// MergeMode describes a single merge. For MergeReplaceByID, ExpectIndex optionally pins
// the position the caller read the entry from.
type MergeMode struct {
	Kind        MergeKind
	Index       int
	EntryID     string
	ExpectIndex *int
}

// Append returns the append merge mode.
func Append() MergeMode {
	return MergeMode{Kind: MergeAppend}
}

// ReplaceAt returns a merge mode replacing the entry at index.
func ReplaceAt(index int) MergeMode {
	return MergeMode{Kind: MergeReplaceAt, Index: index}
}

// ReplaceByID returns a merge mode replacing the entry with the given id.
func ReplaceByID(id string, expectIndex *int) MergeMode {
	return MergeMode{Kind: MergeReplaceByID, EntryID: id, ExpectIndex: expectIndex}
}

// MergeError describes why a merge could not be applied.
type MergeError struct {
	Err     error
	Section SectionKey
	Index   int
	Length  int
	EntryID string
}

func (e *MergeError) Error() string {
	if e.EntryID != "" {
		return fmt.Sprintf("%v: section %s id %s", e.Err, e.Section, e.EntryID)
	}
	return fmt.Sprintf("%v: section %s index %d length %d", e.Err, e.Section, e.Index, e.Length)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// Merge returns a copy of d with entries folded into key according to mode. The receiver
// is never modified. newID supplies identifiers for appended entries.
func (d Details) Merge(key SectionKey, entries []SectionEntry, mode MergeMode, newID func() string) (Details, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, key)
	}
	out := d.Clone()
	current := out[key]

	switch mode.Kind {
	case MergeAppend:
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: append needs at least one entry", ErrInvalidMerge)
		}
		for _, entry := range entries {
			added := entry.clone()
			added.ID = newID()
			current = append(current, added)
		}
	case MergeReplaceAt:
		if len(entries) != 1 {
			return nil, fmt.Errorf("%w: replace needs exactly one entry", ErrInvalidMerge)
		}
		if mode.Index < 0 || mode.Index >= len(current) {
			return nil, &MergeError{Err: ErrIndexOutOfRange, Section: key, Index: mode.Index, Length: len(current)}
		}
		replacement := entries[0].clone()
		replacement.ID = current[mode.Index].ID
		current[mode.Index] = replacement
	case MergeReplaceByID:
		if len(entries) != 1 {
			return nil, fmt.Errorf("%w: replace needs exactly one entry", ErrInvalidMerge)
		}
		index := indexOf(current, mode.EntryID)
		if index < 0 {
			return nil, &MergeError{Err: ErrEntryNotFound, Section: key, EntryID: mode.EntryID, Length: len(current)}
		}
		if mode.ExpectIndex != nil && *mode.ExpectIndex != index {
			return nil, &MergeError{Err: ErrIndexOutOfRange, Section: key, Index: *mode.ExpectIndex, Length: len(current)}
		}
		replacement := entries[0].clone()
		replacement.ID = mode.EntryID
		current[index] = replacement
	default:
		return nil, fmt.Errorf("%w: unknown merge kind %d", ErrInvalidMerge, mode.Kind)
	}

	out[key] = current
	return out, nil
}

func indexOf(entries []SectionEntry, id string) int {
	if id == "" {
		return -1
	}
	for i, entry := range entries {
		if entry.ID == id {
			return i
		}
	}
	return -1
}
