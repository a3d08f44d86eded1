package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
}

func skill(id, name, level string) SectionEntry {
	return SectionEntry{ID: id, Fields: map[string]string{"skillName": name, "proficiency": level}}
}

func sampleDetails() Details {
	return Details{
		SectionSkills: {
			skill("s-1", "Go", "Intermediate"),
			skill("s-2", "SQL", "Expert"),
			skill("s-3", "Rust", "Beginner"),
		},
		SectionExperience: {
			{ID: "e-1", Fields: map[string]string{"title": "Engineer", "company": "Acme"}},
		},
	}
}

func TestDetailsMerge_AppendKeepsPrefix(t *testing.T) {
	before := sampleDetails()

	after, err := before.Merge(SectionSkills, []SectionEntry{skill("", "Python", "Expert")}, Append(), sequentialIDs())
	require.NoError(t, err)

	require.Len(t, after[SectionSkills], len(before[SectionSkills])+1)
	assert.Equal(t, before[SectionSkills], after[SectionSkills][:len(before[SectionSkills])])
	last := after[SectionSkills][len(after[SectionSkills])-1]
	assert.Equal(t, "new-1", last.ID)
	assert.Equal(t, "Python", last.Fields["skillName"])
	assert.Equal(t, before[SectionExperience], after[SectionExperience])
}

func TestDetailsMerge_AppendIgnoresClientID(t *testing.T) {
	after, err := Details{}.Merge(SectionSkills, []SectionEntry{skill("forged", "Go", "Expert")}, Append(), sequentialIDs())
	require.NoError(t, err)
	assert.Equal(t, "new-1", after[SectionSkills][0].ID)
}

func TestDetailsMerge_AppendToEmptySection(t *testing.T) {
	after, err := Details(nil).Merge(SectionEducation, []SectionEntry{
		{Fields: map[string]string{"institution": "MIT", "degree": "BSc"}},
		{Fields: map[string]string{"institution": "ETH", "degree": "MSc"}},
	}, Append(), sequentialIDs())
	require.NoError(t, err)
	require.Len(t, after[SectionEducation], 2)
	assert.Equal(t, "MIT", after[SectionEducation][0].Fields["institution"])
	assert.Equal(t, "ETH", after[SectionEducation][1].Fields["institution"])
}

func TestDetailsMerge_ReplaceAtTouchesOnlyIndex(t *testing.T) {
	before := sampleDetails()

	after, err := before.Merge(SectionSkills, []SectionEntry{skill("", "SQL", "Master")}, ReplaceAt(1), sequentialIDs())
	require.NoError(t, err)

	require.Len(t, after[SectionSkills], 3)
	assert.Equal(t, before[SectionSkills][0], after[SectionSkills][0])
	assert.Equal(t, before[SectionSkills][2], after[SectionSkills][2])
	assert.Equal(t, "s-2", after[SectionSkills][1].ID)
	assert.Equal(t, "Master", after[SectionSkills][1].Fields["proficiency"])
}

func TestDetailsMerge_ReplaceAtDoesNotMutateReceiver(t *testing.T) {
	before := sampleDetails()

	_, err := before.Merge(SectionSkills, []SectionEntry{skill("", "Go", "Expert")}, ReplaceAt(0), sequentialIDs())
	require.NoError(t, err)
	assert.Equal(t, "Intermediate", before[SectionSkills][0].Fields["proficiency"])
}

func TestDetailsMerge_ReplaceAtOutOfRange(t *testing.T) {
	for _, index := range []int{-1, 3, 10} {
		_, err := sampleDetails().Merge(SectionSkills, []SectionEntry{skill("", "Go", "Expert")}, ReplaceAt(index), sequentialIDs())
		require.Error(t, err, "index %d", index)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange))

		var mergeErr *MergeError
		require.True(t, errors.As(err, &mergeErr))
		assert.Equal(t, 3, mergeErr.Length)
		assert.Equal(t, index, mergeErr.Index)
	}
}

func TestDetailsMerge_ReplaceRequiresSingleEntry(t *testing.T) {
	_, err := sampleDetails().Merge(SectionSkills, []SectionEntry{skill("", "a", "b"), skill("", "c", "d")}, ReplaceAt(0), sequentialIDs())
	assert.True(t, errors.Is(err, ErrInvalidMerge))

	_, err = sampleDetails().Merge(SectionSkills, nil, Append(), sequentialIDs())
	assert.True(t, errors.Is(err, ErrInvalidMerge))
}

func TestDetailsMerge_ReplaceByID(t *testing.T) {
	after, err := sampleDetails().Merge(SectionSkills, []SectionEntry{skill("", "Rust", "Advanced")}, ReplaceByID("s-3", nil), sequentialIDs())
	require.NoError(t, err)
	assert.Equal(t, "s-3", after[SectionSkills][2].ID)
	assert.Equal(t, "Advanced", after[SectionSkills][2].Fields["proficiency"])
}

func TestDetailsMerge_ReplaceByIDUnknown(t *testing.T) {
	_, err := sampleDetails().Merge(SectionSkills, []SectionEntry{skill("", "Go", "Expert")}, ReplaceByID("missing", nil), sequentialIDs())
	assert.True(t, errors.Is(err, ErrEntryNotFound))
}

func TestDetailsMerge_ReplaceByIDStaleIndex(t *testing.T) {
	stale := 0
	_, err := sampleDetails().Merge(SectionSkills, []SectionEntry{skill("", "Rust", "Advanced")}, ReplaceByID("s-3", &stale), sequentialIDs())
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	current := 2
	_, err = sampleDetails().Merge(SectionSkills, []SectionEntry{skill("", "Rust", "Advanced")}, ReplaceByID("s-3", &current), sequentialIDs())
	assert.NoError(t, err)
}

func TestDetailsMerge_UnknownSection(t *testing.T) {
	_, err := sampleDetails().Merge(SectionKey("hobbies"), []SectionEntry{skill("", "a", "b")}, Append(), sequentialIDs())
	assert.True(t, errors.Is(err, ErrUnknownSection))
}

func TestSectionEntry_JSONIsFlat(t *testing.T) {
	data, err := json.Marshal(skill("s-1", "Go", "Expert"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s-1","skillName":"Go","proficiency":"Expert"}`, string(data))

	var decoded SectionEntry
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","skillName":"Go"}`), &decoded))
	assert.Equal(t, "x", decoded.ID)
	assert.Equal(t, map[string]string{"skillName": "Go"}, decoded.Fields)

	assert.Error(t, json.Unmarshal([]byte(`{"skillName":5}`), &decoded))
}

func TestSectionKey_AllowedFor(t *testing.T) {
	assert.True(t, SectionSkills.AllowedFor(RoleJobSeeker))
	assert.False(t, SectionSkills.AllowedFor(RoleEmployer))
	assert.True(t, SectionCompanyInfo.AllowedFor(RoleEmployer))
	assert.False(t, SectionCompanyInfo.AllowedFor(RoleAdmin))
}
