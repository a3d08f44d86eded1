package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobportal/profile-sync/internal/domain"
	apperrors "github.com/jobportal/profile-sync/pkg/util"
)

func TestParseAddDetails(t *testing.T) {
	req, err := ParseAddDetails([]byte(`{"skills":[{"skillName":"Go","proficiency":"expert"},{"id":"ignored","skillName":"SQL","proficiency":"advanced"}]}`))
	require.NoError(t, err)
	assert.Equal(t, domain.SectionSkills, req.Section)
	require.Len(t, req.Entries, 2)
	assert.Equal(t, "Go", req.Entries[0].Fields["skillName"])
	assert.Empty(t, req.Entries[1].ID, "ids are assigned by the store")
}

func TestParseAddDetails_Resume(t *testing.T) {
	req, err := ParseAddDetails([]byte(`{"resume":[{"title":"CV 2026","fileUrl":"https://files.example.com/cv.pdf","summary":"Backend engineer"}]}`))
	require.NoError(t, err)
	assert.Equal(t, domain.SectionResume, req.Section)
	require.Len(t, req.Entries, 1)
	assert.Equal(t, "https://files.example.com/cv.pdf", req.Entries[0].Fields["fileUrl"])
	assert.True(t, domain.SectionResume.AllowedFor(domain.RoleJobSeeker))
	assert.False(t, domain.SectionResume.AllowedFor(domain.RoleEmployer))
}

func TestParseAddDetails_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty body":        ``,
		"no section":        `{}`,
		"unknown section":   `{"hobbies":[{"name":"chess"}]}`,
		"two sections":      `{"skills":[{"skillName":"Go","proficiency":"x"}],"education":[{"institution":"MIT","degree":"BSc"}]}`,
		"index on add":      `{"skills":[{"skillName":"Go","proficiency":"x"}],"index":0}`,
		"empty entries":     `{"skills":[]}`,
		"object not array":  `{"skills":{"skillName":"Go","proficiency":"x"}}`,
		"unknown entry key": `{"skills":[{"skillName":"Go","proficiency":"x","level":3}]}`,
		"missing required":  `{"experience":[{"title":"Dev"}]}`,
		"bad year":          `{"education":[{"institution":"MIT","degree":"BSc","startYear":"20x0"}]}`,
		"bad website":       `{"companyInfo":[{"companyName":"Acme","website":"not a url"}]}`,
		"resume no url":     `{"resume":[{"title":"CV"}]}`,
		"resume bad url":    `{"resume":[{"title":"CV","fileUrl":"cv.pdf"}]}`,
		"trailing data":     `{"skills":[{"skillName":"Go","proficiency":"x"}]} {}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAddDetails([]byte(body))
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
		})
	}
}

func TestParseUpdateDetails(t *testing.T) {
	req, err := ParseUpdateDetails([]byte(`{"experience":[{"id":"e-1","title":"Dev","company":"Acme","startDate":"2020-01"}],"index":2}`))
	require.NoError(t, err)
	assert.Equal(t, domain.SectionExperience, req.Section)
	assert.Equal(t, "e-1", req.EntryID())
	require.NotNil(t, req.Index)
	assert.Equal(t, 2, *req.Index)

	req, err = ParseUpdateDetails([]byte(`{"skills":[{"skillName":"Go","proficiency":"expert"}],"index":0}`))
	require.NoError(t, err)
	assert.Empty(t, req.EntryID())
	assert.Equal(t, 0, *req.Index)

	_, err = ParseUpdateDetails([]byte(`{"skills":[{"skillName":"Go","proficiency":"expert"}]}`))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "neither id nor index")

	_, err = ParseUpdateDetails([]byte(`{"skills":[{"skillName":"Go","proficiency":"a"},{"skillName":"C","proficiency":"b"}],"index":0}`))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "more than one entry")

	_, err = ParseUpdateDetails([]byte(`{"skills":[{"skillName":"Go","proficiency":"a"}],"index":"first"}`))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestUpdateUserRequest_Strict(t *testing.T) {
	var req UpdateUserRequest
	require.NoError(t, DecodeStrict([]byte(`{"firstName":"Ada","phoneNumber":"555"}`), &req))
	patch := req.ToPatch()
	assert.Equal(t, "Ada", *patch.FirstName)
	assert.Nil(t, patch.LastName)
	assert.Nil(t, patch.Email)

	for _, body := range []string{
		`{"role":"admin"}`,
		`{"ownerId":"someone-else"}`,
		`{"email":"not-an-email"}`,
		`{"firstName":""}`,
		`{"firstName":42}`,
	} {
		var r UpdateUserRequest
		err := DecodeStrict([]byte(body), &r)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), body)
	}
}

func TestRegisterRequest_Validation(t *testing.T) {
	var req RegisterRequest
	err := DecodeStrict([]byte(`{"firstName":"Jo","email":"jo@example.com","password":"short","role":"jobseeker"}`), &req)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Contains(t, de.Details, "password")

	err = DecodeStrict([]byte(`{"firstName":"Jo","email":"jo@example.com","password":"long-enough","role":"admin"}`), &req)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "self-registration cannot create admins")

	var admin AdminRegisterRequest
	require.NoError(t, DecodeStrict([]byte(`{"firstName":"Ops","email":"ops@example.com","password":"long-enough","role":"admin"}`), &admin))
}
