package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jobportal/profile-sync/internal/domain"
	apperrors "github.com/jobportal/profile-sync/pkg/util"
)

// UpdateUserRequest names top-level fields to overwrite. ownerId and role are not
// accepted and are rejected as unknown fields.
type UpdateUserRequest struct {
	FirstName   *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName    *string `json:"lastName" validate:"omitempty,max=100"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=32"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
}

// ToPatch converts the request into a store patch.
func (r UpdateUserRequest) ToPatch() domain.ProfilePatch {
	return domain.ProfilePatch{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		Address:     r.Address,
	}
}

// SkillEntry is one jobseeker skill.
type SkillEntry struct {
	ID          string `json:"id,omitempty"`
	SkillName   string `json:"skillName" validate:"required,max=100"`
	Proficiency string `json:"proficiency" validate:"required,max=50"`
}

func (e SkillEntry) toEntry() domain.SectionEntry {
	return domain.SectionEntry{ID: e.ID, Fields: map[string]string{
		"skillName":   e.SkillName,
		"proficiency": e.Proficiency,
	}}
}

// ExperienceEntry is one jobseeker work experience item.
type ExperienceEntry struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title" validate:"required,max=150"`
	Company     string `json:"company" validate:"required,max=150"`
	Location    string `json:"location" validate:"max=150"`
	StartDate   string `json:"startDate" validate:"required,max=32"`
	EndDate     string `json:"endDate" validate:"max=32"`
	Description string `json:"description" validate:"max=2000"`
}

func (e ExperienceEntry) toEntry() domain.SectionEntry {
	return domain.SectionEntry{ID: e.ID, Fields: map[string]string{
		"title":       e.Title,
		"company":     e.Company,
		"location":    e.Location,
		"startDate":   e.StartDate,
		"endDate":     e.EndDate,
		"description": e.Description,
	}}
}

// EducationEntry is one jobseeker education item.
type EducationEntry struct {
	ID           string `json:"id,omitempty"`
	Institution  string `json:"institution" validate:"required,max=150"`
	Degree       string `json:"degree" validate:"required,max=100"`
	FieldOfStudy string `json:"fieldOfStudy" validate:"max=100"`
	StartYear    string `json:"startYear" validate:"omitempty,numeric,len=4"`
	EndYear      string `json:"endYear" validate:"omitempty,numeric,len=4"`
}

func (e EducationEntry) toEntry() domain.SectionEntry {
	return domain.SectionEntry{ID: e.ID, Fields: map[string]string{
		"institution":  e.Institution,
		"degree":       e.Degree,
		"fieldOfStudy": e.FieldOfStudy,
		"startYear":    e.StartYear,
		"endYear":      e.EndYear,
	}}
}

// ResumeEntry references an uploaded resume document.
type ResumeEntry struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title" validate:"required,max=150"`
	FileURL string `json:"fileUrl" validate:"required,url,max=2048"`
	Summary string `json:"summary" validate:"max=2000"`
}

func (e ResumeEntry) toEntry() domain.SectionEntry {
	return domain.SectionEntry{ID: e.ID, Fields: map[string]string{
		"title":   e.Title,
		"fileUrl": e.FileURL,
		"summary": e.Summary,
	}}
}

// CompanyInfoEntry describes an employer's company.
type CompanyInfoEntry struct {
	ID          string `json:"id,omitempty"`
	CompanyName string `json:"companyName" validate:"required,max=150"`
	Industry    string `json:"industry" validate:"max=100"`
	Website     string `json:"website" validate:"omitempty,url"`
	Location    string `json:"location" validate:"max=150"`
	Description string `json:"description" validate:"max=2000"`
}

func (e CompanyInfoEntry) toEntry() domain.SectionEntry {
	return domain.SectionEntry{ID: e.ID, Fields: map[string]string{
		"companyName": e.CompanyName,
		"industry":    e.Industry,
		"website":     e.Website,
		"location":    e.Location,
		"description": e.Description,
	}}
}

type sectionInput interface {
	SkillEntry | ExperienceEntry | EducationEntry | ResumeEntry | CompanyInfoEntry
	toEntry() domain.SectionEntry
}

// AddDetailsRequest is `{"<section>": [entry, ...]}`.
type AddDetailsRequest struct {
	Section domain.SectionKey
	Entries []domain.SectionEntry
}

// UpdateDetailsRequest is `{"<section>": [entry], "index": n}`. The entry's id, when
// present, addresses the entry; index pins where the caller read it.
type UpdateDetailsRequest struct {
	Section domain.SectionKey
	Entry   domain.SectionEntry
	Index   *int
}

// EntryID returns the id carried by the entry, if any.
func (r UpdateDetailsRequest) EntryID() string {
	return r.Entry.ID
}

// ParseAddDetails decodes an add-details body.
func ParseAddDetails(body []byte) (AddDetailsRequest, error) {
	section, raw, index, err := splitSectionPayload(body)
	if err != nil {
		return AddDetailsRequest{}, err
	}
	if index != nil {
		return AddDetailsRequest{}, apperrors.NewValidationError("index is not allowed when adding entries", nil)
	}
	entries, err := decodeSection(section, raw)
	if err != nil {
		return AddDetailsRequest{}, err
	}
	if len(entries) == 0 {
		return AddDetailsRequest{}, apperrors.NewValidationError("at least one entry is required", map[string]any{"section": section})
	}
	for i := range entries {
		entries[i].ID = ""
	}
	return AddDetailsRequest{Section: section, Entries: entries}, nil
}

// ParseUpdateDetails decodes an update-details body. Either the entry id or the index
// must be present.
func ParseUpdateDetails(body []byte) (UpdateDetailsRequest, error) {
	section, raw, index, err := splitSectionPayload(body)
	if err != nil {
		return UpdateDetailsRequest{}, err
	}
	entries, err := decodeSection(section, raw)
	if err != nil {
		return UpdateDetailsRequest{}, err
	}
	if len(entries) != 1 {
		return UpdateDetailsRequest{}, apperrors.NewValidationError("exactly one entry is required", map[string]any{"section": section})
	}
	if entries[0].ID == "" && index == nil {
		return UpdateDetailsRequest{}, apperrors.NewValidationError("entry id or index is required", map[string]any{"section": section})
	}
	return UpdateDetailsRequest{Section: section, Entry: entries[0], Index: index}, nil
}

// splitSectionPayload finds the single section key and the optional index in body.
func splitSectionPayload(body []byte) (domain.SectionKey, json.RawMessage, *int, error) {
	var fields map[string]json.RawMessage
	if err := decodeStrict(body, &fields); err != nil {
		return "", nil, nil, err
	}

	var (
		section domain.SectionKey
		raw     json.RawMessage
		index   *int
	)
	for key, value := range fields {
		if key == "index" {
			var i int
			if err := json.Unmarshal(value, &i); err != nil {
				return "", nil, nil, apperrors.NewValidationError("index must be an integer", nil)
			}
			index = &i
			continue
		}
		candidate := domain.SectionKey(key)
		if !candidate.Valid() {
			return "", nil, nil, apperrors.NewValidationError("unknown section", map[string]any{"section": key})
		}
		if section != "" {
			return "", nil, nil, apperrors.NewValidationError("exactly one section per request", nil)
		}
		section, raw = candidate, value
	}
	if section == "" {
		return "", nil, nil, apperrors.NewValidationError("a section is required", nil)
	}
	return section, raw, index, nil
}

func decodeSection(section domain.SectionKey, raw json.RawMessage) ([]domain.SectionEntry, error) {
	switch section {
	case domain.SectionSkills:
		return decodeEntries[SkillEntry](section, raw)
	case domain.SectionExperience:
		return decodeEntries[ExperienceEntry](section, raw)
	case domain.SectionEducation:
		return decodeEntries[EducationEntry](section, raw)
	case domain.SectionResume:
		return decodeEntries[ResumeEntry](section, raw)
	case domain.SectionCompanyInfo:
		return decodeEntries[CompanyInfoEntry](section, raw)
	}
	return nil, apperrors.NewValidationError("unknown section", map[string]any{"section": section})
}

func decodeEntries[T sectionInput](section domain.SectionKey, raw json.RawMessage) ([]domain.SectionEntry, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.TrimSpace(raw)[0] != '[' {
		return nil, apperrors.NewValidationError("section must be an array of entries", map[string]any{"section": section})
	}
	var items []T
	if err := decodeStrict(raw, &items); err != nil {
		return nil, err
	}

	entries := make([]domain.SectionEntry, 0, len(items))
	for i, item := range items {
		if err := Validate(item); err != nil {
			de := apperrors.ToDomainError(err)
			details := map[string]any{"section": section, "entry": i}
			for k, v := range de.Details {
				details[k] = v
			}
			return nil, apperrors.NewValidationError(fmt.Sprintf("invalid %s entry", section), details)
		}
		entries = append(entries, item.toEntry())
	}
	return entries, nil
}
