package client

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/jobportal/profile-sync/internal/domain"
)

var (
	// ErrReauthenticate is returned after an auth failure cleared the session.
	ErrReauthenticate = errors.New("session ended, sign in again")
	// ErrNoSuchEntry is returned by BeginEdit for an index outside the confirmed entries.
	ErrNoSuchEntry = errors.New("no such entry")
)

// syncer is the state shared by the profile and section controllers.
type syncer struct {
	api     *API
	cache   *ReadCache
	ownerID string

	// OnReauthenticate runs after an auth failure cleared the session.
	OnReauthenticate func()
}

// load reads the owner's profile, revalidating the cached copy when there is one.
func (s *syncer) load(ctx context.Context) (*domain.ProfileRecord, error) {
	key := ProfileKey(s.ownerID)
	cached, hit := s.cache.Get(key)

	since := ""
	if hit {
		since = cached.LastModified
	}
	result, err := s.api.GetProfile(ctx, s.ownerID, since)
	if err != nil {
		return nil, s.fail(err)
	}
	if result.NotModified && hit {
		return cached.Profile, nil
	}
	if result.NotModified {
		// Nothing to revalidate against; fetch in full.
		if result, err = s.api.GetProfile(ctx, s.ownerID, ""); err != nil {
			return nil, s.fail(err)
		}
	}
	s.cache.Put(key, result.Profile, result.LastModified)
	return result.Profile, nil
}

// confirm stores a write's response as the new confirmed state.
func (s *syncer) confirm(result *ProfileResult) *domain.ProfileRecord {
	s.cache.Put(ProfileKey(s.ownerID), result.Profile, result.LastModified)
	return result.Profile
}

// fail ends the session on auth failures. Other errors are returned unchanged so the
// caller keeps its form input.
func (s *syncer) fail(err error) error {
	if !IsAuthFailure(err) {
		return err
	}
	s.api.Session().Clear()
	s.cache.Clear()
	if s.OnReauthenticate != nil {
		s.OnReauthenticate()
	}
	return fmt.Errorf("%w: %v", ErrReauthenticate, err)
}

type editTarget struct {
	index int
	id    string
}

// SectionController edits one section of a profile. Confirmed server entries are kept
// apart from the form being edited.
type SectionController struct {
	syncer
	section   domain.SectionKey
	confirmed []domain.SectionEntry
	form      map[string]string
	editing   *editTarget
}

// NewSectionController returns a controller for ownerID's section.
func NewSectionController(api *API, cache *ReadCache, ownerID string, section domain.SectionKey) *SectionController {
	return &SectionController{
		syncer:  syncer{api: api, cache: cache, ownerID: ownerID},
		section: section,
		form:    map[string]string{},
	}
}

// Load refreshes the confirmed entries from the server.
func (c *SectionController) Load(ctx context.Context) error {
	record, err := c.load(ctx)
	if err != nil {
		return err
	}
	c.reconcile(record)
	return nil
}

// Entries returns a copy of the confirmed entries.
func (c *SectionController) Entries() []domain.SectionEntry {
	return domain.Details{c.section: c.confirmed}.Clone()[c.section]
}

// BeginAdd starts a blank form that Save will append.
func (c *SectionController) BeginAdd() {
	c.editing = nil
	c.form = map[string]string{}
}

// BeginEdit starts editing the confirmed entry at index, capturing its position and id.
func (c *SectionController) BeginEdit(index int) error {
	if index < 0 || index >= len(c.confirmed) {
		return fmt.Errorf("%w: %s[%d]", ErrNoSuchEntry, c.section, index)
	}
	entry := c.confirmed[index]
	c.editing = &editTarget{index: index, id: entry.ID}
	c.form = maps.Clone(entry.Fields)
	if c.form == nil {
		c.form = map[string]string{}
	}
	return nil
}

// Editing reports the index under edit, or -1 when adding.
func (c *SectionController) Editing() int {
	if c.editing == nil {
		return -1
	}
	return c.editing.index
}

// SetField sets one form field.
func (c *SectionController) SetField(name, value string) {
	c.form[name] = value
}

// Form returns a copy of the form.
func (c *SectionController) Form() map[string]string {
	return maps.Clone(c.form)
}

// Cancel discards the form.
func (c *SectionController) Cancel() {
	c.BeginAdd()
}

// Save submits the form. An edit replaces the captured entry by id and sends the captured
// index; otherwise the form is appended. On success the confirmed entries are taken from
// the server response and the form is reset.
func (c *SectionController) Save(ctx context.Context) error {
	var (
		result *ProfileResult
		err    error
	)
	if c.editing != nil {
		entry := maps.Clone(c.form)
		delete(entry, "id")
		if c.editing.id != "" {
			entry["id"] = c.editing.id
		}
		index := c.editing.index
		result, err = c.api.UpdateDetails(ctx, c.ownerID, c.section, entry, &index)
	} else {
		result, err = c.api.AddDetails(ctx, c.ownerID, c.section, []map[string]string{maps.Clone(c.form)})
	}
	if err != nil {
		return c.fail(err)
	}

	c.reconcile(c.confirm(result))
	c.BeginAdd()
	return nil
}

func (c *SectionController) reconcile(record *domain.ProfileRecord) {
	c.confirmed = record.Details.Clone()[c.section]
}

// ProfileController edits a profile's top-level personal information.
type ProfileController struct {
	syncer
	confirmed *domain.ProfileRecord
	form      map[string]string
}

// NewProfileController returns a controller for ownerID's personal info.
func NewProfileController(api *API, cache *ReadCache, ownerID string) *ProfileController {
	return &ProfileController{
		syncer: syncer{api: api, cache: cache, ownerID: ownerID},
		form:   map[string]string{},
	}
}

// Load refreshes the confirmed profile and resets the form to it.
func (c *ProfileController) Load(ctx context.Context) error {
	record, err := c.load(ctx)
	if err != nil {
		return err
	}
	c.confirmed = record
	c.form = personalFields(record)
	return nil
}

// Profile returns the confirmed profile.
func (c *ProfileController) Profile() *domain.ProfileRecord {
	return c.confirmed.Clone()
}

// SetField sets one form field.
func (c *ProfileController) SetField(name, value string) {
	c.form[name] = value
}

// Form returns a copy of the form.
func (c *ProfileController) Form() map[string]string {
	return maps.Clone(c.form)
}

// Changed returns the form fields that differ from the confirmed profile.
func (c *ProfileController) Changed() map[string]string {
	base := personalFields(c.confirmed)
	changed := map[string]string{}
	for name, value := range c.form {
		if base[name] != value {
			changed[name] = value
		}
	}
	return changed
}

// Save sends only the changed fields. Nothing is sent when nothing changed.
func (c *ProfileController) Save(ctx context.Context) error {
	changed := c.Changed()
	if len(changed) == 0 {
		return nil
	}
	result, err := c.api.UpdateUser(ctx, c.ownerID, changed)
	if err != nil {
		return c.fail(err)
	}
	c.confirmed = c.confirm(result)
	c.form = personalFields(c.confirmed)
	return nil
}

func personalFields(record *domain.ProfileRecord) map[string]string {
	if record == nil {
		return map[string]string{}
	}
	return map[string]string{
		"firstName":   record.FirstName,
		"lastName":    record.LastName,
		"email":       record.Email,
		"phoneNumber": record.PhoneNumber,
		"address":     record.Address,
	}
}
