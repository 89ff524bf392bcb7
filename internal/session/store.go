// Package session keeps the wizard state that survives navigation between
// the form and the generation view: the submitted request, the generated
// document and the user's saved draft.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"patentai/internal/patent"
)

const (
	KeyInventionData   = "inventionData"
	KeySelectedOffice  = "selectedOffice"
	KeyGeneratedPatent = "generatedPatent"
	KeySavedPatent     = "savedPatent"
	KeySavedPatentDate = "savedPatentDate"
)

// Store is a flat key-value store of JSON documents.
type Store interface {
	Get(key string) (json.RawMessage, bool, error)
	Set(key string, value json.RawMessage) error
	Delete(key string) error
	Keys() ([]string, error)
}

// Put marshals v and stores it under key.
func Put(s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", key, err)
	}
	return s.Set(key, raw)
}

// Load unmarshals the value under key into v. It reports false when the key
// is absent.
func Load(s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("session: decode %s: %w", key, err)
	}
	return true, nil
}

// SaveRequest stores the submitted invention and office so the generation
// view can be opened without re-submitting the form.
func SaveRequest(s Store, req patent.GenerationRequest) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return err
	}
	var wire struct {
		InventionData  json.RawMessage `json:"inventionData"`
		SelectedOffice json.RawMessage `json:"selectedOffice"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	if err := s.Set(KeyInventionData, wire.InventionData); err != nil {
		return err
	}
	return s.Set(KeySelectedOffice, wire.SelectedOffice)
}

// ErrNoRequest means the wizard has not stored a request yet.
var ErrNoRequest = errors.New("session: no invention data stored")

// LoadRequest rebuilds the stored request. Format is not persisted and comes
// back as the default.
func LoadRequest(s Store) (patent.GenerationRequest, error) {
	inv, ok, err := s.Get(KeyInventionData)
	if err != nil {
		return patent.GenerationRequest{}, err
	}
	office, okOffice, err := s.Get(KeySelectedOffice)
	if err != nil {
		return patent.GenerationRequest{}, err
	}
	if !ok || !okOffice {
		return patent.GenerationRequest{}, ErrNoRequest
	}
	body, err := json.Marshal(map[string]json.RawMessage{
		"inventionData":  inv,
		"selectedOffice": office,
	})
	if err != nil {
		return patent.GenerationRequest{}, err
	}
	return patent.ParseRequest(body)
}

// SaveGenerated stores the document produced by the last completed run.
func SaveGenerated(s Store, doc string) error {
	return Put(s, KeyGeneratedPatent, doc)
}

// SaveDraft stores the edited document and the time it was saved.
func SaveDraft(s Store, doc string, now time.Time) error {
	if err := Put(s, KeySavedPatent, doc); err != nil {
		return err
	}
	return Put(s, KeySavedPatentDate, now.UTC().Format(time.RFC3339))
}

// Draft is a saved document.
type Draft struct {
	Document string
	SavedAt  time.Time
}

// LoadDraft returns the saved draft, if any.
func LoadDraft(s Store) (Draft, bool, error) {
	var d Draft
	ok, err := Load(s, KeySavedPatent, &d.Document)
	if err != nil || !ok {
		return Draft{}, false, err
	}
	var stamp string
	if _, err := Load(s, KeySavedPatentDate, &stamp); err != nil {
		return Draft{}, false, err
	}
	if stamp != "" {
		t, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			return Draft{}, false, fmt.Errorf("session: %s: %w", KeySavedPatentDate, err)
		}
		d.SavedAt = t
	}
	return d, true, nil
}
