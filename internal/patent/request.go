package patent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// GenerationRequest is the decoded body of a generation call.
type GenerationRequest struct {
	Invention Invention
	Office    PatentOffice
	Format    Format
}

type wireRequest struct {
	InventionData  json.RawMessage `json:"inventionData"`
	SelectedOffice json.RawMessage `json:"selectedOffice"`
	Format         string          `json:"format,omitempty"`
	IsFile         bool            `json:"isFile,omitempty"`
}

// DecodeRequest reads and validates a JSON generation request.
func DecodeRequest(r io.Reader) (GenerationRequest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return GenerationRequest{}, fmt.Errorf("read request: %w", err)
	}
	return ParseRequest(data)
}

// ParseRequest decodes and validates a JSON generation request.
func ParseRequest(data []byte) (GenerationRequest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return GenerationRequest{}, &ValidationError{Problems: []string{"request body is empty"}}
	}
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return GenerationRequest{}, &ValidationError{Problems: []string{"malformed JSON body: " + err.Error()}}
	}
	inv, err := decodeInvention(w.InventionData, w.IsFile)
	if err != nil {
		return GenerationRequest{}, err
	}
	office, err := DecodeOffice(w.SelectedOffice)
	if err != nil {
		return GenerationRequest{}, err
	}
	format, err := ParseFormat(w.Format)
	if err != nil {
		return GenerationRequest{}, err
	}
	req := GenerationRequest{Invention: inv, Office: office, Format: format}
	if err := req.Validate(); err != nil {
		return GenerationRequest{}, err
	}
	return req, nil
}

// Validate checks the invention and the office together so callers see every
// problem at once.
func (r GenerationRequest) Validate() error {
	var problems []string
	for _, err := range []error{r.Invention.Validate(), r.Office.Validate()} {
		if ve, ok := err.(*ValidationError); ok {
			problems = append(problems, ve.Problems...)
		} else if err != nil {
			return err
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// MarshalJSON writes the wire form accepted by ParseRequest.
func (r GenerationRequest) MarshalJSON() ([]byte, error) {
	var inv any
	if r.Invention.Disclosure != nil {
		inv = r.Invention.Disclosure
	} else if r.Invention.Document != nil {
		inv = r.Invention.Document
	}
	invRaw, err := json.Marshal(inv)
	if err != nil {
		return nil, err
	}
	officeRaw, err := json.Marshal(r.Office)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireRequest{
		InventionData:  invRaw,
		SelectedOffice: officeRaw,
		Format:         string(r.Format),
		IsFile:         r.Invention.IsFile(),
	})
}

var disclosureKeys = []string{
	"title", "problem", "solution", "technicalDescription", "advantages",
	"drawingsDescription", "priorArt", "inventors", "assignee",
}

func decodeInvention(raw json.RawMessage, isFile bool) (Invention, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		if isFile {
			return FromDocument(UploadedDocument{}), nil
		}
		return Invention{}, &ValidationError{Problems: []string{"inventionData is required"}}
	}
	// A bare string is taken as the name of an uploaded file.
	if raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return Invention{}, &ValidationError{Problems: []string{"inventionData: " + err.Error()}}
		}
		return FromDocument(UploadedDocument{FileName: name}), nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Invention{}, &ValidationError{Problems: []string{"inventionData must be an object"}}
	}
	if isFile || (!hasDisclosureField(fields) && hasFileField(fields)) {
		doc := UploadedDocument{}
		_ = json.Unmarshal(raw, &doc)
		if doc.FileName == "" {
			if name, ok := fields["name"].(string); ok {
				doc.FileName = name
			}
		}
		return FromDocument(doc), nil
	}
	var d InventionDisclosure
	if err := json.Unmarshal(raw, &d); err != nil {
		return Invention{}, &ValidationError{Problems: []string{"inventionData: " + err.Error()}}
	}
	return FromDisclosure(d), nil
}

func hasDisclosureField(fields map[string]any) bool {
	for _, k := range disclosureKeys {
		if s, ok := fields[k].(string); ok && strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

func hasFileField(fields map[string]any) bool {
	_, a := fields["fileName"]
	_, b := fields["name"]
	return a || b
}

// DecodeOffice accepts a full office object, an object carrying only an id,
// or a bare id string. Known ids are completed from the fixed office list.
func DecodeOffice(raw json.RawMessage) (PatentOffice, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return PatentOffice{}, &ValidationError{Problems: []string{"selectedOffice is required"}}
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return PatentOffice{}, &ValidationError{Problems: []string{"selectedOffice: " + err.Error()}}
		}
		o, ok := LookupOffice(id)
		if !ok {
			return PatentOffice{}, &ValidationError{Problems: []string{fmt.Sprintf("unknown office %q", id)}}
		}
		return o, nil
	}
	var o PatentOffice
	if err := json.Unmarshal(raw, &o); err != nil {
		return PatentOffice{}, &ValidationError{Problems: []string{"selectedOffice must be an object"}}
	}
	if o.FullName == "" && o.Name == "" && o.ID != "" {
		if known, ok := LookupOffice(o.ID); ok {
			return known, nil
		}
	}
	return o, nil
}
