package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"patentai/internal/patent"
)

const documentField = "document"

// decodeRequest reads a generation request from a JSON body or a multipart
// form carrying the disclosure as a "document" file part. Every failure is a
// client error.
func decodeRequest(w http.ResponseWriter, r *http.Request, maxBytes int64) (patent.GenerationRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return decodeMultipart(r, maxBytes)
	}
	req, err := patent.DecodeRequest(r.Body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return patent.GenerationRequest{}, fmt.Errorf("request body exceeds %d bytes", maxBytes)
	}
	return req, err
}

func decodeMultipart(r *http.Request, maxBytes int64) (patent.GenerationRequest, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return patent.GenerationRequest{}, &patent.ValidationError{Problems: []string{"malformed multipart body: " + err.Error()}}
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(documentField)
	if err != nil {
		return patent.GenerationRequest{}, &patent.ValidationError{Problems: []string{"multipart body needs a document file part"}}
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return patent.GenerationRequest{}, fmt.Errorf("read document: %w", err)
	}
	doc, err := patent.InspectDocument(header.Filename, data)
	if err != nil {
		return patent.GenerationRequest{}, err
	}

	office, err := patent.DecodeOffice(officeField(r.FormValue("selectedOffice")))
	if err != nil {
		return patent.GenerationRequest{}, err
	}
	format, err := patent.ParseFormat(r.FormValue("format"))
	if err != nil {
		return patent.GenerationRequest{}, err
	}
	req := patent.GenerationRequest{Invention: patent.FromDocument(doc), Office: office, Format: format}
	if err := req.Validate(); err != nil {
		return patent.GenerationRequest{}, err
	}
	return req, nil
}

// officeField accepts a JSON office object or a bare office id.
func officeField(v string) json.RawMessage {
	v = strings.TrimSpace(v)
	if v == "" || v[0] == '{' || v[0] == '"' {
		return json.RawMessage(v)
	}
	quoted, _ := json.Marshal(v)
	return quoted
}
