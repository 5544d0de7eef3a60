package landrecord

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/landledger/backoffice/internal/apperr"
	"github.com/landledger/backoffice/internal/codec"
	"github.com/landledger/backoffice/internal/verification"
)

// Multipart names of the file attachments the land service accepts.
const (
	FilePassbookPhoto = "passbook_photo"
	FileLandBorder    = "land_border"
	FileLandPhoto     = "land_photo"
	FileLandVideo     = "land_video"
	FileBorderPhoto   = "border_photo"
)

// multiFile reports, per accepted attachment name, whether it may repeat.
var multiFile = map[string]bool{
	FilePassbookPhoto: false,
	FileLandBorder:    false,
	FileLandPhoto:     true,
	FileLandVideo:     true,
	FileBorderPhoto:   true,
}

// FileFields lists the attachment names in payload order.
var FileFields = []string{FilePassbookPhoto, FileLandBorder, FileLandPhoto, FileLandVideo, FileBorderPhoto}

// File is one attachment sent alongside the form fields.
type File struct {
	Field    string
	Filename string
	Content  io.Reader
}

// PayloadField is one text part of the save payload.
type PayloadField struct {
	Name  string
	Value string
}

// Payload is the multipart body of a land update.
type Payload struct {
	LandID string
	Fields []PayloadField
	Files  []File
}

// Get returns the first value for name.
func (p *Payload) Get(name string) (string, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// EncodePayload builds the save payload for a form. The generic loop skips
// mediator_name, which is display-only, and both verification fields, which
// are appended explicitly: admin_verification from the computed status and
// verification from the field team's value.
func EncodePayload(f *Form, status verification.Status, files []File) (*Payload, error) {
	if f.LandID == "" {
		return nil, apperr.Invalid("land_id", "land id is required")
	}
	if err := validateFiles(files); err != nil {
		return nil, err
	}

	p := &Payload{LandID: f.LandID}
	for _, fd := range Fields {
		switch fd.FormKey {
		case KeyMediatorName, KeyAdminVerification, KeyVerification:
			continue
		}
		switch fd.Kind {
		case KindList:
			if items, ok := f.Lists[fd.FormKey]; ok {
				p.Fields = append(p.Fields, PayloadField{fd.FormKey, codec.JoinList(items)})
			}
		case KindVisitors:
			if f.Has(fd.FormKey) {
				p.Fields = append(p.Fields, PayloadField{fd.FormKey, encodeVisitors(f.Visitors)})
			}
		default:
			if v, ok := f.Values[fd.FormKey]; ok {
				p.Fields = append(p.Fields, PayloadField{fd.FormKey, v})
			}
		}
	}

	p.Fields = append(p.Fields, PayloadField{KeyAdminVerification, string(status)})
	if v, ok := f.Values[KeyVerification]; ok {
		p.Fields = append(p.Fields, PayloadField{KeyVerification, v})
	}
	p.Files = files
	return p, nil
}

func validateFiles(files []File) error {
	seen := make(map[string]int)
	for _, file := range files {
		multi, ok := multiFile[file.Field]
		if !ok {
			return apperr.Invalid(file.Field, "unsupported attachment")
		}
		if file.Content == nil {
			return apperr.Invalid(file.Field, "attachment has no content")
		}
		seen[file.Field]++
		if !multi && seen[file.Field] > 1 {
			return apperr.Invalid(file.Field, "only one file allowed")
		}
	}
	return nil
}

// Encode writes the payload as multipart/form-data and returns the body and
// its content type.
func (p *Payload) Encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range p.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}
	for _, file := range p.Files {
		part, err := w.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", file.Field, err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", fmt.Errorf("copy %s: %w", file.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
