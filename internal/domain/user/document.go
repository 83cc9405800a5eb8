package user

import (
	"fmt"
	"time"
)

// DocumentType identifies one of the two documents a client must provide.
type DocumentType string

const (
	DocumentIdentity DocumentType = "identity"
	DocumentLicense  DocumentType = "license"
)

// IsValid returns true if the document type is recognized.
func (d DocumentType) IsValid() bool {
	return d == DocumentIdentity || d == DocumentLicense
}

// ParseDocumentType accepts the API names, including the legacy ones.
func ParseDocumentType(s string) (DocumentType, error) {
	switch s {
	case "identity", "aadhaarCard", "identityDocument":
		return DocumentIdentity, nil
	case "license", "drivingLicense", "licenseDocument":
		return DocumentLicense, nil
	}
	return "", fmt.Errorf("invalid document type: %s", s)
}

// VerificationStatus is the review state of a document or of a user.
type VerificationStatus string

const (
	Verified   VerificationStatus = "VERIFIED"
	Unverified VerificationStatus = "UNVERIFIED"
)

// IsValid returns true if the status is recognized.
func (s VerificationStatus) IsValid() bool {
	return s == Verified || s == Unverified
}

// Document is an uploaded document. The file lives in external storage;
// only its URL is kept here.
type Document struct {
	URL        string             `json:"documentUrl"`
	Status     VerificationStatus `json:"status"`
	UploadedAt *time.Time         `json:"uploadedAt,omitempty"`
}

// HasFile reports whether a file was uploaded.
func (d Document) HasFile() bool {
	return d.URL != ""
}

// IsVerified reports whether the document was uploaded and verified.
func (d Document) IsVerified() bool {
	return d.HasFile() && d.Status == Verified
}

// reconcile forces a document without a file back to UNVERIFIED.
func (d *Document) reconcile() bool {
	if d.Status == "" || (!d.HasFile() && d.Status != Unverified) {
		d.Status = Unverified
		return true
	}
	return false
}
