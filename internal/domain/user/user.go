package user

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RentalBee/service-rental/internal/common/domain"
)

// Role is the access role of a user.
type Role string

const (
	RoleClient       Role = "CLIENT"
	RoleAdmin        Role = "ADMIN"
	RoleSupportAgent Role = "SUPPORT_AGENT"
)

// Address is the postal address of a user.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}

// User is a registered account. Fields are exported because users are
// edited field by field from the profile form.
type User struct {
	ID               uuid.UUID
	Email            string
	FirstName        string
	LastName         string
	PasswordHash     string
	Role             Role
	ImageURL         string
	Phone            string
	Address          Address
	IdentityDocument Document
	LicenseDocument  Document
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewClient validates and creates a CLIENT account.
func NewClient(email, firstName, lastName, passwordHash string) (*User, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewValidationError("invalid email address")
	}
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, domain.NewValidationError("first and last name are required")
	}
	if passwordHash == "" {
		return nil, domain.NewValidationError("password is required")
	}

	now := time.Now().UTC()
	return &User{
		ID:               uuid.New(),
		Email:            email,
		FirstName:        strings.TrimSpace(firstName),
		LastName:         strings.TrimSpace(lastName),
		PasswordHash:     passwordHash,
		Role:             RoleClient,
		IdentityDocument: Document{Status: Unverified},
		LicenseDocument:  Document{Status: Unverified},
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FullName returns "First Last".
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ShortName returns "First L." as shown next to reviews.
func (u *User) ShortName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + string([]rune(u.LastName)[:1]) + "."
}

// ReconcileVerification forces documents without a file to UNVERIFIED and
// reports whether anything changed, so callers can persist the correction.
func (u *User) ReconcileVerification() bool {
	changed := u.IdentityDocument.reconcile()
	if u.LicenseDocument.reconcile() {
		changed = true
	}
	return changed
}

// IsVerified reports whether both documents are verified.
func (u *User) IsVerified() bool {
	return u.IdentityDocument.IsVerified() && u.LicenseDocument.IsVerified()
}

// VerificationStatus is the compound status of both documents.
func (u *User) VerificationStatus() VerificationStatus {
	if u.IsVerified() {
		return Verified
	}
	return Unverified
}

// Document returns the document of the given type.
func (u *User) Document(t DocumentType) Document {
	if t == DocumentLicense {
		return u.LicenseDocument
	}
	return u.IdentityDocument
}

// AttachDocument records a newly uploaded file. A new upload always needs a
// fresh review.
func (u *User) AttachDocument(t DocumentType, url string, now time.Time) error {
	if !t.IsValid() {
		return domain.NewValidationError("invalid document type")
	}
	if url == "" {
		return domain.NewValidationError("document url is required")
	}
	now = now.UTC()
	doc := Document{URL: url, Status: Unverified, UploadedAt: &now}
	u.setDocument(t, doc)
	u.UpdatedAt = now
	return nil
}

// SetDocumentStatus is the support agent's review of a document.
func (u *User) SetDocumentStatus(t DocumentType, status VerificationStatus, now time.Time) error {
	if !t.IsValid() {
		return domain.NewValidationError("invalid document type")
	}
	if !status.IsValid() {
		return domain.NewValidationError("status must be VERIFIED or UNVERIFIED")
	}
	doc := u.Document(t)
	if status == Verified && !doc.HasFile() {
		return domain.NewCodedInvalidStateError("DOCUMENT_MISSING", "cannot verify a document that was not uploaded")
	}
	doc.Status = status
	u.setDocument(t, doc)
	u.UpdatedAt = now.UTC()
	return nil
}

func (u *User) setDocument(t DocumentType, doc Document) {
	if t == DocumentLicense {
		u.LicenseDocument = doc
		return
	}
	u.IdentityDocument = doc
}

// IsStaff reports whether the user works for the rental company.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleSupportAgent
}
