// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// services, storage, and handlers can all import types without depending
// on each other.
package types

import "time"

// University is an institution allowed to issue degree credentials.
//
// PrincipalAddress is the university's signing identity and is unique
// across all universities (exact, case-sensitive match). Authorized is a
// live flag: governance can revoke it after the university has issued
// degrees, and verification always reads its current value.
type University struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	PrincipalAddress string    `json:"principal_address"`
	Authorized       bool      `json:"authorized"`
	CreatedAt        time.Time `json:"created_at"`
}

// Student is a degree holder. WalletAddress and NationalID are each
// unique across students.
type Student struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	WalletAddress string    `json:"wallet_address"`
	NationalID    string    `json:"national_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Degree is the minted credential. It is written once by the minting
// service and never updated or deleted.
//
// There is deliberately no "verified" field: verification is computed on
// every query from the stored payload and the issuer's live status.
type Degree struct {
	CredentialID         string    `json:"credential_id"`
	StudentID            string    `json:"student_id,omitempty"`
	StudentName          string    `json:"student_name"`
	StudentWalletAddress string    `json:"student_wallet_address"`
	Course               string    `json:"course"`
	GraduationYear       int       `json:"graduation_year"`
	UniversityID         string    `json:"university_id"`
	UniversityName       string    `json:"university_name"`
	SGPA                 *float64  `json:"sgpa,omitempty"`
	CGPA                 *float64  `json:"cgpa,omitempty"`
	DocumentRef          string    `json:"document_ref,omitempty"`
	MintedAt             time.Time `json:"minted_at"`
	Payload              string    `json:"payload"`
}

// VerificationResult is the two-axis verdict for a credential.
//
// Verified reports record integrity; UniversityAuthorized reports the
// issuer's current standing. Consumers must check both.
type VerificationResult struct {
	CredentialID         string    `json:"credential_id"`
	StudentName          string    `json:"student_name"`
	StudentWalletAddress string    `json:"student_wallet_address"`
	Course               string    `json:"course"`
	University           string    `json:"university"`
	GraduationYear       int       `json:"graduation_year"`
	MintedAt             time.Time `json:"minted_at"`
	Verified             bool      `json:"verified"`
	UniversityAuthorized bool      `json:"university_authorized"`
}

// NationalIDCheck is the outcome of a national id format check. It says
// nothing about whether a student with that id is registered.
type NationalIDCheck struct {
	Verified   bool   `json:"verified"`
	Name       string `json:"name,omitempty"`
	NationalID string `json:"national_id,omitempty"`
	Message    string `json:"message"`
}
