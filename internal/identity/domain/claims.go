package domain

// ClaimPayload is the immutable claim set signed into access and refresh
// tokens. The principal kind is set explicitly at issuance and must
// round-trip unchanged through refresh; only the token id changes on
// rotation.
type ClaimPayload struct {
	SubjectID   string
	Email       Email
	Roles       []string
	Permissions []string
	Kind        PrincipalKind

	// TokenID is the correlation id (jti) linking a refresh token to its
	// session row. Regenerated on every rotation.
	TokenID string
}

// NewClaimPayload builds a claim payload, enforcing the non-empty subject
// and email invariants.
func NewClaimPayload(subjectID string, email Email, roles, permissions []string, kind PrincipalKind, tokenID string) (ClaimPayload, error) {
	if subjectID == "" {
		return ClaimPayload{}, NewInvalidInput("Claim subject id is required")
	}
	if email == "" {
		return ClaimPayload{}, NewInvalidInput("Claim email is required")
	}
	if kind != PrincipalStaff && kind != PrincipalCustomer {
		return ClaimPayload{}, NewInvalidInput("Claim principal kind is required")
	}

	return ClaimPayload{
		SubjectID:   subjectID,
		Email:       email,
		Roles:       roles,
		Permissions: permissions,
		Kind:        kind,
		TokenID:     tokenID,
	}, nil
}

// WithTokenID returns a copy of the payload carrying a fresh correlation id.
// Used on rotation: every other claim field is preserved.
func (c ClaimPayload) WithTokenID(tokenID string) ClaimPayload {
	c.TokenID = tokenID
	return c
}
