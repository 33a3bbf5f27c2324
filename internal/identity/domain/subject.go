package domain

// PrincipalKind is the account class baked into issued claims. Staff and
// customer tokens are logically isolated: a customer token must never
// authorize a staff operation and vice versa.
type PrincipalKind string

const (
	PrincipalStaff    PrincipalKind = "staff"
	PrincipalCustomer PrincipalKind = "customer"
)

// ParsePrincipalKind validates a principal kind supplied at the boundary.
func ParsePrincipalKind(s string) (PrincipalKind, error) {
	switch PrincipalKind(s) {
	case PrincipalStaff, PrincipalCustomer:
		return PrincipalKind(s), nil
	default:
		return "", NewInvalidInput("Unknown principal kind")
	}
}

func (k PrincipalKind) String() string { return string(k) }

// SubjectType routes credential lookups and password updates to the correct
// external credential service. It mirrors PrincipalKind member-for-member but
// is kept as a distinct type so the routing enumeration and the claim payload
// stay decoupled.
type SubjectType string

const (
	SubjectStaff    SubjectType = "staff"
	SubjectCustomer SubjectType = "customer"
)

// ParseSubjectType validates a subject type supplied at the boundary.
func ParseSubjectType(s string) (SubjectType, error) {
	switch SubjectType(s) {
	case SubjectStaff, SubjectCustomer:
		return SubjectType(s), nil
	default:
		return "", NewInvalidInput("Unknown subject type")
	}
}

func (t SubjectType) String() string { return string(t) }

// Principal returns the claim-payload kind for this subject type.
func (t SubjectType) Principal() PrincipalKind { return PrincipalKind(t) }

// Subject returns the routing enumeration for this principal kind.
func (k PrincipalKind) Subject() SubjectType { return SubjectType(k) }
