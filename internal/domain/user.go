package domain

import (
	"fmt"
	"strings"
)

// AccountKind discriminates student and company accounts. The upstream API
// exposes a disjoint endpoint namespace per kind.
type AccountKind string

const (
	KindStudent AccountKind = "student"
	KindCompany AccountKind = "company"
)

// AllKinds lists the account kinds in their default probe order.
var AllKinds = []AccountKind{KindStudent, KindCompany}

// ParseAccountKind converts a string into an AccountKind.
func ParseAccountKind(s string) (AccountKind, error) {
	switch AccountKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindStudent:
		return KindStudent, nil
	case KindCompany:
		return KindCompany, nil
	default:
		return "", fmt.Errorf("unknown account kind %q", s)
	}
}

// Valid reports whether k is a known account kind.
func (k AccountKind) Valid() bool {
	return k == KindStudent || k == KindCompany
}

func (k AccountKind) String() string { return string(k) }

// StudentProfile holds the student-specific profile fields.
type StudentProfile struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Phone     string   `json:"phone,omitempty"`
	Headline  string   `json:"headline,omitempty"`
	Skills    []string `json:"skills,omitempty"`
}

// CompanyProfile holds the company-specific profile fields.
type CompanyProfile struct {
	CompanyName       string `json:"companyName"`
	ContactPersonName string `json:"contactPersonName"`
	Phone             string `json:"phone,omitempty"`
	Industry          string `json:"industry,omitempty"`
	Website           string `json:"website,omitempty"`
}

// User is the authenticated account. Exactly one of Student or Company is set
// and it matches Kind.
type User struct {
	Kind    AccountKind
	ID      string
	Email   string
	Student *StudentProfile
	Company *CompanyProfile
}

// Validate checks that the user is well-formed.
func (u *User) Validate() error {
	if u == nil {
		return fmt.Errorf("%w: nil user", ErrMalformedProfile)
	}
	if u.ID == "" || u.Email == "" {
		return fmt.Errorf("%w: missing id or email", ErrMalformedProfile)
	}
	switch u.Kind {
	case KindStudent:
		if u.Student == nil || u.Company != nil {
			return fmt.Errorf("%w: student variant mismatch", ErrMalformedProfile)
		}
	case KindCompany:
		if u.Company == nil || u.Student != nil {
			return fmt.Errorf("%w: company variant mismatch", ErrMalformedProfile)
		}
	default:
		return fmt.Errorf("%w: invalid kind %q", ErrMalformedProfile, u.Kind)
	}
	return nil
}

// DisplayName returns the name shown in page headers.
func (u *User) DisplayName() string {
	switch u.Kind {
	case KindStudent:
		name := strings.TrimSpace(u.Student.FirstName + " " + u.Student.LastName)
		if name != "" {
			return name
		}
	case KindCompany:
		if u.Company.CompanyName != "" {
			return u.Company.CompanyName
		}
	}
	return u.Email
}

// Clone returns a deep copy so snapshots never alias store state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Student != nil {
		s := *u.Student
		s.Skills = append([]string(nil), u.Student.Skills...)
		out.Student = &s
	}
	if u.Company != nil {
		c := *u.Company
		out.Company = &c
	}
	return &out
}

// Credentials is the login input.
type Credentials struct {
	Email    string
	Password string
}

// SignupForm carries kind-specific registration fields. Password is optional;
// when present, signup is followed by an automatic login.
type SignupForm struct {
	Email    string
	Password string
	Student  *StudentProfile
	Company  *CompanyProfile
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	Email             *string
	FirstName         *string
	LastName          *string
	CompanyName       *string
	ContactPersonName *string
	Phone             *string
	Headline          *string
	Industry          *string
	Website           *string
	Skills            []string
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.Email == nil && p.FirstName == nil && p.LastName == nil && p.CompanyName == nil &&
		p.ContactPersonName == nil && p.Phone == nil && p.Headline == nil &&
		p.Industry == nil && p.Website == nil && p.Skills == nil
}

// Apply shallow-merges the non-nil fields of p into a copy of u. Fields that
// do not belong to the user's variant are ignored.
func (u *User) Apply(p ProfilePatch) *User {
	out := u.Clone()
	if p.Email != nil && *p.Email != "" {
		out.Email = *p.Email
	}
	switch out.Kind {
	case KindStudent:
		setString(&out.Student.FirstName, p.FirstName)
		setString(&out.Student.LastName, p.LastName)
		setString(&out.Student.Phone, p.Phone)
		setString(&out.Student.Headline, p.Headline)
		if p.Skills != nil {
			out.Student.Skills = append([]string(nil), p.Skills...)
		}
	case KindCompany:
		setString(&out.Company.CompanyName, p.CompanyName)
		setString(&out.Company.ContactPersonName, p.ContactPersonName)
		setString(&out.Company.Phone, p.Phone)
		setString(&out.Company.Industry, p.Industry)
		setString(&out.Company.Website, p.Website)
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
