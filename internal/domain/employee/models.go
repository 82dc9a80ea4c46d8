package employee

import "time"

type IdentityType string

const (
	IdentityNID            IdentityType = "nid"
	IdentityPassport       IdentityType = "passport"
	IdentityDrivingLicense IdentityType = "driving_license"
	IdentityOther          IdentityType = "other"
)

func ValidIdentityType(value string) bool {
	switch IdentityType(value) {
	case IdentityNID, IdentityPassport, IdentityDrivingLicense, IdentityOther:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type Employee struct {
	ID             string       `json:"id"`
	PhoneNumber1   string       `json:"phone_number1"`
	PhoneNumber2   string       `json:"phone_number2,omitempty"`
	FirstName      string       `json:"first_name"`
	RestOfName     string       `json:"rest_of_name"`
	Email          *string      `json:"email"`
	DateJoined     time.Time    `json:"date_joined"`
	DOB            *time.Time   `json:"dob,omitempty"`
	Gender         Gender       `json:"gender,omitempty"`
	IdentityType   IdentityType `json:"identity_type"`
	IdentityNumber string       `json:"identity_number"`
	Address        string       `json:"address,omitempty"`
	Location       string       `json:"location,omitempty"`
	ProfilePicture string       `json:"profile_picture,omitempty"`
	Role           string       `json:"role,omitempty"`
	FingerprintID  string       `json:"fingerprint_id,omitempty"`
	IsActive       bool         `json:"is_active"`
	IsStaff        bool         `json:"is_staff"`
	IsSuperuser    bool         `json:"is_superuser"`
	IsVerified     bool         `json:"is_verified"`
	LastLogin      *time.Time   `json:"last_login,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	PasswordHash   string       `json:"-"`
}

// ListItem is the compact shape returned by the admin list endpoint.
type ListItem struct {
	ID           string    `json:"id"`
	PhoneNumber1 string    `json:"phone_number1"`
	FirstName    string    `json:"first_name"`
	RestOfName   string    `json:"rest_of_name"`
	Email        *string   `json:"email"`
	Role         string    `json:"role,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	DateJoined   time.Time `json:"date_joined"`
}
