package employee

import "regexp"

// Egyptian mobile numbers: +20 country code followed by a 10-digit national
// number on one of the mobile prefixes.
var egyptianMobile = regexp.MustCompile(`^\+20(10|11|12|15)[0-9]{8}$`)

func ValidPhoneNumber(value string) bool {
	return egyptianMobile.MatchString(value)
}

// ApplyIdentity enforces the derivation precedence rule: when the identity
// document is a national ID, the birth date and gender decoded from it always
// replace whatever the caller supplied. For any other identity type the record
// is left untouched. The returned error is the parser's reason and belongs on
// the identity_number field.
func ApplyIdentity(emp *Employee) error {
	if emp.IdentityType != IdentityNID {
		return nil
	}
	nid, err := ParseNationalID(emp.IdentityNumber)
	if err != nil {
		return err
	}
	dob := nid.DOB
	emp.DOB = &dob
	emp.Gender = nid.Gender
	return nil
}
