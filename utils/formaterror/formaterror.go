package formaterror

import "strings"

var errorMessages = make(map[string]string)

// FormatError translates database errors into field-level messages the client
// can show directly. Unique-constraint violations from both postgres and
// sqlite surface the column name, so a substring check is enough.
func FormatError(err string) map[string]string {
	errorMessages = map[string]string{}
	lowered := strings.ToLower(err)

	if strings.Contains(lowered, "username") {
		errorMessages["Taken_username"] = "Username Already Taken"
	}
	if strings.Contains(lowered, "email") {
		errorMessages["Taken_email"] = "Email Already Taken"
	}
	if strings.Contains(lowered, "hashedpassword") || strings.Contains(lowered, "crypto/bcrypt") {
		errorMessages["Incorrect_password"] = "Incorrect Password"
	}
	if strings.Contains(lowered, "record not found") {
		errorMessages["No_record"] = "No Record Found"
	}
	if len(errorMessages) == 0 {
		errorMessages["Incorrect_details"] = "Incorrect Details"
	}
	return errorMessages
}
