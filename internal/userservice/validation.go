package userservice

import (
	"regexp"

	"github.com/sushihentaime/inkwell/internal/common"
)

var (
	UsernameRX  = regexp.MustCompile("^[a-z0-9]+$")
	UppercaseRX = regexp.MustCompile("[A-Z]")
	LowercaseRX = regexp.MustCompile("[a-z]")
	NumberRX    = regexp.MustCompile("[0-9]")
	SymbolRX    = regexp.MustCompile(`[#?!@$%^&*()_+={}\[\]:;<>,./\\-]`)
)

func validateUsername(v *common.Validator, username string) {
	v.Check(username != "", "username", "must be provided")
	v.Check(v.CheckStringLength(username, 6, 25), "username", "must be between 6 and 25 characters long")
	v.Check(UsernameRX.MatchString(username), "username", "must only contain letters and numbers")
}

func validateEmail(v *common.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(common.EmailRX.MatchString(email), "email", "must be a valid email address")
}

func validatePassword(v *common.Validator, field, password string) {
	v.Check(password != "", field, "must be provided")

	value := v.CheckStringLength(password, 8, 72) && UppercaseRX.MatchString(password) && LowercaseRX.MatchString(password) && NumberRX.MatchString(password) && SymbolRX.MatchString(password)
	v.Check(value, field, "must be between 8 and 72 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one symbol")
}

func validateName(v *common.Validator, field, name string) {
	v.Check(name != "", field, "must be provided")
	v.Check(len(name) <= 50, field, "must not be more than 50 characters long")
}

func validateBio(v *common.Validator, bio string) {
	v.Check(len(bio) <= 500, "bio", "must not be more than 500 characters long")
}

func validateToken(v *common.Validator, token string) {
	v.Check(token != "", "token", "must be provided")
	v.Check(len(token) == 40, "token", "invalid token")
}
