package sync

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/ttacon/libphonenumber"
)

func init() {

	// @phone:<region> formats a phone number as E.164, parsing national numbers
	// in the given region. Numbers that cannot be parsed are passed through unchanged.
	gjson.AddModifier("phone", func(json, arg string) string {
		res := gjson.Parse(json)
		if !res.Exists() || res.Value() == nil {
			return json
		}
		number := strings.TrimSpace(res.String())
		if number == "" {
			return json
		}
		num, err := libphonenumber.Parse(number, strings.ToUpper(arg))
		if err != nil || !libphonenumber.IsValidNumber(num) {
			return json
		}
		return fmt.Sprintf(`"%s"`, libphonenumber.Format(num, libphonenumber.E164))
	})

}
