package landcode

import (
	"fmt"
	"strings"
)

// PartLength is how many letters each place name contributes to a prefix.
const PartLength = 3

// DerivePrefix builds the default code prefix for a state/district/town.
// Each name is reduced to its ASCII letters, cut to PartLength and
// uppercased; the parts are concatenated in order. A name with no letters
// yields "" for the whole prefix.
func DerivePrefix(stateName, districtName, townName string) string {
	var b strings.Builder
	for _, name := range []string{stateName, districtName, townName} {
		part := prefixPart(name)
		if part == "" {
			return ""
		}
		b.WriteString(part)
	}
	return b.String()
}

func prefixPart(name string) string {
	letters := make([]byte, 0, PartLength)
	for i := 0; i < len(name) && len(letters) < PartLength; i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			letters = append(letters, c)
		}
	}
	return strings.ToUpper(string(letters))
}

// ExpectedCodes lists the codes the land service is expected to create for a
// batch: prefix followed by a sequence number padded to at least two digits.
func ExpectedCodes(prefix string, count int) []string {
	if prefix == "" || count <= 0 {
		return nil
	}
	codes := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		codes = append(codes, fmt.Sprintf("%s%02d", prefix, i))
	}
	return codes
}
