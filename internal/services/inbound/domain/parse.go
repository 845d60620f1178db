package domain

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

const replyLocalPrefix = "requests+"

// RequestIDFromRecipients extracts the request id from a plus-addressed
// recipient like requests+<uuid>@domain. Recipients may be a comma separated
// list; the first address that parses wins. Matching is case insensitive and
// the input is NFC normalized first
func RequestIDFromRecipients(to string) (string, bool) {
	for _, part := range strings.Split(norm.NFC.String(to), ",") {
		addr := strings.TrimSpace(part)
		// tolerate display-name forms like "Papertrail <requests+id@x>"
		if i := strings.LastIndexByte(addr, '<'); i >= 0 {
			addr = strings.TrimSuffix(addr[i+1:], ">")
		}
		at := strings.LastIndexByte(addr, '@')
		if at <= 0 {
			continue
		}
		local := strings.ToLower(addr[:at])
		if !strings.HasPrefix(local, replyLocalPrefix) {
			continue
		}
		id := local[len(replyLocalPrefix):]
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		return id, true
	}
	return "", false
}
