package delivery

import (
	"net/url"
	"strings"
)

// DeepLink builds the conversation deep link for one attempt. Loading it
// opens (or creates) the conversation with the target number and pre-fills
// the composer with the message body. Literal newlines survive as %0A in
// the encoded text parameter.
func DeepLink(base, digits, text string) string {
	values := url.Values{}
	values.Set("phone", digits)
	values.Set("text", text)

	return strings.TrimRight(base, "/") + "/send?" + values.Encode()
}
