package server

import (
	"bufio"
	"mime"
	"net/http"
)

// sniffLen is how much http.DetectContentType looks at.
const sniffLen = 512

// contentTypeOf returns the declared type when it parses, otherwise the type
// sniffed from the first bytes of body without consuming them.
func contentTypeOf(declared string, body *bufio.Reader) string {
	if declared != "" {
		if _, _, err := mime.ParseMediaType(declared); err == nil {
			return declared
		}
	}
	head, _ := body.Peek(sniffLen)
	return http.DetectContentType(head)
}
