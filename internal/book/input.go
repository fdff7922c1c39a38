package book

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
)

const (
	msgRequired    = "This field is required."
	msgNull        = "This field may not be null."
	msgBlank       = "This field may not be blank."
	msgNotString   = "Not a valid string."
	msgNotInteger  = "A valid integer is required."
	maxTitleLength = 200
)

// Input carries the writable book fields of a request. Nil means absent.
type Input struct {
	Title           *string
	PublicationYear *int
	AuthorID        *int64
}

// DecodeInput reads a JSON object body into Input, collecting per-field type errors.
func DecodeInput(body []byte) (Input, error) {
	var raw map[string]json.RawMessage
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return Input{}, err
		}
	}
	var in Input
	verr := common.ValidationError{}
	if v, ok := raw["title"]; ok {
		s, msg := decodeString(v)
		if msg != "" {
			verr.Add("title", msg)
		} else {
			in.Title = &s
		}
	}
	if v, ok := raw["publication_year"]; ok {
		n, msg := decodeInt(v)
		if msg != "" {
			verr.Add("publication_year", msg)
		} else {
			y := int(n)
			in.PublicationYear = &y
		}
	}
	if v, ok := raw["author"]; ok {
		n, msg := decodeInt(v)
		switch {
		case msg == msgNull:
			verr.Add("author", msg)
		case msg != "":
			verr.Add("author", "Incorrect type. Expected pk value, received "+jsonKind(v)+".")
		default:
			in.AuthorID = &n
		}
	}
	return in, verr.Err()
}

func decodeString(v json.RawMessage) (string, string) {
	if isNull(v) {
		return "", msgNull
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", msgNotString
	}
	return s, ""
}

// decodeInt accepts a JSON integer or a string holding one.
func decodeInt(v json.RawMessage) (int64, string) {
	if isNull(v) {
		return 0, msgNull
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return i, ""
		}
		return 0, msgNotInteger
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, ""
		}
	}
	return 0, msgNotInteger
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}

func jsonKind(v json.RawMessage) string {
	t := bytes.TrimSpace(v)
	if len(t) == 0 {
		return "null"
	}
	switch t[0] {
	case '"':
		return "str"
	case '[':
		return "list"
	case '{':
		return "dict"
	case 't', 'f':
		return "bool"
	}
	return "number"
}
