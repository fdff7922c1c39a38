package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Snowflake ids exceed the 2^53 integers a JSON number keeps exact in most
// clients, so ids are written as strings. Either form is accepted on input.

// ID is a row id in a request or response body.
type ID int64

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatInt(int64(id), 10))), nil
}

func (id *ID) UnmarshalJSON(b []byte) error {
	n, err := parseID(b)
	if err != nil {
		return err
	}
	*id = ID(n)
	return nil
}

// IDs is a list of row ids, written as a JSON array of strings.
type IDs []int64

func (ids IDs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, id := range ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.FormatInt(id, 10)))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (ids *IDs) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(IDs, 0, len(raw))
	for _, r := range raw {
		n, err := parseID(r)
		if err != nil {
			return err
		}
		out = append(out, n)
	}
	*ids = out
	return nil
}

func parseID(b []byte) (int64, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, err
		}
		b = []byte(strings.TrimSpace(s))
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %s", b)
	}
	return n, nil
}
