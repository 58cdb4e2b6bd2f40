// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package directory

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/taibuivan/localmart/internal/platform/sec"
)

// # Domain Entities

// UserRecord is the directory profile behind a session token.
//
// It is never persisted by the gateway; it is fetched fresh on every rehydration.
type UserRecord struct {
	AccountID    FlexString `json:"account_id"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Phone        FlexString `json:"phone"`
	BusinessName string     `json:"business_name"`
	Address      string     `json:"address"`
	Country      string     `json:"country"`
	State        string     `json:"state"`
	Zip          FlexString `json:"zip"`
}

// UserRole returns the normalized role of the record.
func (record UserRecord) UserRole() sec.UserRole {
	return sec.ParseRole(record.Role)
}

// FlexString decodes a JSON string, number or null into a string.
//
// The PHP backend emits numeric columns (account_id, zip, phone) either quoted or
// bare depending on the driver in use.
type FlexString string

// UnmarshalJSON implements [json.Unmarshaler].
func (value *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*value = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*value = FlexString(text)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*value = FlexString(number.String())
	return nil
}

// Int returns the value as an integer, or 0 when it is not numeric.
func (value FlexString) Int() int64 {
	n, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
