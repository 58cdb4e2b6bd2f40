// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/localmart/pkg/normalize"
)

/*
TestEmail verifies that visually identical addresses collapse to one key.
*/
func TestEmail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already_canonical", "buyer@example.com", "buyer@example.com"},
		{"mixed_case", "Buyer@Example.COM", "buyer@example.com"},
		{"surrounding_space", "  buyer@example.com\t", "buyer@example.com"},
		{"zero_width_space", "buyer​@example.com", "buyer@example.com"},
		{"full_width", "ｂｕｙｅｒ@example.com", "buyer@example.com"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Email(tt.in))
		})
	}
}
