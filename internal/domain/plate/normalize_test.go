package plate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "already canonical", raw: "AB123AA", want: "AB123AA"},
		{name: "lowercase", raw: "ab123aa", want: "AB123AA"},
		{name: "dashes and spaces", raw: "ab-123 aa", want: "AB123AA"},
		{name: "dots", raw: "29A-123.45", want: "29A12345"},
		{name: "only separators", raw: "-- ..", want: ""},
		{name: "empty", raw: "", want: ""},
		{name: "unicode stripped", raw: "АB123", want: "B123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"ab-12", "AB123AA", "x1", "", "99-zz-99", "plate with words 42"}
	for _, raw := range inputs {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", raw)
	}
}
