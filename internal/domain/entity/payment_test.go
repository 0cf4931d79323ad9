package entity

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var stripeReference = regexp.MustCompile(`^[A-Za-z0-9_-]{1,200}$`)

func TestClientReference(t *testing.T) {
	for _, email := range []string{"pat@example.com", "o'neil+quotes@mail.example.co.uk"} {
		ref := EncodeClientReference(email)
		assert.Regexp(t, stripeReference, ref)

		got, ok := DecodeClientReference(ref)
		assert.True(t, ok)
		assert.Equal(t, email, got)
	}

	t.Run("too long for stripe", func(t *testing.T) {
		assert.Empty(t, EncodeClientReference(strings.Repeat("x", 150)+"@example.com"))
	})

	t.Run("foreign references", func(t *testing.T) {
		for _, ref := range []string{"", "order_123", "qq_", "qq_!!", "pat@example.com"} {
			_, ok := DecodeClientReference(ref)
			assert.False(t, ok, ref)
		}
	})
}
