package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainOf(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"alice@example.com", "example.com"},
		{"bob@mail.example.org", "mail.example.org"},
		{"no-at-sign", ""},
		{"", ""},
		{"@example.com", "example.com"},
		{"trailing@", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DomainOf(tc.email), "email %q", tc.email)
	}
}

func TestAccountProtected(t *testing.T) {
	a := &Account{Email: "alice@example.com"}
	assert.False(t, a.Protected())

	a.ForwardingAddress = "alice@elsewhere.net"
	assert.True(t, a.Protected())
}
