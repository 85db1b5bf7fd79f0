package gmail

import (
	"strings"

	"github.com/emersion/go-message/mail"
)

// ParseAddress splits a From header into display name and address.
//
// RFC 5322 syntax and RFC 2047 encoded names are handled by go-message.
// Headers that do not parse fall back to a plain "Name <addr>" split, and
// anything else is kept whole as the address with an empty name.
func ParseAddress(raw string) Sender {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Sender{}
	}

	if addr, err := mail.ParseAddress(raw); err == nil {
		return Sender{Name: addr.Name, Email: addr.Address}
	}

	open := strings.Index(raw, "<")
	end := strings.LastIndex(raw, ">")
	if open >= 0 && end > open {
		return Sender{
			Name:  strings.Trim(strings.TrimSpace(raw[:open]), `"`),
			Email: strings.TrimSpace(raw[open+1 : end]),
		}
	}

	return Sender{Email: raw}
}
