// Package contact builds the click-to-contact URLs the web client renders
// next to each lead.
package contact

import (
	"net/url"
	"strings"
)

// sanitizePhone keeps digits and a plus sign so dialers accept the number.
func sanitizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CallLink returns a tel: URL for the lead's phone number, or "" when the
// number is empty after sanitizing.
func CallLink(phone string) string {
	n := sanitizePhone(phone)
	if n == "" {
		return ""
	}
	return "tel:" + n
}

// WhatsAppLink returns a wa.me URL with a greeting prefilled from the lead's
// first name.
func WhatsAppLink(phone, name string) string {
	n := strings.TrimPrefix(sanitizePhone(phone), "+")
	if n == "" {
		return ""
	}
	first := "there"
	if fields := strings.Fields(strings.TrimSpace(name)); len(fields) > 0 {
		first = fields[0]
	}
	return "https://wa.me/" + n + "?text=" + url.QueryEscape("Hi "+first+",")
}

// Links bundles the contact URLs for one lead. Empty strings mean the
// underlying field is missing.
type Links struct {
	Call     string `json:"call"`
	WhatsApp string `json:"whatsapp"`
	Mail     string `json:"mail"`
}

// For builds all contact links for a lead's name, phone and email.
func For(name, phone, email string) Links {
	return Links{
		Call:     CallLink(phone),
		WhatsApp: WhatsAppLink(phone, name),
		Mail:     MailLink(email),
	}
}

// MailLink returns a mailto: URL, or "" when the lead has no email.
func MailLink(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	return "mailto:" + email
}
