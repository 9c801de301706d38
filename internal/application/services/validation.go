package services

import (
	"net/mail"
	"net/url"
	"strings"
)

// validEmail accepts a bare address such as "owner@store.com"
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

var streamSchemes = map[string]bool{
	"rtsp": true, "rtsps": true, "http": true, "https": true, "rtmp": true,
}

// validStreamURL accepts rtsp, http and rtmp URLs with a host
func validStreamURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return streamSchemes[strings.ToLower(u.Scheme)] && u.Host != ""
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
