package shell

import (
	"strings"
)

const DefaultPrefix = "!"

// Policy decides who may run shell escapes and which commands are refused.
type Policy struct {
	Enabled        bool
	Prefix         string
	AllowedSenders []string
	Denylist       []string
}

func NewPolicy(enabled bool, prefix, allowedSendersCSV, denylistCSV string) *Policy {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	var senders []string
	for _, s := range parseCSV(allowedSendersCSV) {
		senders = append(senders, NormalizeJID(s))
	}
	return &Policy{
		Enabled:        enabled,
		Prefix:         prefix,
		AllowedSenders: senders,
		Denylist:       parseCSV(denylistCSV),
	}
}

// Command strips the escape prefix. ok is false when text is not a shell escape.
func (p *Policy) Command(text string) (command string, ok bool) {
	if !strings.HasPrefix(text, p.Prefix) {
		return "", false
	}
	return text[len(p.Prefix):], true
}

// SenderAllowed reports whether sender may run commands. An empty allow-list
// admits everyone.
func (p *Policy) SenderAllowed(sender string) bool {
	if len(p.AllowedSenders) == 0 {
		return true
	}
	sender = NormalizeJID(sender)
	for _, allowed := range p.AllowedSenders {
		if allowed == sender {
			return true
		}
	}
	return false
}

// IsDenied reports whether command contains a denylisted substring.
func (p *Policy) IsDenied(command string) bool {
	lower := strings.ToLower(command)
	for _, rule := range p.Denylist {
		if rule == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(rule)) {
			return true
		}
	}
	return false
}

// NormalizeJID turns a bare phone number into a user JID and drops any
// device suffix, so "123:7@s.whatsapp.net" and "123" compare equal.
func NormalizeJID(jid string) string {
	jid = strings.TrimSpace(jid)
	if jid == "" {
		return jid
	}
	user, server, found := strings.Cut(jid, "@")
	if !found {
		server = "s.whatsapp.net"
	}
	if i := strings.IndexByte(user, ':'); i >= 0 {
		user = user[:i]
	}
	user = strings.TrimPrefix(user, "+")
	return user + "@" + server
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		item := strings.TrimSpace(p)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
