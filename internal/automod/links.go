package automod

import (
	"regexp"
	"strings"
)

var (
	urlPattern    = regexp.MustCompile(`(?i)\bhttps?://([a-z0-9][a-z0-9.-]*)`)
	invitePattern = regexp.MustCompile(`(?i)\b(?:discord\.gg|discord\.com/invite)/[a-z0-9-]+`)
)

// blockedDomain returns the first linked domain in content that is not on the
// allow-list, or "" when the message carries no blockable link. Invite links
// are always treated as links regardless of scheme.
func blockedDomain(content string, allowedDomains []string) string {
	for _, match := range urlPattern.FindAllStringSubmatch(content, -1) {
		domain := strings.ToLower(strings.TrimSuffix(match[1], "."))
		if !domainAllowed(domain, allowedDomains) {
			return domain
		}
	}
	if invitePattern.MatchString(content) && !domainAllowed("discord.gg", allowedDomains) {
		return "discord.gg"
	}
	return ""
}

func domainAllowed(domain string, allowed []string) bool {
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if domain == a || strings.HasSuffix(domain, "."+a) {
			return true
		}
	}
	return false
}
