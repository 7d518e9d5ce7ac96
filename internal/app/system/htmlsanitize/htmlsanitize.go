// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize strips dangerous markup from admin-authored rich
// text before it is stored. Communications and articles both accept HTML
// from the editor; everything passes through Sanitize on the way in so the
// stored body is safe to embed in emails and API responses.
package htmlsanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	policy *bluemonday.Policy
)

// ugcPolicy returns the shared sanitizer policy. bluemonday policies are
// safe for concurrent use once built.
func ugcPolicy() *bluemonday.Policy {
	once.Do(func() {
		p := bluemonday.UGCPolicy()
		// Email clients need inline images; allow https sources only.
		p.AllowImages()
		p.RequireNoFollowOnLinks(true)
		policy = p
	})
	return policy
}

// Sanitize returns s with scripts, event handlers, and other unsafe markup
// removed. Safe formatting tags, links, and images survive.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugcPolicy().Sanitize(s)
}
