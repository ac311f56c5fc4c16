// Package clean strips tweet artifacts (mentions, hashtag markers, retweet
// lines, links and image short-links) from raw record text.
package clean

import (
	"regexp"
	"strings"
)

var (
	mentionPattern  = regexp.MustCompile(`@[a-z0-9]+`)
	retweetPattern  = regexp.MustCompile(`(?m)^[ \t]*rt[ \t].*`)
	urlPattern      = regexp.MustCompile(`https?://\S+`)
	picLinkPattern  = regexp.MustCompile(`pic\.twitter\.com.[a-z0-9]{10}`)
	whitespaceRunes = regexp.MustCompile(`\s+`)
)

// maxPasses bounds the fixed-point loop in Tweet. Every pass after the
// first only deletes text, so the loop ends well before this.
const maxPasses = 8

// Tweet returns the cleaned form of a raw tweet. The substitutions run in
// order: lowercase, drop @mentions, drop '#' and turn '_' into spaces, drop
// lines starting with an "rt" marker, drop http(s) links, drop
// pic.twitter.com short-links.
//
// The chain is repeated until the text stops changing, so Tweet(Tweet(s))
// always equals Tweet(s) even when one removal exposes another pattern
// (for example "@#name").
func Tweet(s string) string {
	cur := pass(s)
	for i := 1; i < maxPasses; i++ {
		next := pass(cur)
		if next == cur {
			break
		}
		cur = next
	}
	return cur
}

func pass(s string) string {
	s = strings.ToLower(s)
	s = mentionPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "#", "")
	s = strings.ReplaceAll(s, "_", " ")
	s = retweetPattern.ReplaceAllString(s, "")
	s = urlPattern.ReplaceAllString(s, "")
	s = picLinkPattern.ReplaceAllString(s, "")
	return s
}

// Trim collapses whitespace runs and trims the ends, for display.
func Trim(s string) string {
	return strings.TrimSpace(whitespaceRunes.ReplaceAllString(s, " "))
}

// All cleans every text in order.
func All(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Tweet(t)
	}
	return out
}
