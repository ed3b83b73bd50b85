package utils

import "github.com/microcosm-cc/bluemonday"

// ugcPolicy allows the formatting tags common in user posts and responses
// while stripping scripts and event handlers.
var ugcPolicy = bluemonday.UGCPolicy()

// Sanitize strips unsafe HTML from user-supplied text.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}
