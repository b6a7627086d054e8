// Package regex holds compiled patterns used across Vidarr.
package regex

import "regexp"

// TokenFormat matches a complete service token: exactly 28 characters of
// alphanumerics, underscore or hyphen.
var TokenFormat = regexp.MustCompile(`^[a-zA-Z0-9_-]{28}$`)

// TokenSources are tried in order against page and script bodies. The first
// capture group holds the candidate token.
var TokenSources = []*regexp.Regexp{
	regexp.MustCompile(`"x-service-info":\s*"([a-zA-Z0-9_-]{28})"`),
	regexp.MustCompile(`'x-service-info':\s*'([a-zA-Z0-9_-]{28})'`),
	regexp.MustCompile(`serviceInfo["']?\s*[:=]\s*["']([a-zA-Z0-9_-]{28})["']`),
	regexp.MustCompile(`SERVICE_INFO["']?\s*[:=]\s*["']([a-zA-Z0-9_-]{28})["']`),
	regexp.MustCompile(`xServiceInfo["']?\s*[:=]\s*["']([a-zA-Z0-9_-]{28})["']`),
	regexp.MustCompile(`token["']?\s*[:=]\s*["']([a-zA-Z0-9_-]{28})["']`),
}
