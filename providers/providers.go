// Package providers registers all built-in provider backends.
//
// Import for side effects:
//
//	import _ "github.com/AI-et-al/janus/providers"
package providers

import (
	_ "github.com/AI-et-al/janus/provider/anthropic"
	_ "github.com/AI-et-al/janus/provider/gemini"
	_ "github.com/AI-et-al/janus/provider/openai"
)
