package assets

import "embed"

const (
	ThemesPath  = "themes.yaml"
	ChatbotPath = "chatbot.yaml"
	SearchPath  = "search.yaml"
	StaticRoot  = "static"
)

// ThemesFS holds the built-in theme catalog.
//
//go:embed themes.yaml
var ThemesFS embed.FS

// ContentFS holds the chatbot knowledge base and the static search index.
//
//go:embed chatbot.yaml search.yaml
var ContentFS embed.FS

// StaticFS holds the files served under /static/.
//
//go:embed static
var StaticFS embed.FS
