package config

// PromptsConfig overrides the built-in prompt templates and shapes responses.
type PromptsConfig struct {
	// ReplyTemplate replaces the reply instruction template. It must use
	// {{.subject}}, {{.content}} and {{.tone}}.
	ReplyTemplate string `yaml:"reply_template"`

	// SummaryTemplate replaces the summary instruction template. It must use
	// {{.subject}}, {{.content}} and {{.style}}.
	SummaryTemplate string `yaml:"summary_template"`

	// ResponseFormatting configures how responses should be formatted
	ResponseFormatting ResponseFormattingConfig `yaml:"response_formatting"`
}

// ResponseFormattingConfig defines response formatting options. Both are
// off by default so the model text is returned unchanged.
type ResponseFormattingConfig struct {
	// TrimWhitespace removes leading and trailing whitespace from responses
	TrimWhitespace bool `yaml:"trim_whitespace"`

	// MaxLength limits the response length in bytes (0 means unlimited)
	MaxLength int `yaml:"max_length"`
}
