// Package prompt renders the instruction sent to the model for each
// operation and pairs it with the process-wide system guardrail.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/teilomillet/gmail-agent/config"
)

// Placeholder names available to the templates.
const (
	KeySubject = "subject"
	KeyContent = "content"
	KeyTone    = "tone"
	KeyStyle   = "style"
)

// RenderedPrompt is one fully substituted prompt. It is not modified after
// Render returns.
type RenderedPrompt struct {
	System string
	User   string
}

// Renderer holds the parsed templates and the guardrail. It is built once
// at start-up and is safe for concurrent use.
type Renderer struct {
	system  string
	reply   *template.Template
	summary *template.Template
}

// NewRenderer parses the reply and summary templates, falling back to the
// built-in ones when cfg leaves them empty. An empty system uses Guardrail.
// A template that fails to parse, or that does not use every one of its
// placeholders, is rejected here rather than on the first request.
func NewRenderer(system string, cfg config.PromptsConfig) (*Renderer, error) {
	if system == "" {
		system = Guardrail
	}

	reply, err := parse("reply", orDefault(cfg.ReplyTemplate, ReplyTemplate), KeySubject, KeyContent, KeyTone)
	if err != nil {
		return nil, err
	}
	summary, err := parse("summary", orDefault(cfg.SummaryTemplate, SummaryTemplate), KeySubject, KeyContent, KeyStyle)
	if err != nil {
		return nil, err
	}

	return &Renderer{system: system, reply: reply, summary: summary}, nil
}

// System returns the guardrail attached to every prompt.
func (r *Renderer) System() string {
	return r.system
}

// RenderReply renders the reply instruction for the given email and tone.
func (r *Renderer) RenderReply(subject, content, tone string) (RenderedPrompt, error) {
	return r.render(r.reply, map[string]string{
		KeySubject: subject,
		KeyContent: content,
		KeyTone:    tone,
	})
}

// RenderSummary renders the summary instruction for the given email and style.
func (r *Renderer) RenderSummary(subject, content, style string) (RenderedPrompt, error) {
	return r.render(r.summary, map[string]string{
		KeySubject: subject,
		KeyContent: content,
		KeyStyle:   style,
	})
}

func (r *Renderer) render(t *template.Template, params map[string]string) (RenderedPrompt, error) {
	var b strings.Builder
	if err := t.Execute(&b, params); err != nil {
		return RenderedPrompt{}, fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return RenderedPrompt{System: r.system, User: b.String()}, nil
}

func parse(name, text string, keys ...string) (*template.Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", name, err)
	}

	// Execute once with marker values to prove every placeholder is used.
	params := make(map[string]string, len(keys))
	for _, k := range keys {
		params[k] = "\x00" + k + "\x00"
	}
	var b strings.Builder
	if err := t.Execute(&b, params); err != nil {
		return nil, fmt.Errorf("check %s template: %w", name, err)
	}
	for _, k := range keys {
		if !strings.Contains(b.String(), params[k]) {
			return nil, fmt.Errorf("%s template does not use {{.%s}}", name, k)
		}
	}
	return t, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
