// Package chatbot answers visitor questions from an embedded knowledge base.
package chatbot

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codr1/plantfloor/assets"
)

// MaxMessageLength bounds the visitor message that is matched.
const MaxMessageLength = 1000

type Entry struct {
	ID          string   `yaml:"id"`
	Keywords    []string `yaml:"keywords"`
	Reply       string   `yaml:"reply"`
	Suggestions []string `yaml:"suggestions"`
}

type fallback struct {
	Reply       string   `yaml:"reply"`
	Suggestions []string `yaml:"suggestions"`
}

// Response is what the widget shows. Topic is the matched entry id.
type Response struct {
	Reply       string   `json:"reply"`
	Suggestions []string `json:"suggestions"`
	Matched     bool     `json:"matched"`
	Topic       string   `json:"topic,omitempty"`
}

// Bot matches messages against entries in file order.
type Bot struct {
	entries  []Entry
	fallback fallback
}

type knowledgeBase struct {
	Fallback fallback `yaml:"fallback"`
	Entries  []Entry  `yaml:"entries"`
}

// Load reads the embedded knowledge base.
func Load() (*Bot, error) {
	file, err := assets.ContentFS.Open(assets.ChatbotPath)
	if err != nil {
		return nil, fmt.Errorf("open embedded chatbot file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse decodes a knowledge base. Keywords are lowercased and entries without
// keywords or a reply are rejected.
func Parse(r io.Reader) (*Bot, error) {
	var kb knowledgeBase
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&kb); err != nil {
		return nil, fmt.Errorf("parse chatbot file: %w", err)
	}
	if strings.TrimSpace(kb.Fallback.Reply) == "" {
		return nil, fmt.Errorf("chatbot file has no fallback reply")
	}

	for i := range kb.Entries {
		entry := &kb.Entries[i]
		if strings.TrimSpace(entry.Reply) == "" {
			return nil, fmt.Errorf("chatbot entry %d has no reply", i+1)
		}
		keywords := entry.Keywords[:0]
		for _, keyword := range entry.Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword != "" {
				keywords = append(keywords, keyword)
			}
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("chatbot entry %d has no keywords", i+1)
		}
		entry.Keywords = keywords
	}

	return &Bot{entries: kb.Entries, fallback: kb.Fallback}, nil
}

// Respond returns the reply of the first entry with a keyword contained in the
// lowercased message, or the fallback reply.
func (b *Bot) Respond(message string) Response {
	text := strings.ToLower(strings.TrimSpace(message))
	if len(text) > MaxMessageLength {
		text = text[:MaxMessageLength]
	}

	if text != "" {
		for _, entry := range b.entries {
			for _, keyword := range entry.Keywords {
				if strings.Contains(text, keyword) {
					return Response{
						Reply:       entry.Reply,
						Suggestions: nonNil(entry.Suggestions),
						Matched:     true,
						Topic:       entry.ID,
					}
				}
			}
		}
	}

	return Response{
		Reply:       b.fallback.Reply,
		Suggestions: nonNil(b.fallback.Suggestions),
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
