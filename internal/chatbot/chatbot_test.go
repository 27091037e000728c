package chatbot

import (
	"strings"
	"testing"
)

const testKnowledgeBase = `
fallback:
  reply: "Ask sales."
  suggestions: ["Contact us"]
entries:
  - id: quote
    keywords: ["Quote", "price"]
    reply: "Send a quote request."
  - id: plc
    keywords: ["plc"]
    reply: "We stock PLCs."
    suggestions: ["Browse controllers"]
`

func TestRespond(t *testing.T) {
	bot, err := Parse(strings.NewReader(testKnowledgeBase))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		name    string
		message string
		topic   string
		reply   string
	}{
		{name: "keyword", message: "Do you sell PLC racks?", topic: "plc", reply: "We stock PLCs."},
		{name: "case_insensitive_keyword", message: "I need a QUOTE", topic: "quote", reply: "Send a quote request."},
		{name: "first_entry_wins", message: "what is the price of a plc", topic: "quote", reply: "Send a quote request."},
		{name: "substring", message: "prices please", topic: "quote", reply: "Send a quote request."},
		{name: "fallback", message: "tell me a joke", reply: "Ask sales."},
		{name: "blank", message: "   ", reply: "Ask sales."},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp := bot.Respond(test.message)
			if resp.Reply != test.reply {
				t.Fatalf("reply = %q, want %q", resp.Reply, test.reply)
			}
			if resp.Topic != test.topic || resp.Matched != (test.topic != "") {
				t.Fatalf("topic = %q matched = %v, want %q", resp.Topic, resp.Matched, test.topic)
			}
			if resp.Suggestions == nil {
				t.Fatal("suggestions must not be nil")
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "no_fallback", body: "entries: []", want: "no fallback"},
		{name: "no_keywords", body: "fallback: {reply: x}\nentries:\n  - id: a\n    keywords: [\" \"]\n    reply: y", want: "no keywords"},
		{name: "no_reply", body: "fallback: {reply: x}\nentries:\n  - id: a\n    keywords: [a]", want: "no reply"},
		{name: "unknown_field", body: "fallback: {reply: x}\nmood: happy", want: "parse chatbot file"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(test.body))
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Fatalf("Parse() error = %v, want containing %q", err, test.want)
			}
		})
	}
}

func TestLoadEmbeddedKnowledgeBase(t *testing.T) {
	bot, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if resp := bot.Respond("Hello"); !resp.Matched || resp.Topic != "greeting" {
		t.Fatalf("unexpected greeting response: %+v", resp)
	}
	if resp := bot.Respond("zzz"); resp.Matched {
		t.Fatalf("expected fallback, got %+v", resp)
	}
}
