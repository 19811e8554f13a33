// Package engineer implements the keyword-driven race engineer chat.
package engineer

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed replies.yaml
var defaultReplies []byte

// FallbackTopic names the reply given when no topic matches.
const FallbackTopic = "fallback"

type rule struct {
	Keywords []string `yaml:"keywords"`
	Reply    string   `yaml:"reply"`
}

type topic struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Rules    []rule   `yaml:"rules"`
	Reply    string   `yaml:"reply"`
}

type replies struct {
	Greeting string  `yaml:"greeting"`
	Fallback string  `yaml:"fallback"`
	Topics   []topic `yaml:"topics"`
}

// Engineer answers questions by walking topics in order. Within a topic the
// first matching sub-rule wins, otherwise the topic reply is used.
type Engineer struct {
	r replies
}

// NewDefault returns an engineer loaded with the built-in replies.
func NewDefault() (*Engineer, error) {
	return Parse(defaultReplies)
}

// Parse builds an engineer from YAML reply data.
func Parse(data []byte) (*Engineer, error) {
	var r replies
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse engineer replies: %w", err)
	}
	if r.Fallback == "" {
		return nil, fmt.Errorf("engineer replies need a fallback")
	}
	for _, t := range r.Topics {
		if len(t.Keywords) == 0 {
			return nil, fmt.Errorf("topic %q has no keywords", t.Name)
		}
		if t.Reply == "" {
			return nil, fmt.Errorf("topic %q has no reply", t.Name)
		}
		lower(t.Keywords)
		for _, sub := range t.Rules {
			lower(sub.Keywords)
		}
	}
	return &Engineer{r: r}, nil
}

// Greeting is the message that opens a chat.
func (e *Engineer) Greeting() string {
	return e.r.Greeting
}

// Reply returns the answer for a message.
func (e *Engineer) Reply(message string) string {
	_, reply := e.Answer(message)
	return reply
}

// Answer returns the matched topic name along with the reply.
func (e *Engineer) Answer(message string) (string, string) {
	msg := strings.ToLower(message)
	for _, t := range e.r.Topics {
		if !containsAny(msg, t.Keywords) {
			continue
		}
		for _, sub := range t.Rules {
			if containsAny(msg, sub.Keywords) {
				return t.Name, sub.Reply
			}
		}
		return t.Name, t.Reply
	}
	return FallbackTopic, e.r.Fallback
}

// Topics lists topic names in match order.
func (e *Engineer) Topics() []string {
	names := make([]string, 0, len(e.r.Topics))
	for _, t := range e.r.Topics {
		names = append(names, t.Name)
	}
	return names
}

func containsAny(msg string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(msg, k) {
			return true
		}
	}
	return false
}

func lower(words []string) {
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
}
