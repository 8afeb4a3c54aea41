// Package knowledge хранит статическую базу знаний о BitID.
// Из неё строятся и экраны меню "About", и системная инструкция ассистента.
package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed bitid.yaml
var bitidYAML []byte

// Topic раздел базы знаний
type Topic struct {
	ID      string   `yaml:"id"`      // callback-идентификатор кнопки
	Button  string   `yaml:"button"`  // подпись кнопки
	Title   string   `yaml:"title"`   // заголовок экрана
	Heading string   `yaml:"heading"` // заголовок в системной инструкции
	Points  []string `yaml:"points"`
}

// Base база знаний целиком
type Base struct {
	Topics   []Topic `yaml:"topics"`
	UseCases []Topic `yaml:"use_cases"`
}

// Load разбирает встроенную базу знаний.
func Load() (*Base, error) {
	return Parse(bitidYAML)
}

// Parse разбирает базу знаний из YAML.
func Parse(data []byte) (*Base, error) {
	var b Base
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	if len(b.Topics) == 0 {
		return nil, errors.New("knowledge base has no topics")
	}

	seen := make(map[string]struct{})
	for _, t := range b.all() {
		if t.ID == "" {
			return nil, errors.New("knowledge base topic without id")
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("duplicate knowledge base topic %q", t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	return &b, nil
}

// Lookup ищет раздел или сценарий по идентификатору.
func (b *Base) Lookup(id string) (Topic, bool) {
	for _, t := range b.all() {
		if t.ID == id {
			return t, true
		}
	}
	return Topic{}, false
}

// IsUseCase сообщает, относится ли идентификатор к сценариям использования.
func (b *Base) IsUseCase(id string) bool {
	for _, t := range b.UseCases {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Render текст экрана раздела для пользователя.
func (t Topic) Render() string {
	var sb strings.Builder
	sb.WriteString(t.Title)
	for _, p := range t.Points {
		sb.WriteString("\n\n• ")
		sb.WriteString(p)
	}
	return sb.String()
}

// PromptText база знаний в виде текста для системной инструкции.
func (b *Base) PromptText() string {
	var sb strings.Builder
	for i, t := range b.Topics {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		writeSection(&sb, t.Heading, t.Points)
	}

	if len(b.UseCases) > 0 {
		sb.WriteString("\n\nUSE CASES:")
		for _, uc := range b.UseCases {
			sb.WriteString("\n\n")
			writeSection(&sb, uc.Heading, uc.Points)
		}
	}

	return sb.String()
}

func (b *Base) all() []Topic {
	all := make([]Topic, 0, len(b.Topics)+len(b.UseCases))
	all = append(all, b.Topics...)
	return append(all, b.UseCases...)
}

func writeSection(sb *strings.Builder, heading string, points []string) {
	sb.WriteString(heading)
	sb.WriteString(":")
	for _, p := range points {
		sb.WriteString("\n- ")
		sb.WriteString(p)
	}
}
