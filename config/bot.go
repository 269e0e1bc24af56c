package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/haecker-felix/hebbot/pkg/emoji"
)

// Bot is the bot configuration file: rooms, editors, emoji bindings,
// sections and projects. A loaded Bot is never mutated; reloading
// produces a new value (see Holder).
type Bot struct {
	BotUserID            string    `yaml:"bot_user_id" validate:"required,startswith=@,contains=:"`
	ReportingRoomID      string    `yaml:"reporting_room_id" validate:"required"`
	AdminRoomID          string    `yaml:"admin_room_id" validate:"required,nefield=ReportingRoomID"`
	AddressTokens        []string  `yaml:"address_tokens,omitempty" validate:"dive,required"`
	RestrictNotice       bool      `yaml:"restrict_notice"`
	MinLength            int       `yaml:"min_length" validate:"gte=0"`
	AckText              string    `yaml:"ack_text,omitempty"`
	UpdateConfigCommand  string    `yaml:"update_config_command,omitempty"`
	PublishCommand       string    `yaml:"publish_command,omitempty"`
	UncategorizedSection string    `yaml:"uncategorized_section,omitempty"`
	ThirdPartySection    string    `yaml:"third_party_section,omitempty"`
	Verbs                []string  `yaml:"verbs" validate:"required,min=1,dive,required"`
	Editors              []string  `yaml:"editors" validate:"dive,startswith=@"`
	Reactions            Reactions `yaml:"reactions"`
	Sections             []Section `yaml:"sections" validate:"dive"`
	Projects             []Project `yaml:"projects" validate:"dive"`
}

// Reactions binds emoji to the actions that are not section or project assignments
type Reactions struct {
	Approve    []string `yaml:"approve"`
	ThirdParty []string `yaml:"third_party,omitempty"`
	Media      []string `yaml:"media,omitempty"`
}

// Section is a top-level grouping of the rendered report
type Section struct {
	Key            string   `yaml:"key" validate:"required"`
	Emoji          string   `yaml:"emoji"`
	Title          string   `yaml:"title" validate:"required"`
	Projects       []string `yaml:"projects,omitempty"`
	UsualReporters []string `yaml:"usual_reporters,omitempty"`
}

// Project is a named entity nested under its owning section
type Project struct {
	Key            string   `yaml:"key" validate:"required"`
	Emoji          string   `yaml:"emoji"`
	Title          string   `yaml:"title" validate:"required"`
	Website        string   `yaml:"website,omitempty" validate:"omitempty,url"`
	Description    string   `yaml:"description,omitempty"`
	Section        string   `yaml:"section"`
	UsualReporters []string `yaml:"usual_reporters,omitempty"`
}

// LoadResult is a parsed bot configuration plus the non-fatal findings about it
type LoadResult struct {
	Bot      *Bot
	Warnings []string
	Notes    []string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadBot reads and validates the bot configuration file at path
func LoadBot(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bot config %s: %w", path, err)
	}
	defer f.Close()

	return ParseBot(f)
}

// ParseBot parses and validates a bot configuration document
func ParseBot(r io.Reader) (*LoadResult, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var bot Bot
	if err := dec.Decode(&bot); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("bot config is empty")
		}
		return nil, fmt.Errorf("decode bot config: %w", err)
	}

	if err := validate.Struct(&bot); err != nil {
		return nil, fmt.Errorf("invalid bot config: %w", err)
	}

	warnings, notes := bot.Check()

	return &LoadResult{Bot: &bot, Warnings: warnings, Notes: notes}, nil
}

// Check reports configuration problems that do not prevent the bot from running
func (b *Bot) Check() (warnings []string, notes []string) {
	if len(b.Reactions.Approve) == 0 {
		warnings = append(warnings, "No approval emoji is configured, news entries can never be approved.")
	}

	if len(b.Editors) == 0 {
		warnings = append(warnings, "No editor is specified, the bot cannot be used without an editor.")
	}

	if len(b.Sections) == 0 {
		notes = append(notes, "No sections are configured in the configuration file.")
	}

	if len(b.Projects) == 0 {
		warnings = append(warnings, "No projects are configured in the configuration file.")
	}

	for _, s := range b.Sections {
		if s.Emoji == "" {
			warnings = append(warnings, fmt.Sprintf("Section “%s” doesn’t have an emoji, it can only be used through its projects.", s.Key))
		}
		for _, p := range s.Projects {
			if _, ok := b.ProjectByKey(p); !ok {
				warnings = append(warnings, fmt.Sprintf("Section “%s” lists the unknown project “%s”.", s.Key, p))
			}
		}
	}

	for _, p := range b.Projects {
		if p.Emoji == "" {
			warnings = append(warnings, fmt.Sprintf("Project “%s” doesn’t have an emoji, this can lead to undefined behavior.", p.Key))
		}
		if p.Section == "" {
			warnings = append(warnings, fmt.Sprintf("Project “%s” doesn’t have a section, this can lead to undefined behavior.", p.Key))
			continue
		}
		if _, ok := b.SectionByKey(p.Section); !ok {
			warnings = append(warnings, fmt.Sprintf("Project “%s” has an unknown section “%s”, this can lead to undefined behavior.", p.Key, p.Section))
		}
	}

	for _, key := range []string{b.UncategorizedSection, b.ThirdPartySection} {
		if key == "" {
			continue
		}
		if _, ok := b.SectionByKey(key); !ok {
			warnings = append(warnings, fmt.Sprintf("The fallback section “%s” is not configured.", key))
		}
	}

	if dups := duplicates(b.allEmoji()); len(dups) > 0 {
		warnings = append(warnings, fmt.Sprintf("At least one emoji is duplicated, this can lead to undefined behavior: %s", strings.Join(dups, ", ")))
	}

	names := make([]string, 0, len(b.Sections)+len(b.Projects))
	for _, s := range b.Sections {
		names = append(names, s.Key)
	}
	for _, p := range b.Projects {
		names = append(names, p.Key)
	}
	if dups := duplicates(names); len(dups) > 0 {
		warnings = append(warnings, fmt.Sprintf("At least one name is duplicated, this can lead to undefined behavior: %s", strings.Join(dups, ", ")))
	}

	return warnings, notes
}

func (b *Bot) allEmoji() []string {
	var all []string
	for _, group := range [][]string{b.Reactions.Approve, b.Reactions.ThirdParty, b.Reactions.Media} {
		for _, e := range group {
			all = append(all, emoji.Normalize(e))
		}
	}
	for _, s := range b.Sections {
		if s.Emoji != "" {
			all = append(all, emoji.Normalize(s.Emoji))
		}
	}
	for _, p := range b.Projects {
		if p.Emoji != "" {
			all = append(all, emoji.Normalize(p.Emoji))
		}
	}
	return all
}

func duplicates(values []string) []string {
	seen := make(map[string]int, len(values))
	for _, v := range values {
		seen[v]++
	}
	var dups []string
	for v, n := range seen {
		if n > 1 {
			dups = append(dups, v)
		}
	}
	sort.Strings(dups)
	return dups
}

// IsEditor reports whether userID may classify news and run commands
func (b *Bot) IsEditor(userID string) bool {
	return slices.Contains(b.Editors, userID)
}

// SectionByKey looks up a section by its key
func (b *Bot) SectionByKey(key string) (Section, bool) {
	for _, s := range b.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// ProjectByKey looks up a project by its key
func (b *Bot) ProjectByKey(key string) (Project, bool) {
	for _, p := range b.Projects {
		if p.Key == key {
			return p, true
		}
	}
	return Project{}, false
}

// SectionByEmoji looks up a section by its emoji
func (b *Bot) SectionByEmoji(key string) (Section, bool) {
	for _, s := range b.Sections {
		if s.Emoji != "" && emoji.Equal(s.Emoji, key) {
			return s, true
		}
	}
	return Section{}, false
}

// ProjectByEmoji looks up a project by its emoji
func (b *Bot) ProjectByEmoji(key string) (Project, bool) {
	for _, p := range b.Projects {
		if p.Emoji != "" && emoji.Equal(p.Emoji, key) {
			return p, true
		}
	}
	return Project{}, false
}

// SectionProjects returns the keys of the projects that may be rendered in
// the section: those it lists explicitly followed by those owned by it.
func (b *Bot) SectionProjects(sectionKey string) []string {
	var keys []string
	if s, ok := b.SectionByKey(sectionKey); ok {
		keys = append(keys, s.Projects...)
	}
	for _, p := range b.Projects {
		if p.Section == sectionKey && !slices.Contains(keys, p.Key) {
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// ProjectInSection reports whether a project belongs to the section's project set
func (b *Bot) ProjectInSection(projectKey, sectionKey string) bool {
	return slices.Contains(b.SectionProjects(sectionKey), projectKey)
}

// ProjectSection returns the owning section of a project
func (b *Bot) ProjectSection(projectKey string) string {
	if p, ok := b.ProjectByKey(projectKey); ok {
		return p.Section
	}
	return ""
}

// SectionsByUsualReporter returns the sections the user usually reports for
func (b *Bot) SectionsByUsualReporter(userID string) []Section {
	var sections []Section
	for _, s := range b.Sections {
		if slices.Contains(s.UsualReporters, userID) {
			sections = append(sections, s)
		}
	}
	return sections
}

// SortedSections returns the sections ordered by key
func (b *Bot) SortedSections() []Section {
	sections := slices.Clone(b.Sections)
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Key < sections[j].Key })
	return sections
}

// YAML renders the configuration the way it is written on disk
func (b *Bot) YAML() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return "", fmt.Errorf("encode bot config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode bot config: %w", err)
	}
	return buf.String(), nil
}
