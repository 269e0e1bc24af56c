package config

import (
	"sync/atomic"
)

// Holder owns the active bot configuration. Readers take the current
// pointer; Reload swaps in a freshly parsed value.
type Holder struct {
	path    string
	current atomic.Pointer[Bot]
	initial *LoadResult
}

// NewHolder loads the bot configuration file at path
func NewHolder(path string) (*Holder, error) {
	res, err := LoadBot(path)
	if err != nil {
		return nil, err
	}
	h := &Holder{path: path, initial: res}
	h.current.Store(res.Bot)
	return h, nil
}

// NewStaticHolder wraps an already built configuration. Reload is a no-op on it.
func NewStaticHolder(bot *Bot) *Holder {
	warnings, notes := bot.Check()
	h := &Holder{initial: &LoadResult{Bot: bot, Warnings: warnings, Notes: notes}}
	h.current.Store(bot)
	return h
}

// Current returns the active configuration
func (h *Holder) Current() *Bot {
	return h.current.Load()
}

// Initial returns the findings of the startup load
func (h *Holder) Initial() *LoadResult {
	return h.initial
}

// Path returns the file the configuration is loaded from
func (h *Holder) Path() string {
	return h.path
}

// Reload re-reads the configuration file. On error the active configuration is kept.
func (h *Holder) Reload() (*LoadResult, error) {
	if h.path == "" {
		bot := h.Current()
		warnings, notes := bot.Check()
		return &LoadResult{Bot: bot, Warnings: warnings, Notes: notes}, nil
	}

	res, err := LoadBot(h.path)
	if err != nil {
		return nil, err
	}
	h.current.Store(res.Bot)
	return res, nil
}
