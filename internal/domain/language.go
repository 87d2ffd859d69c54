package domain

import "time"

// LanguageProfile describes how one language is compiled and run inside the
// sandbox. Profiles are immutable and loaded at startup.
type LanguageProfile struct {
	ID         string
	Image      string
	FileExt    string
	FileName   string
	RunCommand string
	Timeout    time.Duration
}
