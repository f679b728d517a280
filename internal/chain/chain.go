// Package chain implements the Chain Resolver (spec.md §4.5, C5): it
// resolves a chained value from one of five sources (a prior or freshly
// triggered HTTP response, a subprocess, a file, or an interactive
// prompt/select), subject to a trigger policy that decides whether history
// is reused or a new sub-request is launched.
//
// This package depends only on the standard library (os, os/exec, ...)
// plus gjson — never on internal/render, internal/httpengine, or
// internal/store. Those capabilities are supplied through the
// HistoryProvider, RequestSender, and Prompter interfaces below, which the
// render package implements. That keeps the dependency edge one-directional
// (render imports chain, not the reverse), mirroring how the teacher keeps
// internal/session free of internal/web even though the web server drives
// sessions.
package chain

import "time"

// TriggerKind selects how a Request-sourced chain decides between reusing
// history and launching a new sub-request (spec.md §4.5).
type TriggerKind int

const (
	TriggerNever TriggerKind = iota
	TriggerNoHistory
	TriggerExpire
	TriggerAlways
)

// Trigger is a trigger policy; Expire is only meaningful when Kind is
// TriggerExpire.
type Trigger struct {
	Kind   TriggerKind
	Expire time.Duration
}

// SourceKind selects one of the five ChainSource variants (spec.md §3).
type SourceKind int

const (
	SourceRequest SourceKind = iota
	SourceCommand
	SourceFile
	SourcePrompt
	SourceSelect
)

// SectionKind selects which part of a triggered response a Request source
// reads: the whole body, or one response header.
type SectionKind int

const (
	SectionBody SectionKind = iota
	SectionHeader
)

// Source is the tagged union of chain sources. Only the fields relevant to
// Kind are populated; this mirrors ast.Literal's flat-struct-with-kind
// shape rather than five separate Go types, since a Chain is data, not
// behavior.
type Source struct {
	Kind SourceKind

	// SourceRequest
	RecipeID   string
	Section    SectionKind
	HeaderName string // when Section == SectionHeader

	// SourceCommand
	Argv  []string
	Stdin *string

	// SourceFile
	Path string

	// SourcePrompt
	PromptMessage string
	PromptDefault *string

	// SourceSelect
	SelectMessage string
	SelectOptions []string
}

// Chain is one named entry from a collection's `chains:` section.
type Chain struct {
	ID          string
	Source      Source
	Sensitive   bool
	Selector    string // JSONPath/gjson selector; empty means none
	Trigger     Trigger
	ContentType string // parsed from the collection; Resolve does not read it
}
