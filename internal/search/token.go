// Package search implements the smart search over tasks: a whitespace
// tokenizer for the query language and a predicate builder that combines
// the query with structured filters.
//
// Query grammar, one token per whitespace-separated word:
//
//	#<tag>               task carries tag (case-sensitive)
//	lista:<name-or-id>   task belongs to the list
//	prioridade:<level>   task has the priority (baixa, media, alta, urgente or English names)
//	hoje                 due today
//	atrasadas            due before today and still pending
//	semana               due from today through the next 7 days
//	pendentes            pending tasks
//	concluidas           completed tasks
//	anything else        case-insensitive substring of title or description
//
// A prioridade: token with an unknown level is not an error: it degrades to
// a text token matching the raw word, so "prioridade:xyz" only matches tasks
// whose title or description contains "prioridade:xyz".
package search

import (
	"strings"

	"produtivo/internal/core"
)

// Kind classifies a query token.
type Kind int

const (
	KindText Kind = iota
	KindTag
	KindList
	KindPriority
	KindDateBucket
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindTag:
		return "tag"
	case KindList:
		return "list"
	case KindPriority:
		return "priority"
	case KindDateBucket:
		return "date"
	case KindStatus:
		return "status"
	default:
		return "text"
	}
}

// Date buckets.
const (
	BucketToday   = "hoje"
	BucketOverdue = "atrasadas"
	BucketWeek    = "semana"
)

const (
	prefixTag      = "#"
	prefixList     = "lista:"
	prefixPriority = "prioridade:"
)

var statusKeywords = map[string]core.TaskStatus{
	"pendentes":  core.StatusPending,
	"concluidas": core.StatusCompleted,
	"concluídas": core.StatusCompleted,
}

// Token is one classified word of a query. Value is normalized for the
// token's kind; Raw is the word as typed.
type Token struct {
	Kind  Kind
	Value string
	Raw   string
}

// Tokenize splits query on whitespace and classifies each word.
func Tokenize(query string) []Token {
	fields := strings.Fields(query)
	tokens := make([]Token, 0, len(fields))
	for _, raw := range fields {
		tokens = append(tokens, classify(raw))
	}
	return tokens
}

func classify(raw string) Token {
	lower := strings.ToLower(raw)

	switch {
	case strings.HasPrefix(raw, prefixTag) && len(raw) > len(prefixTag):
		return Token{Kind: KindTag, Value: raw[len(prefixTag):], Raw: raw}
	case strings.HasPrefix(lower, prefixList) && len(raw) > len(prefixList):
		return Token{Kind: KindList, Value: raw[len(prefixList):], Raw: raw}
	case strings.HasPrefix(lower, prefixPriority):
		if p, ok := core.ParsePriority(raw[len(prefixPriority):]); ok {
			return Token{Kind: KindPriority, Value: string(p), Raw: raw}
		}
		return textToken(raw)
	}

	switch lower {
	case BucketToday, BucketOverdue, BucketWeek:
		return Token{Kind: KindDateBucket, Value: lower, Raw: raw}
	}
	if st, ok := statusKeywords[lower]; ok {
		return Token{Kind: KindStatus, Value: string(st), Raw: raw}
	}
	return textToken(raw)
}

func textToken(raw string) Token {
	return Token{Kind: KindText, Value: strings.ToLower(raw), Raw: raw}
}
