package search

import (
	"strings"
	"time"

	"produtivo/internal/core"
)

// weekSpan is how many days past today the "semana" bucket reaches.
const weekSpan = 7

// Predicate selects tasks.
type Predicate func(core.Task) bool

// Options carries the context predicates are evaluated in.
type Options struct {
	// Now anchors the date buckets. Defaults to time.Now().
	Now time.Time
	// Location decides which calendar day Now falls on. Defaults to time.Local.
	Location *time.Location
	// Lists resolves lista: tokens given by name.
	Lists []core.TaskList
}

func (o Options) today() core.Date {
	now := o.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := o.Location
	if loc == nil {
		loc = time.Local
	}
	return core.DateOf(now, loc)
}

// Filter holds the structured criteria given outside the query. Values in
// one field are alternatives; fields combine with AND.
type Filter struct {
	Statuses   []core.TaskStatus
	Priorities []core.Priority
	ListIDs    []string
	Tags       []string
	DueFrom    *core.Date
	DueTo      *core.Date
}

// IsZero reports whether the filter has no criteria.
func (f Filter) IsZero() bool {
	return len(f.Statuses) == 0 && len(f.Priorities) == 0 && len(f.ListIDs) == 0 &&
		len(f.Tags) == 0 && f.DueFrom == nil && f.DueTo == nil
}

// Apply returns the tasks matching both query and filter, in source order.
// An empty query with a zero filter returns tasks itself.
func Apply(tasks []core.Task, query string, filter Filter, opts Options) []core.Task {
	tokens := Tokenize(query)
	if len(tokens) == 0 && filter.IsZero() {
		return tasks
	}

	preds := append(Build(tokens, opts), filter.Predicates()...)
	out := make([]core.Task, 0, len(tasks))
	for _, t := range tasks {
		if matchAll(preds, t) {
			out = append(out, t)
		}
	}
	return out
}

func matchAll(preds []Predicate, t core.Task) bool {
	for _, p := range preds {
		if !p(t) {
			return false
		}
	}
	return true
}

// Build turns tokens into predicates, one per token.
func Build(tokens []Token, opts Options) []Predicate {
	today := opts.today()
	preds := make([]Predicate, 0, len(tokens))
	for _, tok := range tokens {
		preds = append(preds, predicateFor(tok, today, opts.Lists))
	}
	return preds
}

func predicateFor(tok Token, today core.Date, lists []core.TaskList) Predicate {
	switch tok.Kind {
	case KindTag:
		tag := tok.Value
		return func(t core.Task) bool { return t.HasTag(tag) }
	case KindList:
		ids := resolveList(tok.Value, lists)
		return func(t core.Task) bool { return t.ListID != "" && ids[t.ListID] }
	case KindPriority:
		p := core.Priority(tok.Value)
		return func(t core.Task) bool { return t.Priority == p }
	case KindStatus:
		st := core.TaskStatus(tok.Value)
		return func(t core.Task) bool { return t.Status == st }
	case KindDateBucket:
		return bucketPredicate(tok.Value, today)
	default:
		needle := tok.Value
		return func(t core.Task) bool { return containsText(t, needle) }
	}
}

// resolveList maps a lista: value to the matching list ids: the value
// itself, plus every list whose name equals it ignoring case.
func resolveList(value string, lists []core.TaskList) map[string]bool {
	ids := map[string]bool{value: true}
	for _, l := range lists {
		if strings.EqualFold(l.Name, value) {
			ids[l.ID] = true
		}
	}
	return ids
}

func bucketPredicate(bucket string, today core.Date) Predicate {
	switch bucket {
	case BucketToday:
		return func(t core.Task) bool {
			return t.DueDate != nil && t.DueDate.Equal(today)
		}
	case BucketOverdue:
		return func(t core.Task) bool {
			return t.DueDate != nil && t.DueDate.Before(today) && t.Status == core.StatusPending
		}
	case BucketWeek:
		end := today.AddDays(weekSpan)
		return func(t core.Task) bool {
			return t.DueDate != nil && !t.DueDate.Before(today) && !t.DueDate.After(end)
		}
	}
	return func(core.Task) bool { return false }
}

func containsText(t core.Task, needle string) bool {
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle)
}

// Predicates converts the filter into predicates, one per non-empty field.
func (f Filter) Predicates() []Predicate {
	var preds []Predicate
	if len(f.Statuses) > 0 {
		set := toSet(f.Statuses)
		preds = append(preds, func(t core.Task) bool { return set[t.Status] })
	}
	if len(f.Priorities) > 0 {
		set := toSet(f.Priorities)
		preds = append(preds, func(t core.Task) bool { return set[t.Priority] })
	}
	if len(f.ListIDs) > 0 {
		set := toSet(f.ListIDs)
		preds = append(preds, func(t core.Task) bool { return set[t.ListID] })
	}
	if len(f.Tags) > 0 {
		tags := f.Tags
		preds = append(preds, func(t core.Task) bool {
			for _, tag := range tags {
				if t.HasTag(tag) {
					return true
				}
			}
			return false
		})
	}
	if f.DueFrom != nil || f.DueTo != nil {
		from, to := f.DueFrom, f.DueTo
		preds = append(preds, func(t core.Task) bool {
			if t.DueDate == nil {
				return false
			}
			if from != nil && t.DueDate.Before(*from) {
				return false
			}
			if to != nil && t.DueDate.After(*to) {
				return false
			}
			return true
		})
	}
	return preds
}

func toSet[T comparable](values []T) map[T]bool {
	set := make(map[T]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
