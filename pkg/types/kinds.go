package types

import (
	"fmt"
	"strconv"
)

// Entry kinds.
const (
	KindArticle    Kind = "article"
	KindBook       Kind = "book"
	KindConference Kind = "conference"
	KindManual     Kind = "manual"
	KindMasters    Kind = "masters"
	KindMisc       Kind = "misc"
	KindPhd        Kind = "phd"
	KindReport     Kind = "report"
	KindPatent     Kind = "patent"
	KindWebsite    Kind = "website"
)

// Shared item rules.
var (
	textRule = Rule{Allowed: []string{ValueTypeText}}

	looseRule = Rule{Allowed: []string{ValueTypeText, ValueTypeInteger}}

	integerRule = Rule{
		Allowed: []string{ValueTypeInteger, ValueTypeText},
		Input: func(v any) (any, error) {
			return toInt(v)
		},
	}

	numberTextRule = Rule{
		Allowed: []string{ValueTypeText, ValueTypeInteger},
		Input: func(v any) (any, error) {
			if n, ok := v.(int); ok {
				return strconv.Itoa(n), nil
			}
			return v, nil
		},
	}

	authorsRule = Rule{
		Allowed: []string{ValueTypeText, ValueTypeList, ValueTypeMapping, ValueTypeAuthors},
		Input: func(v any) (any, error) {
			return ParseAuthors(v)
		},
		Code: func(v any) (any, error) {
			al, err := ParseAuthors(v)
			if err != nil {
				return nil, err
			}
			return al.Code(), nil
		},
		Output: func(v any) (string, error) {
			al, err := ParseAuthors(v)
			if err != nil {
				return "", err
			}
			return al.String(), nil
		},
	}

	monthRule = Rule{
		Allowed: []string{ValueTypeInteger, ValueTypeText, ValueTypeMapping, ValueTypeMonth},
		Input: func(v any) (any, error) {
			return ParseMonth(v)
		},
		Code: func(v any) (any, error) {
			m, err := ParseMonth(v)
			if err != nil {
				return nil, err
			}
			return m.Code(), nil
		},
		Output: func(v any) (string, error) {
			m, err := ParseMonth(v)
			if err != nil {
				return "", err
			}
			return m.String(), nil
		},
	}
)

// fieldRules assigns a rule to every well-known item name. Names missing
// here are plain text.
var fieldRules = map[string]Rule{
	"author":  authorsRule,
	"month":   monthRule,
	"year":    integerRule,
	"volume":  integerRule,
	"day":     integerRule,
	"edition": integerRule,
	"number":  looseRule,
	"pages":   looseRule,
}

// items builds an ordered rule list from item names using fieldRules.
func items(names ...string) []ItemRule {
	out := make([]ItemRule, 0, len(names))
	for _, n := range names {
		r, ok := fieldRules[n]
		if !ok {
			r = textRule
		}
		out = append(out, ItemRule{Name: n, Rule: r})
	}
	return out
}

// override replaces the rule of one item in a list.
func override(rules []ItemRule, name string, r Rule) []ItemRule {
	for i := range rules {
		if rules[i].Name == name {
			rules[i].Rule = r
		}
	}
	return rules
}

func init() {
	register(&Schema{
		Kind:      KindArticle,
		Tag:       "ARTICLE",
		Mandatory: items("author", "title", "journal", "year", "pages"),
		Optional:  override(items("volume", "number"), "number", integerRule),
		Default:   looseRule,
		AnyOf:     [][]string{{"volume", "number"}},
		Cite:      citeArticle,
	})
	register(&Schema{
		Kind:      KindBook,
		Tag:       "BOOK",
		Mandatory: items("author", "title", "publisher", "year", "address"),
		Optional:  items("edition"),
		Default:   looseRule,
		Cite:      citeBook,
	})
	register(&Schema{
		Kind:      KindConference,
		Tag:       "INPROCEEDINGS",
		Mandatory: items("author", "title", "booktitle", "year"),
		Optional:  items("series", "pages", "publisher", "address", "month", "day"),
		Default:   looseRule,
		Cite:      citeConference,
	})
	register(&Schema{
		Kind:      KindManual,
		Tag:       "MANUAL",
		Mandatory: items("title", "organization", "year"),
		Optional:  items("author", "address"),
		Default:   looseRule,
		Cite:      citeManual,
	})
	register(&Schema{
		Kind:      KindMasters,
		Tag:       "MASTERSTHESIS",
		Mandatory: items("author", "title", "school", "year"),
		Optional:  items("address", "month", "day"),
		Default:   looseRule,
		Cite:      citeThesis("Master's thesis"),
	})
	register(&Schema{
		Kind:      KindMisc,
		Tag:       "MISC",
		Mandatory: items("title", "howpublished", "year"),
		Optional:  items("note", "author", "month", "day"),
		Default:   looseRule,
		Cite:      citeMisc,
	})
	register(&Schema{
		Kind:      KindPhd,
		Tag:       "PHDTHESIS",
		Mandatory: items("author", "title", "school", "year"),
		Optional:  items("address", "month", "day"),
		Default:   looseRule,
		Cite:      citeThesis("PhD thesis"),
	})
	register(&Schema{
		Kind:      KindReport,
		Tag:       "TECHREPORT",
		Mandatory: items("author", "title", "year"),
		Optional:  items("number", "institution", "month", "day", "address"),
		Default:   looseRule,
		Cite:      citeReport,
	})
	register(&Schema{
		Kind:      KindPatent,
		Tag:       "MISC",
		Mandatory: override(items("author", "title", "number", "year"), "number", numberTextRule),
		Optional:  items("assignee", "nationality", "month", "day"),
		Default:   looseRule,
		Export:    exportPatent,
		Cite:      citePatent,
	})
	register(&Schema{
		Kind:      KindWebsite,
		Tag:       "MISC",
		Mandatory: items("url"),
		Optional:  items("title", "author", "institution", "month", "day", "year"),
		Default:   looseRule,
		Export:    exportWebsite,
		Cite:      citeWebsite,
	})
}

// exportPatent renders a patent as a misc entry whose howpublished field
// carries the nationality and patent number.
func exportPatent(e *Entry) (*Entry, error) {
	out := NewEntry(e.Name, KindMisc)
	copyItems(out, e, "author", "title", "year", "month")
	how := fmt.Sprintf("Patent %s", formatValue(e.Item("number")))
	if e.Has("nationality") {
		how = fmt.Sprintf("%s %s", formatValue(e.Item("nationality")), how)
	}
	out.SetItem("howpublished", how)
	if e.Has("assignee") {
		out.SetItem("note", fmt.Sprintf("assignee: %s", formatValue(e.Item("assignee"))))
	}
	return out, nil
}

// exportWebsite renders a website as a misc entry that records the URL and
// the access date.
func exportWebsite(e *Entry) (*Entry, error) {
	out := NewEntry(e.Name, KindMisc)
	copyItems(out, e, "title", "author", "year", "month")
	url := formatValue(e.Item("url"))
	if e.Has("institution") {
		out.SetItem("howpublished", fmt.Sprintf("%s, %s", formatValue(e.Item("institution")), url))
	} else {
		out.SetItem("howpublished", url)
	}
	if date := e.date(); date != "" {
		out.SetItem("note", "accessed: "+date)
	}
	return out, nil
}

func copyItems(dst, src *Entry, names ...string) {
	for _, n := range names {
		if src.Has(n) {
			dst.SetItem(n, src.Item(n))
		}
	}
}
