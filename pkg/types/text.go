package types

import "strings"

// Citation renderers, one per kind. Each joins the present parts with
// ", " and ends with a period.

func (e *Entry) text(name string) string {
	v, ok := e.Bib[name]
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case AuthorList:
		return x.Show()
	case Month:
		return x.Show()
	}
	return formatValue(v)
}

func cite(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ") + "."
}

func opt(e *Entry, name string, f func(string) string) string {
	if s := e.text(name); s != "" {
		return f(s)
	}
	return ""
}

func citeArticle(e *Entry, st textStyle) string {
	vn := ""
	switch {
	case e.Has("volume") && e.Has("number"):
		vn = st.bf(e.text("volume")) + "(" + e.text("number") + ")"
	case e.Has("volume"):
		vn = st.bf(e.text("volume"))
	case e.Has("number"):
		vn = st.bf(e.text("number"))
	}
	return cite(e.text("author"), e.text("title"), opt(e, "journal", st.it), vn, e.text("pages"), e.date())
}

func citeBook(e *Entry, st textStyle) string {
	edition := opt(e, "edition", func(s string) string { return s + " ed." })
	return cite(e.text("author"), opt(e, "title", st.it), edition, e.text("publisher"), e.text("address"), e.date())
}

func citeConference(e *Entry, st textStyle) string {
	return cite(e.text("author"), e.text("title"), opt(e, "booktitle", st.it), e.text("series"),
		e.text("publisher"), e.text("address"), opt(e, "pages", func(s string) string { return "pp. " + s }), e.date())
}

func citeManual(e *Entry, st textStyle) string {
	return cite(e.text("author"), opt(e, "title", st.it), e.text("organization"), e.text("address"), e.date())
}

func citeThesis(label string) func(*Entry, textStyle) string {
	return func(e *Entry, st textStyle) string {
		return cite(e.text("author"), opt(e, "title", st.it), label, e.text("school"), e.text("address"), e.date())
	}
}

func citeMisc(e *Entry, st textStyle) string {
	return cite(e.text("author"), opt(e, "title", st.it), e.text("howpublished"), e.date(), e.text("note"))
}

func citeReport(e *Entry, st textStyle) string {
	number := opt(e, "number", func(s string) string { return "Tech. Rep. " + st.bf(s) })
	return cite(e.text("author"), opt(e, "title", st.it), e.text("institution"), number, e.date())
}

func citePatent(e *Entry, st textStyle) string {
	pat := "Pat. " + st.bf(e.text("number"))
	if e.Has("nationality") {
		pat = e.text("nationality") + " " + pat
	}
	return cite(e.text("author"), opt(e, "title", st.it), pat, e.date())
}

func citeWebsite(e *Entry, st textStyle) string {
	accessed := ""
	if d := e.date(); d != "" {
		accessed = "accessed: " + d
	}
	return cite(e.text("author"), opt(e, "title", st.it), e.text("institution"), st.bf(e.text("url")), accessed)
}
