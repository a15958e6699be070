// Package extractor infers structured player stats from rendered pages.
//
// The stats site is JavaScript-rendered markup with no stable ids or data
// attributes, so nothing here queries by CSS class. The engine instead runs
// heuristic passes over a materialised snapshot: decimals near kill/death
// or rating labels, percentages near win/headshot/clutch/entry labels, bare
// integers routed through a keyword rule table with numeric guards, and an
// uppercase label/value grid fallback. For every field the first value in
// document order wins.
package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Ar7340/CS2-Player-States/models"
)

var (
	reDecimal = regexp.MustCompile(`^\d+\.\d+$`)
	rePercent = regexp.MustCompile(`^\d+%$`)
	reInteger = regexp.MustCompile(`^\d+(?:,\d{3})*$`)
)

// Extraction is the engine's output for one page.
type Extraction struct {
	PlayerName string
	Fields     models.StatFields
}

// Extractor runs the heuristic passes. New binds the default rule table;
// tests may swap in a reduced one.
type Extractor struct {
	rules  []integerRule
	labels []fallbackLabel
}

// New returns an Extractor with the full rule catalog.
func New() *Extractor {
	return &Extractor{rules: integerRules, labels: fallbackLabels}
}

// Extract runs all passes over the snapshot. It returns a NO_DATA_FOUND
// error when not a single stat field was recognised; a resolved player name
// alone never counts as data.
func (e *Extractor) Extract(snap *Snapshot) (*Extraction, error) {
	out := &Extraction{PlayerName: resolveName(snap)}

	body := snap.doc.Find("body *")
	e.decimalPass(body, &out.Fields)
	e.percentagePass(body, &out.Fields)
	e.integerPass(body, &out.Fields)
	e.fallbackPass(body, &out.Fields)

	if out.Fields.Count() == 0 {
		return nil, models.NewScrapeError(models.ErrCodeNoData, "no stat fields recognised on page", nil)
	}
	return out, nil
}

// resolveName finds the display name: the first heading with text, then the
// leading segment of the document title, then "Unknown".
func resolveName(snap *Snapshot) string {
	name := ""
	snap.doc.Find("h1").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if txt := collapseSpace(h.Text()); txt != "" {
			name = txt
			return false
		}
		return true
	})
	if name != "" {
		return name
	}

	for _, sep := range []string{"|", " - "} {
		if head, _, found := strings.Cut(snap.Title, sep); found {
			if txt := strings.TrimSpace(head); txt != "" {
				return txt
			}
		}
	}
	if txt := strings.TrimSpace(snap.Title); txt != "" {
		return txt
	}
	return "Unknown"
}

// decimalPass reads single-decimal leaf nodes ("1.34"). The label lives in
// the siblings of the value's nearest div container.
func (e *Extractor) decimalPass(body *goquery.Selection, f *models.StatFields) {
	body.Each(func(_ int, sel *goquery.Selection) {
		txt, ok := leafText(sel)
		if !ok || !reDecimal.MatchString(txt) {
			return
		}
		v, err := strconv.ParseFloat(txt, 64)
		if err != nil {
			return
		}

		container := sel.Closest("div")
		if container.Length() == 0 {
			return
		}
		label := strings.ToLower(collapseSpace(container.Siblings().Text()))

		switch {
		case strings.Contains(label, "k/d") || strings.Contains(label, "kd"):
			setFloat(&f.KDRatio, v)
		case strings.Contains(label, "rating"):
			setFloat(&f.HLTVRating, v)
		}
	})
}

// percentagePass reads leaf nodes like "54%" and keeps the literal text.
// The label shares the node's parent.
func (e *Extractor) percentagePass(body *goquery.Selection, f *models.StatFields) {
	body.Each(func(_ int, sel *goquery.Selection) {
		txt, ok := leafText(sel)
		if !ok || !rePercent.MatchString(txt) {
			return
		}
		context := strings.ToLower(sel.Parent().Text())

		switch {
		case strings.Contains(context, "win"):
			setString(&f.WinRate, txt)
		case strings.Contains(context, "hs"), strings.Contains(context, "headshot"):
			setString(&f.HeadshotPercent, txt)
		case strings.Contains(context, "clutch"):
			setString(&f.ClutchSuccess, txt)
		case strings.Contains(context, "entry"):
			setString(&f.EntrySuccess, txt)
		}
	})
}

// integerPass routes bare integers through the rule table. Thousands
// separators are stripped before parsing. The first matching rule consumes
// the node even when its field is already set.
func (e *Extractor) integerPass(body *goquery.Selection, f *models.StatFields) {
	body.Each(func(_ int, sel *goquery.Selection) {
		txt, ok := leafText(sel)
		if !ok || !reInteger.MatchString(txt) {
			return
		}
		v, err := strconv.Atoi(strings.ReplaceAll(txt, ",", ""))
		if err != nil {
			return
		}
		context := strings.ToLower(txt + " " + sel.Parent().Text())

		for i := range e.rules {
			if e.rules[i].matches(context, v) {
				setInt(e.rules[i].target(f), v)
				return
			}
		}
	})
}

func (r *integerRule) matches(context string, v int) bool {
	if r.guard != nil && !r.guard(v) {
		return false
	}
	found := false
	for _, kw := range r.keywords {
		if strings.Contains(context, kw) {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for _, ex := range r.exclusions {
		if strings.Contains(context, ex) {
			return false
		}
	}
	return true
}

// fallbackPass covers the label/value grid variant of the page: an element
// whose exact text is an uppercase catalog label, with the value in a
// nearby sibling. It scans the two preceding then the two following sibling
// elements and takes the first integer-valued text, filling only fields the
// earlier passes left unset.
func (e *Extractor) fallbackPass(body *goquery.Selection, f *models.StatFields) {
	for i := range e.labels {
		dst := e.labels[i].target(f)
		if *dst != nil {
			continue
		}
		label := e.labels[i].label

		body.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if strings.TrimSpace(sel.Text()) != label {
				return true
			}
			if v, ok := scanSiblingsForInt(sel); ok {
				setInt(dst, v)
				return false
			}
			return true
		})
	}
}

// scanSiblingsForInt walks prev, prev-1, next, next+1 around the label and
// returns the first sibling whose full text is an integer.
func scanSiblingsForInt(sel *goquery.Selection) (int, bool) {
	prev := sel.PrevAll() // Eq(0) is the nearest preceding sibling
	next := sel.NextAll()

	for _, cand := range []*goquery.Selection{prev.Eq(0), prev.Eq(1), next.Eq(0), next.Eq(1)} {
		txt := strings.TrimSpace(cand.Text())
		if !reInteger.MatchString(txt) {
			continue
		}
		if v, err := strconv.Atoi(strings.ReplaceAll(txt, ",", "")); err == nil {
			return v, true
		}
	}
	return 0, false
}

// leafText returns the trimmed text of elements without child elements.
// Values on the page are always leaves; matching higher up would
// double-count a value through its ancestors.
func leafText(sel *goquery.Selection) (string, bool) {
	if sel.Children().Length() > 0 {
		return "", false
	}
	return strings.TrimSpace(sel.Text()), true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// The set-if-unset helpers make every pass first-match-wins in document
// order.
func setInt(dst **int, v int) {
	if *dst == nil {
		*dst = &v
	}
}

func setFloat(dst **float64, v float64) {
	if *dst == nil {
		*dst = &v
	}
}

func setString(dst **string, v string) {
	if *dst == nil {
		*dst = &v
	}
}
