// Package goquery implements syopub.Scraper on top of goquery. All
// extraction is pure: it reads parsed documents and strings and never
// touches the network, so it can be tested against static fixtures.
package goquery

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/syopub"
)

var _ syopub.Scraper = (*Scraper)(nil)

// Scraper recovers tokens, form actions and redirect ids.
type Scraper struct{}

// NewScraper creates a new Scraper.
func NewScraper() *Scraper {
	return &Scraper{}
}

// InputValue returns the value of the input element named name.
func (s *Scraper) InputValue(html []byte, name string) (string, error) {
	doc, err := parse(html)
	if err != nil {
		return "", err
	}
	return InputValue(doc, name)
}

// FormAction returns the action of the form element with the given id.
func (s *Scraper) FormAction(html []byte, formID string) (string, error) {
	doc, err := parse(html)
	if err != nil {
		return "", err
	}
	return FormAction(doc, formID)
}

// Capture returns the first capture group of pattern in target.
func (s *Scraper) Capture(target string, pattern *regexp.Regexp) (string, error) {
	return Capture(target, pattern)
}

func parse(html []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, syopub.Errorf(syopub.ECONTRACT, "failed to parse HTML: %v", err)
	}
	return doc, nil
}

// InputValue returns the value attribute of the first input[name=name] in
// doc. A missing element or an empty value is ECONTRACT.
func InputValue(doc *goquery.Document, name string) (string, error) {
	sel := doc.Find("input").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("name", "") == name
	}).First()
	if sel.Length() == 0 {
		return "", syopub.Errorf(syopub.ECONTRACT, "input %q not found", name)
	}
	value, ok := sel.Attr("value")
	if !ok || value == "" {
		return "", syopub.Errorf(syopub.ECONTRACT, "input %q has no value", name)
	}
	return value, nil
}

// FormAction returns the action attribute of form#formID in doc.
// A missing form or an empty action is ECONTRACT.
func FormAction(doc *goquery.Document, formID string) (string, error) {
	sel := doc.Find("form").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("id", "") == formID
	}).First()
	if sel.Length() == 0 {
		return "", syopub.Errorf(syopub.ECONTRACT, "form %q not found", formID)
	}
	action, ok := sel.Attr("action")
	if !ok || strings.TrimSpace(action) == "" {
		return "", syopub.Errorf(syopub.ECONTRACT, "form %q has no action", formID)
	}
	return strings.TrimSpace(action), nil
}

// Capture matches pattern against target and returns the first capture
// group. No match, or a pattern without a group, is ECONTRACT.
func Capture(target string, pattern *regexp.Regexp) (string, error) {
	groups := pattern.FindStringSubmatch(target)
	if groups == nil {
		return "", syopub.Errorf(syopub.ECONTRACT, "%q does not match %s", target, pattern)
	}
	if len(groups) < 2 || groups[1] == "" {
		return "", syopub.Errorf(syopub.ECONTRACT, "no capture group in %s for %q", pattern, target)
	}
	return groups[1], nil
}
