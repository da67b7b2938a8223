package models

import "strings"

// MsgEmptyInput is shown when no URL was supplied.
const MsgEmptyInput = "Please enter at least one URL."

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URLs lists the brand pages to scrape, processed in order. Required.
	URLs []string `json:"urls" binding:"required"`
}

// Normalize trims every entry and drops blank ones. It returns an
// INVALID_INPUT error when nothing is left to scrape.
func (r *ScrapeRequest) Normalize() error {
	urls := make([]string, 0, len(r.URLs))
	for _, u := range r.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return NewScrapeError(ErrCodeInvalidInput, MsgEmptyInput, nil)
	}
	r.URLs = urls
	return nil
}

// ParseURLList splits multi-line form input into URLs, one per line.
// Lines are trimmed and blank lines dropped rather than attempted as
// empty URLs; URL syntax is not checked.
func ParseURLList(text string) ([]string, error) {
	req := ScrapeRequest{
		URLs: strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }),
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return req.URLs, nil
}
