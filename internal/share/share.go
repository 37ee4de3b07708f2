// Package share builds social share links for blog posts.
package share

import (
	"fmt"
	"net/url"
)

// Kind is a share target.
type Kind string

const (
	Facebook Kind = "facebook"
	Twitter  Kind = "twitter"
	LinkedIn Kind = "linkedin"
	Telegram Kind = "telegram"
	WhatsApp Kind = "whatsapp"
)

// Kinds lists the share targets in display order.
var Kinds = []Kind{Facebook, Twitter, LinkedIn, Telegram, WhatsApp}

// EventName is the analytics event recorded when a post is shared via k.
func (k Kind) EventName() string { return "share_" + string(k) }

// Post describes what is being shared.
type Post struct {
	URL         string
	Title       string
	Author      string
	Description string
}

// Link is a rendered share link.
type Link struct {
	Kind Kind
	Href string
}

// Headline is the shared title, crediting the author when known.
func (p Post) Headline() string {
	if p.Author == "" {
		return p.Title
	}
	return fmt.Sprintf("%s by %s", p.Title, p.Author)
}

// URL returns the share URL of p for k.
func URL(k Kind, p Post) string {
	title := p.Headline()
	switch k {
	case Facebook:
		return "https://www.facebook.com/sharer/sharer.php?" + url.Values{
			"u":     {p.URL},
			"quote": {p.Description},
		}.Encode()
	case Twitter:
		return "https://twitter.com/intent/tweet?" + url.Values{
			"url":  {p.URL},
			"text": {title},
		}.Encode()
	case LinkedIn:
		return "https://www.linkedin.com/shareArticle?" + url.Values{
			"mini":    {"true"},
			"url":     {p.URL},
			"title":   {title},
			"summary": {p.Description},
		}.Encode()
	case Telegram:
		return "https://telegram.me/share/url?" + url.Values{
			"url":  {p.URL},
			"text": {title},
		}.Encode()
	case WhatsApp:
		return "https://api.whatsapp.com/send?" + url.Values{
			"text": {title + " " + p.URL},
		}.Encode()
	}
	return ""
}

// Links returns share links for every kind.
func Links(p Post) []Link {
	links := make([]Link, 0, len(Kinds))
	for _, k := range Kinds {
		links = append(links, Link{Kind: k, Href: URL(k, p)})
	}
	return links
}
