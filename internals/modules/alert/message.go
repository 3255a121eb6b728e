package alert

import (
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTemplate  = "Change detected on {url}!"
	FullPageSelector = "Full Page"
	TimeLayout       = "2006-01-02 15:04:05"
)

// Render substitutes {url}, {selector} and {time} in template. Any other
// brace token is left as written. An empty template uses DefaultTemplate.
func Render(template, pageURL, selector string, at time.Time) string {
	if template == "" {
		template = DefaultTemplate
	}
	if selector == "" {
		selector = FullPageSelector
	}

	r := strings.NewReplacer(
		"{url}", pageURL,
		"{selector}", selector,
		"{time}", at.Local().Format(TimeLayout),
	)
	return r.Replace(template)
}

// ChangeTitle is the notification title for a detected change.
func ChangeTitle(pageURL string) string {
	host := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return "Change Detected: " + host
}
