package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/rgoodwin/hearth/internal/model"
)

const defaultAPIURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIURL overrides the Postmark endpoint, used by tests.
func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

func NewClient(serverToken, fromEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		apiURL:      defaultAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendDailyDigest renders the digest snapshot and sends it in one attempt.
func (c *Client) SendDailyDigest(to string, data model.DigestData) error {
	subject := "Your daily home digest"
	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       to,
		Subject:  subject,
		TextBody: renderDigestText(data),
		HtmlBody: renderDigestHTML(data),
	})
}

// SendTestEmail sends a short message to verify the email configuration.
func (c *Client) SendTestEmail(to string) error {
	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       to,
		Subject:  "Hearth test email",
		TextBody: "Email delivery is working.",
		HtmlBody: "<p>Email delivery is working.</p>",
	})
}

func (c *Client) send(payload postmarkEmail) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}

func renderDigestText(d model.DigestData) string {
	var b strings.Builder
	b.WriteString("Today at home\n\n")

	if len(d.Events) > 0 {
		b.WriteString("Events:\n")
		for _, e := range d.Events {
			if e.AllDay {
				fmt.Fprintf(&b, "  - %s (all day)\n", e.Summary)
			} else {
				fmt.Fprintf(&b, "  - %s at %s\n", e.Summary, e.StartsAt.Format("3:04 PM"))
			}
		}
		b.WriteString("\n")
	}
	if len(d.Tasks) > 0 {
		b.WriteString("Tasks due:\n")
		for _, t := range d.Tasks {
			fmt.Fprintf(&b, "  - %s (%s)\n", t.Title, t.Priority)
		}
		b.WriteString("\n")
	}
	if len(d.Chores) > 0 {
		b.WriteString("Chores:\n")
		for _, c := range d.Chores {
			if c.AssignedTo != "" {
				fmt.Fprintf(&b, "  - %s (%s)\n", c.Title, c.AssignedTo)
			} else {
				fmt.Fprintf(&b, "  - %s\n", c.Title)
			}
		}
		b.WriteString("\n")
	}
	if len(d.OverdueLoans) > 0 {
		b.WriteString("Overdue game loans:\n")
		for _, l := range d.OverdueLoans {
			fmt.Fprintf(&b, "  - %s with %s for %d days\n", l.GameTitle, l.BorrowerName, l.DaysOverdue)
		}
	}
	return b.String()
}

func renderDigestHTML(d model.DigestData) string {
	var b strings.Builder
	b.WriteString("<h2>Today at home</h2>")

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "<h3>%s</h3><ul>", title)
		for _, item := range items {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(item))
		}
		b.WriteString("</ul>")
	}

	var events []string
	for _, e := range d.Events {
		if e.AllDay {
			events = append(events, fmt.Sprintf("%s (all day)", e.Summary))
		} else {
			events = append(events, fmt.Sprintf("%s at %s", e.Summary, e.StartsAt.Format("3:04 PM")))
		}
	}
	section("Events", events)

	var tasks []string
	for _, t := range d.Tasks {
		tasks = append(tasks, fmt.Sprintf("%s (%s)", t.Title, t.Priority))
	}
	section("Tasks due", tasks)

	var chores []string
	for _, c := range d.Chores {
		if c.AssignedTo != "" {
			chores = append(chores, fmt.Sprintf("%s (%s)", c.Title, c.AssignedTo))
		} else {
			chores = append(chores, c.Title)
		}
	}
	section("Chores", chores)

	var loans []string
	for _, l := range d.OverdueLoans {
		loans = append(loans, fmt.Sprintf("%s with %s for %d days", l.GameTitle, l.BorrowerName, l.DaysOverdue))
	}
	section("Overdue game loans", loans)

	return b.String()
}
