// Package contact validates and submits the contact form.
package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/vcrobe/spashell/console"
	"github.com/vcrobe/spashell/runtime"
)

// StatusReceived is the status every new submission carries.
const StatusReceived = "received"

// ContentType of the submission request.
const ContentType = "application/json; charset=UTF-8"

const maxStripRounds = 8

// SystemDateLayout sorts lexicographically in time order.
const SystemDateLayout = "2006-01-02 15:04:05"

var (
	strict     = bluemonday.StrictPolicy()
	hspace     = regexp.MustCompile(`[^\S\n]+`)
	spaceRuns  = regexp.MustCompile(`\s{2,}`)
	fieldOrder = []string{"name", "email", "subject", "message"}
)

// Form is what the visitor typed.
type Form struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Submission is the JSON body posted to <api>/contacts.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Date    string `json:"date"`
	Status  string `json:"status"`
}

// ValidationError lists the fields that are empty after sanitation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "contact form: missing " + strings.Join(e.Fields, ", ")
}

// stripTags removes markup and returns plain text. Stripping and unescaping
// repeat until the text is stable, so escaped or split tags cannot come
// back as markup once unescaped.
func stripTags(s string) string {
	for i := 0; i < maxStripRounds; i++ {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			return s
		}
		s = next
	}
	// Still changing: keep the escaped form, which holds no tags.
	return strict.Sanitize(s)
}

// Sanitize strips markup, collapses horizontal whitespace, trims, and turns
// line breaks into <br>.
func Sanitize(s string) string {
	s = stripTags(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = hspace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return strings.ReplaceAll(s, "\n", "<br>")
}

// InputFilter is applied while typing: no leading blanks, no whitespace runs.
func InputFilter(s string) string {
	return spaceRuns.ReplaceAllString(strings.TrimLeft(s, " \t\n\r\f\v"), " ")
}

// Clean runs InputFilter and Sanitize on every field.
func (f Form) Clean() Form {
	clean := func(s string) string { return Sanitize(InputFilter(s)) }
	return Form{
		Name:    clean(f.Name),
		Email:   clean(f.Email),
		Subject: clean(f.Subject),
		Message: clean(f.Message),
	}
}

func (f Form) values() []string {
	return []string{f.Name, f.Email, f.Subject, f.Message}
}

// Validate requires every field to be non-empty.
func Validate(f Form) error {
	var missing []string
	for i, v := range f.values() {
		if v == "" {
			missing = append(missing, fieldOrder[i])
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// FirstName is the greeting name: the first space separated word.
func (f Form) FirstName() string {
	name, _, _ := strings.Cut(f.Name, " ")
	return name
}

// SystemDate formats t in local time.
func SystemDate(t time.Time) string {
	return t.Local().Format(SystemDateLayout)
}

// DisplayDate turns a system date into "DD/MM/YYYY<sep>HH:MM:SS".
func DisplayDate(systemDate, sep string) (string, error) {
	t, err := time.ParseInLocation(SystemDateLayout, systemDate, time.Local)
	if err != nil {
		return "", fmt.Errorf("parse system date: %w", err)
	}
	return t.Format("02/01/2006") + sep + t.Format("15:04:05"), nil
}

// Result is the outcome shown to the visitor.
type Result int

const (
	ResultFailed Result = iota
	ResultAccepted
)

func (r Result) String() string {
	if r == ResultAccepted {
		return "accepted"
	}
	return "failed"
}

// Client posts submissions to one endpoint.
type Client struct {
	http   runtime.Doer
	url    string
	now    func() time.Time
	logger *zap.Logger
}

// NewClient returns a Client posting to url.
func NewClient(client runtime.Doer, url string, logger *zap.Logger) *Client {
	logger = console.OrNop(logger)
	return &Client{http: client, url: url, now: time.Now, logger: logger.Named("contact")}
}

// Submit cleans and validates f, then posts it. An invalid form returns a
// *ValidationError and issues no request.
func (c *Client) Submit(ctx context.Context, f Form) (Result, error) {
	f = f.Clean()
	if err := Validate(f); err != nil {
		return ResultFailed, err
	}

	body, err := json.Marshal(Submission{
		Name:    f.Name,
		Email:   f.Email,
		Subject: f.Subject,
		Message: f.Message,
		Date:    SystemDate(c.now()),
		Status:  StatusReceived,
	})
	if err != nil {
		return ResultFailed, fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return ResultFailed, fmt.Errorf("submit contact: %w", err)
	}
	req.Header.Set("Content-Type", ContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("submit contact", zap.Error(err))
		return ResultFailed, fmt.Errorf("submit contact: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("contact rejected", zap.Int("status", resp.StatusCode))
		return ResultFailed, fmt.Errorf("submit contact: unexpected status %s", resp.Status)
	}
	c.logger.Info("contact submitted", zap.String("subject", f.Subject))
	return ResultAccepted, nil
}
