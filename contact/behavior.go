package contact

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/vcrobe/spashell/runtime"
	"github.com/vcrobe/spashell/social"
	"github.com/vcrobe/spashell/views"
)

// Route is the route identifier of the contact page.
const Route = "contacts"

// Title is the page title of the contact page.
const Title = "Get in touch"

// Elements of the contact page markup.
const (
	FormSelector     = "#contact"
	FeedbackSelector = "#feedback"
	ListSelector     = ".contact-list"
	NameSelector     = "#contactName"
	EmailSelector    = "#contactEmail"
	SubjectSelector  = "#contactSubject"
	MessageSelector  = "#contactMessage"
)

var fieldSelectors = []string{NameSelector, EmailSelector, SubjectSelector, MessageSelector}

// Behavior wires the contact page once its markup is in place.
type Behavior struct{}

func (Behavior) Init(ctx context.Context, page *runtime.PageBase) error {
	if err := page.SetPending(Route); err != nil {
		return err
	}
	if err := page.SetTitle(Title); err != nil {
		return err
	}

	doc := page.Document()
	if !doc.Exists(FormSelector) {
		return nil
	}

	logger := page.Logger()
	client := NewClient(page.HTTP(), page.APIURL("contacts"), logger)
	if err := doc.BindSubmit(FormSelector, func() {
		send(ctx, doc, client, logger)
	}); err != nil {
		return err
	}

	// The aside list is decoration; a failure is logged by Show.
	_ = social.Show(ctx, page.HTTP(), page.APIURL("social"), doc, ListSelector, true, logger)
	return nil
}

func readForm(doc runtime.Document) (Form, error) {
	vals := make([]string, len(fieldSelectors))
	for i, sel := range fieldSelectors {
		v, err := doc.Value(sel)
		if err != nil {
			return Form{}, err
		}
		vals[i] = v
	}
	return Form{Name: vals[0], Email: vals[1], Subject: vals[2], Message: vals[3]}, nil
}

func clearFields(doc runtime.Document, f Form) {
	for i, v := range f.values() {
		if v == "" {
			_ = doc.SetValue(fieldSelectors[i], "")
		}
	}
}

func send(ctx context.Context, doc runtime.Document, client *Client, logger *zap.Logger) {
	form, err := readForm(doc)
	if err != nil {
		logger.Error("read contact form", zap.Error(err))
		return
	}

	result, err := client.Submit(ctx, form)
	var invalid *ValidationError
	if errors.As(err, &invalid) {
		// Blank out what sanitation emptied and keep the form open.
		clearFields(doc, form.Clean())
		return
	}

	feedback := views.ContactFailure()
	if result == ResultAccepted {
		feedback = views.ContactSuccess(form.Clean().FirstName())
	}
	markup, err := views.Render(ctx, feedback)
	if err != nil {
		logger.Error("render contact feedback", zap.Error(err))
		return
	}
	if err := doc.SetInnerHTML(FeedbackSelector, markup); err != nil {
		logger.Error("show contact feedback", zap.Error(err))
	}

	for _, sel := range fieldSelectors {
		_ = doc.SetValue(sel, "")
	}
	_ = doc.SetHidden(FormSelector, true)
	_ = doc.SetHidden(FeedbackSelector, false)
}
