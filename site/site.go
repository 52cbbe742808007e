// Package site is the stock website served and run by spashell: the shell
// document, the default page fragments, and the behaviors of its routes.
package site

import (
	"context"
	"embed"
	"io/fs"

	"github.com/vcrobe/spashell/contact"
	"github.com/vcrobe/spashell/loader"
	"github.com/vcrobe/spashell/runtime"
)

//go:embed web
var content embed.FS

// ShellFile is the name of the shell document inside FS.
const ShellFile = "index.html"

// FS holds the shell document at its root and fragments under pages/.
func FS() fs.FS {
	sub, err := fs.Sub(content, "web")
	if err != nil {
		panic(err)
	}
	return sub
}

// Shell returns the embedded shell document.
func Shell() ([]byte, error) {
	return fs.ReadFile(FS(), ShellFile)
}

// Pages returns the fragment tree, one directory per route.
func Pages() fs.FS {
	sub, err := fs.Sub(content, "web/pages")
	if err != nil {
		panic(err)
	}
	return sub
}

// page is the behavior of a plain content route: remember the route for a
// reload, set the title, and intercept the links the markup brought in.
type page struct {
	route string
	title string
}

func (p page) Init(ctx context.Context, pb *runtime.PageBase) error {
	if err := pb.SetPending(p.route); err != nil {
		return err
	}
	if err := pb.SetTitle(p.title); err != nil {
		return err
	}
	_, err := pb.InstallLinks()
	return err
}

// contacts adds link interception to the contact form behavior.
type contacts struct{}

func (contacts) Init(ctx context.Context, pb *runtime.PageBase) error {
	if err := (contact.Behavior{}).Init(ctx, pb); err != nil {
		return err
	}
	_, err := pb.InstallLinks()
	return err
}

// Register installs the behaviors of home, about and contacts.
func Register(reg *loader.Registry) {
	reg.Register("home", page{route: "home"})
	reg.Register("about", page{route: "about", title: "About"})
	reg.Register(contact.Route, contacts{})
}

// Registry returns a fresh registry holding the stock behaviors.
func Registry() *loader.Registry {
	reg := loader.NewRegistry()
	Register(reg)
	return reg
}
