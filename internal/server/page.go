package server

import (
	"strconv"

	"github.com/acapretti/bogofree/pkg/catalog"
	"github.com/acapretti/bogofree/pkg/settings"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// Notice is the banner shown above the settings form after a submit.
type Notice struct {
	Kind    string // updated | error
	Message string
}

type settingsPageData struct {
	Config     settings.Configuration
	Categories []catalog.Category
	// CategoriesErr is set when the catalog could not be listed.
	CategoriesErr bool
	Nonce         string
	Notice        *Notice
}

func settingsPage(d settingsPageData) g.Node {
	targets, free := settings.FormValues(d.Config)

	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(
			Head(
				Meta(Charset("UTF-8")),
				TitleEl(g.Text("BOGO Free Settings")),
			),
			Body(
				Div(Class("wrap"),
					H1(g.Text("BOGO Free Settings")),
					g.If(d.Notice != nil, noticeBox(d.Notice)),
					Form(Method("POST"), Action(settingsPath),
						Input(Type("hidden"), Name(nonceField), Value(d.Nonce)),
						Table(Class("form-table"),
							Tr(
								Th(g.Attr("scope", "row"), g.Text("Target Product IDs (comma-separated)")),
								Td(Input(Type("text"), Name(settings.FieldTargetProductIDs), Value(targets))),
							),
							Tr(
								Th(g.Attr("scope", "row"), g.Text("Target Categories")),
								Td(categoryChoices(d)),
							),
							Tr(
								Th(g.Attr("scope", "row"), g.Text("Free Product IDs (comma-separated)")),
								Td(Input(Type("text"), Name(settings.FieldFreeProductIDs), Value(free))),
							),
						),
						Button(Type("submit"), Class("button-primary"), g.Text("Save Changes")),
					),
				),
			),
		),
	})
}

func noticeBox(n *Notice) g.Node {
	return Div(Class(n.Kind), P(g.Text(n.Message)))
}

func categoryChoices(d settingsPageData) g.Node {
	if d.CategoriesErr || len(d.Categories) == 0 {
		return P(g.Text("No categories available"))
	}
	nodes := make([]g.Node, 0, len(d.Categories))
	for _, c := range d.Categories {
		attrs := []g.Node{
			Type("checkbox"),
			Name(settings.FieldTargetCategories),
			Value(strconv.FormatInt(int64(c.ID), 10)),
		}
		if d.Config.HasTargetCategory(c.ID) {
			attrs = append(attrs, Checked())
		}
		nodes = append(nodes, Label(Input(attrs...), g.Text(" "+c.Name)), Br())
	}
	return g.Group(nodes)
}
