package view

import (
	"github.com/kjstillabower/coastal-change-dashboard/internal/form"
	"github.com/kjstillabower/coastal-change-dashboard/internal/mapview"
	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
)

// NavLink is one entry of the navigation bar.
type NavLink struct {
	Title  string
	Href   string
	Active bool
}

// Chrome is the part of every page drawn by the layout.
type Chrome struct {
	Title string
	Nav   []NavLink
}

// NewChrome marks the link for active as current.
func NewChrome(title, active string) Chrome {
	links := []NavLink{
		{Title: "Dashboard", Href: "/"},
		{Title: "About", Href: "/about"},
		{Title: "User Settings", Href: "/settings"},
	}
	for i := range links {
		links[i].Active = links[i].Href == active
	}
	return Chrome{Title: title, Nav: links}
}

// FormField is one prediction input with its error, if any.
type FormField struct {
	Name        string
	Label       string
	Type        string
	Value       string
	Error       string
	Placeholder string
}

// FormPanel is the prediction form as rendered.
type FormPanel struct {
	Fields  []FormField
	Regions []string
}

// NewFormPanel lays out values and errors in field order.
func NewFormPanel(values form.Values, errs form.FieldErrors, regions []string) FormPanel {
	p := FormPanel{Regions: regions}
	for _, name := range form.Fields {
		typ := "number"
		switch name {
		case form.FieldRegion:
			typ = "text"
		case form.FieldDate:
			typ = "date"
		}
		p.Fields = append(p.Fields, FormField{
			Name:        name,
			Label:       form.Labels[name],
			Type:        typ,
			Value:       values.Get(name),
			Error:       errs[name],
			Placeholder: form.Labels[name],
		})
	}
	return p
}

// MapPanel is the provider selector and the container the browser mounts into.
type MapPanel struct {
	Provider  mapview.Backend
	Providers []Option
	DevMode   bool
}

func NewMapPanel(active mapview.Backend, devMode bool) MapPanel {
	p := MapPanel{Provider: active, DevMode: devMode}
	for _, b := range mapview.Backends {
		p.Providers = append(p.Providers, Option{Value: string(b), Label: b.Label(), Selected: b == active})
	}
	return p
}

// DashboardPage is everything on "/".
type DashboardPage struct {
	Chrome
	Dashboard   Dashboard
	Map         MapPanel
	Form        FormPanel
	FormAction  string
	Result      *models.PredictionResult
	ResultError string
}

// StaticPage is a heading and one paragraph.
type StaticPage struct {
	Chrome
	Heading string
	Body    string
}

func AboutPage() StaticPage {
	return StaticPage{
		Chrome:  NewChrome("About", "/about"),
		Heading: "About",
		Body:    "This project predicts and visualizes the likelihood of coastal changes based on environmental data, climate models, and historical trends.",
	}
}

func SettingsPage() StaticPage {
	return StaticPage{
		Chrome:  NewChrome("User Settings", "/settings"),
		Heading: "User Settings",
		Body:    "Manage your user preferences and role-based features here.",
	}
}
