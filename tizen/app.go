package tizen

import (
	"sort"
	"strings"
)

// AppType is the device assigned kind of an installed application
type AppType int

const (
	// AppTypeDeepLink apps are started with ms.application.start on the control channel
	AppTypeDeepLink AppType = 2
	// AppTypeNative apps are Tizen web applications launched with an ed.apps.launch event
	AppTypeNative AppType = 4
)

const (
	ActionDeepLink     = "DEEP_LINK"
	ActionNativeLaunch = "NATIVE_LAUNCH"
)

// launchAction returns the action type used to start an app of this type
func (t AppType) launchAction() string {
	if t == AppTypeDeepLink {
		return ActionDeepLink
	}
	return ActionNativeLaunch
}

// statusMethod returns the control channel method used to query the running state of an app of this type
func (t AppType) statusMethod() string {
	if t == AppTypeNative {
		return "ms.webapplication.get"
	}
	return "ms.application.get"
}

// App is an application installed on the TV
type App struct {
	ID   string  `json:"appId"`
	Name string  `json:"name"`
	Type AppType `json:"app_type"`
}

func (a App) String() string {
	return a.Name + ": " + a.ID
}

// registry is an immutable snapshot of the installed apps. It is replaced
// wholesale on every installed-apps response and never mutated in place.
type registry struct {
	byID  map[string]App
	order []App
}

var emptyRegistry = &registry{byID: map[string]App{}}

// newRegistry builds a registry from the apps reported by the TV, dropping
// apps whose name contains any of the ignore substrings.
func newRegistry(apps []App, ignore []string) *registry {
	r := &registry{byID: make(map[string]App, len(apps)), order: make([]App, 0, len(apps))}
	for _, app := range apps {
		if app.ID == "" || ignored(app.Name, ignore) {
			continue
		}
		if _, ok := r.byID[app.ID]; ok {
			continue
		}
		r.byID[app.ID] = app
		r.order = append(r.order, app)
	}
	return r
}

func ignored(name string, ignore []string) bool {
	for _, pattern := range ignore {
		if pattern != "" && strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}

func (r *registry) get(id string) (App, bool) {
	app, ok := r.byID[id]
	return app, ok
}

func (r *registry) apps() []App {
	return r.order
}

func (r *registry) sorted() []App {
	out := make([]App, len(r.order))
	copy(out, r.order)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
