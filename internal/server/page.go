package server

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/MrEthical07/mfabridge"
	"github.com/MrEthical07/mfabridge/httpauth"
)

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Sign in</title></head>
<body>
<form method="post" action="{{.Action}}">
{{if .Failed}}<p class="error">{{.Message}}</p>{{end}}
<label>Username <input name="{{.UsernameField}}" autocomplete="username"></label>
<label>Password <input type="password" name="{{.PrimaryField}}" autocomplete="current-password"></label>
<label>Code <input name="{{.TokenField}}" inputmode="numeric" autocomplete="one-time-code"></label>
<button type="submit">Sign in</button>
</form>
</body>
</html>
`))

type loginPageData struct {
	Action        string
	Failed        bool
	Message       string
	UsernameField string
	PrimaryField  string
	TokenField    string
}

// loginPage renders the form the login handler redirects to on failure. The
// form posts back to the actionUrl carried on the redirect.
type loginPage struct {
	login    mfabridge.LoginConfig
	fallback string
}

func newLoginPage(login mfabridge.LoginConfig, fallbackAction string) *loginPage {
	return &loginPage{login: login, fallback: fallbackAction}
}

func (p *loginPage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	action := q.Get(httpauth.ActionURLParam)
	if action == "" || !strings.HasPrefix(action, "/") || strings.HasPrefix(action, "//") {
		action = p.fallback
	}
	names := mfabridge.Config{Login: p.login}.FieldNames()
	data := loginPageData{
		Action:        action,
		Failed:        q.Get(p.login.FailureParam) == "true",
		Message:       failureMessage(q.Get(p.login.ErrorParam)),
		UsernameField: names.Username,
		PrimaryField:  names.Primary,
		TokenField:    names.TokenKey(0),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = loginTemplate.Execute(w, data)
}

func failureMessage(kind string) string {
	switch kind {
	case mfabridge.KindMissingCredentials.String():
		return "Enter your username and password."
	case mfabridge.KindAuthenticationRejected.String():
		return "The credentials you entered were not accepted."
	default:
		return "Sign-in is temporarily unavailable. Try again later."
	}
}
