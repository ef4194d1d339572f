package httpauth

import (
	"net/http"
	"net/url"

	"github.com/MrEthical07/mfabridge"
)

// ActionURLParam names the query parameter that tells the login page where
// to post the form.
const ActionURLParam = "actionUrl"

// FailureResponder answers a failed attempt. It only ever sees the kind.
type FailureResponder interface {
	Fail(w http.ResponseWriter, r *http.Request, kind mfabridge.ErrorKind)
}

// FailureFunc adapts a function to [FailureResponder].
type FailureFunc func(w http.ResponseWriter, r *http.Request, kind mfabridge.ErrorKind)

func (f FailureFunc) Fail(w http.ResponseWriter, r *http.Request, kind mfabridge.ErrorKind) {
	f(w, r, kind)
}

// RedirectFailure sends the browser back to the login page with
// FailureParam=true, ErrorParam=<kind> and the form action URL.
type RedirectFailure struct {
	LoginPage    string
	FailureParam string
	ErrorParam   string
	// ActionURL overrides the action derived from the request path.
	ActionURL string
}

func (f *RedirectFailure) Fail(w http.ResponseWriter, r *http.Request, kind mfabridge.ErrorKind) {
	q := url.Values{}
	q.Set(f.FailureParam, "true")
	if f.ErrorParam != "" {
		q.Set(f.ErrorParam, kind.String())
	}
	q.Set(ActionURLParam, ActionURL(r, f.ActionURL))

	http.Redirect(w, r, f.LoginPage+"?"+q.Encode(), http.StatusSeeOther)
}

// ActionURL returns override if set, otherwise the request's own path, which
// is where the login page should post the form back to.
func ActionURL(r *http.Request, override string) string {
	if override != "" {
		return override
	}
	return r.URL.EscapedPath()
}
