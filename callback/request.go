package callback

// Request kinds reported by [Request.Kind].
const (
	KindName        = "name"
	KindSecret      = "secret"
	KindMultiSecret = "multi-secret"
)

// Request is one piece of input a module asks for. Implementations are
// limited to this package.
type Request interface {
	Kind() string
	isRequest()
}

// NameRequest asks for the username.
type NameRequest struct {
	Prompt string
	name   string
	set    bool
}

// NewNameRequest returns a name request with the given prompt.
func NewNameRequest(prompt string) *NameRequest {
	return &NameRequest{Prompt: prompt}
}

func (*NameRequest) Kind() string { return KindName }
func (*NameRequest) isRequest()   {}

// SetName stores the answer.
func (r *NameRequest) SetName(name string) {
	r.name = name
	r.set = true
}

// Name returns the answer and whether one was given.
func (r *NameRequest) Name() (string, bool) {
	return r.name, r.set
}

// SecretRequest asks for a single secret. Each delivery replaces the previous
// value, zeroing it first.
type SecretRequest struct {
	Prompt string
	secret []byte
}

// NewSecretRequest returns a single-slot secret request.
func NewSecretRequest(prompt string) *SecretRequest {
	return &SecretRequest{Prompt: prompt}
}

func (*SecretRequest) Kind() string { return KindSecret }
func (*SecretRequest) isRequest()   {}

// SetSecret stores a copy of b.
func (r *SecretRequest) SetSecret(b []byte) {
	clear(r.secret)
	r.secret = append([]byte(nil), b...)
}

// Secret returns the held value, nil if nothing was delivered.
func (r *SecretRequest) Secret() []byte {
	return r.secret
}

// Clear zeroes and drops the held value.
func (r *SecretRequest) Clear() {
	clear(r.secret)
	r.secret = nil
}

// MultiSecretRequest accumulates every delivered secret.
type MultiSecretRequest struct {
	Prompt  string
	secrets [][]byte
}

// NewMultiSecretRequest returns an accumulating secret request.
func NewMultiSecretRequest(prompt string) *MultiSecretRequest {
	return &MultiSecretRequest{Prompt: prompt}
}

func (*MultiSecretRequest) Kind() string { return KindMultiSecret }
func (*MultiSecretRequest) isRequest()   {}

// SetSecret appends a copy of b.
func (r *MultiSecretRequest) SetSecret(b []byte) {
	r.secrets = append(r.secrets, append([]byte(nil), b...))
}

// Secrets returns the values in delivery order.
func (r *MultiSecretRequest) Secrets() [][]byte {
	return r.secrets
}

// Factors returns the values in slot order, primary first. This is the
// inverse of the delivery order used by [Bridge].
func (r *MultiSecretRequest) Factors() [][]byte {
	out := make([][]byte, len(r.secrets))
	for i, s := range r.secrets {
		out[len(r.secrets)-1-i] = s
	}
	return out
}

// Factor returns the value at slot i in slot order.
func (r *MultiSecretRequest) Factor(slot int) ([]byte, bool) {
	idx := len(r.secrets) - 1 - slot
	if slot < 0 || idx < 0 {
		return nil, false
	}
	return r.secrets[idx], true
}

// Clear zeroes and drops every held value.
func (r *MultiSecretRequest) Clear() {
	for _, s := range r.secrets {
		clear(s)
	}
	r.secrets = nil
}

// UnsupportedRequest stands for any prompt the bridge does not implement,
// such as a confirmation dialog or a free-text question.
type UnsupportedRequest struct {
	Name string
}

func (r *UnsupportedRequest) Kind() string { return r.Name }
func (*UnsupportedRequest) isRequest()     {}
