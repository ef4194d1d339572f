package factor

// Credential is one secret value presented for authentication. The buffer is
// owned by the request that extracted it.
type Credential struct {
	Slot  int
	value []byte
}

// NewCredential copies raw into a fresh buffer at the given slot.
func NewCredential(slot int, raw []byte) Credential {
	buf := make([]byte, len(raw))
	copy(buf, raw)
	return Credential{Slot: slot, value: buf}
}

// Bytes returns the live buffer. Callers that keep the value past the current
// call must copy it.
func (c Credential) Bytes() []byte {
	return c.value
}

// Len reports the secret length in bytes.
func (c Credential) Len() int {
	return len(c.value)
}

// Wipe zeroes the buffer in place.
func (c Credential) Wipe() {
	clear(c.value)
}

// SecretList is the ordered set of credentials for one attempt, primary
// factor first.
type SecretList struct {
	creds []Credential
	wiped bool
}

// NewSecretList builds a list from raw values. values[0] is the primary factor.
func NewSecretList(values ...[]byte) *SecretList {
	l := &SecretList{creds: make([]Credential, 0, len(values))}
	for _, v := range values {
		l.append(v)
	}
	return l
}

func (l *SecretList) append(raw []byte) {
	l.creds = append(l.creds, NewCredential(len(l.creds), raw))
}

// Len returns the number of factors, primary included.
func (l *SecretList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.creds)
}

// At returns the credential at slot i.
func (l *SecretList) At(i int) Credential {
	return l.creds[i]
}

// Primary returns slot 0.
func (l *SecretList) Primary() Credential {
	return l.creds[0]
}

// Supplementary returns the number of factors after the primary one.
func (l *SecretList) Supplementary() int {
	if l.Len() == 0 {
		return 0
	}
	return len(l.creds) - 1
}

// Reversed calls fn for every credential from the highest slot down to slot 0.
// The list itself is not reordered.
func (l *SecretList) Reversed(fn func(Credential)) {
	if l == nil {
		return
	}
	for i := len(l.creds) - 1; i >= 0; i-- {
		fn(l.creds[i])
	}
}

// Wipe zeroes every buffer. Safe to call more than once.
func (l *SecretList) Wipe() {
	if l == nil || l.wiped {
		return
	}
	for _, c := range l.creds {
		c.Wipe()
	}
	l.wiped = true
}

// Wiped reports whether Wipe has run.
func (l *SecretList) Wiped() bool {
	return l != nil && l.wiped
}
