package mutate

import (
	"crypto/rand"
	"encoding/base32"
	"strings"

	"churchplan/internal/model"
)

// newRandomID returns prefix-<suffix> where suffix is 8 chars of base32 (lowercase, no padding).
func newRandomID(prefix string) (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return prefix + "-" + strings.ToLower(enc.EncodeToString(b[:])), nil
}

func idExists(tl model.Timeline, id string) bool {
	if tl.StepIndex(id) >= 0 {
		return true
	}
	si, _ := tl.ItemIndex(id)
	return si >= 0
}

// resolveID returns want when set (and unused), otherwise a fresh random id.
func resolveID(tl model.Timeline, prefix, want string) (string, error) {
	want = strings.TrimSpace(want)
	if want != "" {
		if idExists(tl, want) {
			return "", ErrDuplicateID
		}
		return want, nil
	}
	for i := 0; i < 8; i++ {
		id, err := newRandomID(prefix)
		if err != nil {
			return "", err
		}
		if !idExists(tl, id) {
			return id, nil
		}
	}
	return "", ErrDuplicateID
}
