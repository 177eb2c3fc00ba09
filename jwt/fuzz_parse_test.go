package jwt

import (
	"testing"
	"time"
)

// FuzzParse feeds arbitrary strings to both token kinds. Parse must never
// panic and must never return claims alongside an error.
func FuzzParse(f *testing.F) {
	mgr, err := NewManager(Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		SigningMethod: MethodHS256,
		AccessKeys:    Keys{PrivateKey: []byte("fuzz-access-secret")},
		RefreshKeys:   Keys{PrivateKey: []byte("fuzz-refresh-secret")},
	})
	if err != nil {
		f.Fatal(err)
	}

	pair, err := mgr.Issue("user-1")
	if err != nil {
		f.Fatal(err)
	}

	f.Add(pair.AccessToken)
	f.Add(pair.RefreshToken)
	f.Add("")
	f.Add("not.a.jwt")
	f.Add("eyJhbGciOiJub25lIn0.eyJ1c2VySWQiOiJ4In0.")

	f.Fuzz(func(t *testing.T, input string) {
		for _, kind := range []TokenKind{KindAccess, KindRefresh} {
			claims, err := mgr.Parse(input, kind)
			if err != nil && claims != nil {
				t.Fatal("Parse returned claims with an error")
			}
			if err == nil && claims == nil {
				t.Fatal("Parse returned nil claims without error")
			}
		}
	})
}
