package jwt

import (
	"errors"
	"testing"
	"time"
)

func testIssuer(t *testing.T) *Issuer {
	t.Helper()
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i * 3)
	}
	iss, err := NewIssuer("https://issuehub.local", seed)
	if err != nil {
		t.Fatalf("NewIssuer err: %v", err)
	}
	return iss
}

func TestIssueParse_RoundTrip(t *testing.T) {
	iss := testIssuer(t)

	tok, exp, err := iss.IssueSession(SessionUser{ID: "u-1", Name: "Ana", Email: "ana@x.com"})
	if err != nil {
		t.Fatalf("IssueSession err: %v", err)
	}
	if time.Until(exp) < 23*time.Hour {
		t.Fatalf("expiry too soon: %v", exp)
	}

	u, err := iss.ParseSession(tok)
	if err != nil {
		t.Fatalf("ParseSession err: %v", err)
	}
	if u.ID != "u-1" || u.Email != "ana@x.com" || u.Name != "Ana" {
		t.Fatalf("unexpected identity: %+v", u)
	}
}

func TestParse_Expired(t *testing.T) {
	iss := testIssuer(t)
	iss.SessionTTL = -2 * time.Minute // ya vencido, fuera del leeway

	tok, _, err := iss.IssueSession(SessionUser{ID: "u-1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.ParseSession(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestParse_TamperedSignature(t *testing.T) {
	iss := testIssuer(t)
	tok, _, err := iss.IssueSession(SessionUser{ID: "u-1"})
	if err != nil {
		t.Fatal(err)
	}

	tampered := tok[:len(tok)-2] + "xx"
	if _, err := iss.ParseSession(tampered); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	iss := testIssuer(t)
	for _, tok := range []string{"", "abc", "a.b.c"} {
		if _, err := iss.ParseSession(tok); !errors.Is(err, ErrInvalid) {
			t.Fatalf("ParseSession(%q): expected ErrInvalid, got %v", tok, err)
		}
	}
}

func TestParse_WrongKey(t *testing.T) {
	issA := testIssuer(t)

	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(200 - i)
	}
	issB, err := NewIssuer("https://issuehub.local", seed)
	if err != nil {
		t.Fatal(err)
	}

	tok, _, err := issA.IssueSession(SessionUser{ID: "u-1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := issB.ParseSession(tok); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid with wrong key, got %v", err)
	}
}
