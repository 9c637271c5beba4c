package password

import "testing"

func TestHashVerify(t *testing.T) {
	// Params chicos para que el test no tarde
	p := Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

	phc, err := Hash(p, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if !Verify("correct horse battery staple", phc) {
		t.Fatal("expected verify ok")
	}
	if Verify("wrong password", phc) {
		t.Fatal("expected verify fail for wrong password")
	}
}

func TestHash_EmptyPassword(t *testing.T) {
	if _, err := Hash(Default, ""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerify_MalformedPHC(t *testing.T) {
	for _, phc := range []string{
		"",
		"$argon2id$v=19$garbage",
		"$bcrypt$whatever",
		"$argon2id$v=18$m=8,t=1,p=1$c2FsdA$ZGs",
	} {
		if Verify("x", phc) {
			t.Fatalf("Verify(%q) should be false", phc)
		}
	}
}
