package session

import (
	"testing"
	"time"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	m := NewManager("test-secret", "studio_session", 24, false)

	token, err := m.Issue(UserInfo{ID: "u-1", Email: "a@example.com", IsVerified: true})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	data, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !data.IsLoggedIn {
		t.Error("verified session must be logged in")
	}
	if data.User == nil || data.User.ID != "u-1" || data.User.Email != "a@example.com" || !data.User.IsVerified {
		t.Errorf("user payload wrong: %+v", data.User)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m := NewManager("test-secret", "studio_session", 24, false)
	token, err := m.Issue(UserInfo{ID: "u-1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := m.Verify(token + "x"); err == nil {
		t.Error("tampered token must be rejected")
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	issuer := NewManager("secret-a", "studio_session", 24, false)
	verifier := NewManager("secret-b", "studio_session", 24, false)

	token, err := issuer.Issue(UserInfo{ID: "u-1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Error("token signed with another secret must be rejected")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", "studio_session", 0, false)
	// dur 为 0 时 token 立即过期
	token, err := m.Issue(UserInfo{ID: "u-1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	time.Sleep(time.Second)

	if _, err := m.Verify(token); err == nil {
		t.Error("expired token must be rejected")
	}
}

func TestGenerateRandomStringLength(t *testing.T) {
	s := GenerateRandomString(16)
	if len(s) != 32 {
		t.Errorf("hex string length: got %d, want 32", len(s))
	}
	if s == GenerateRandomString(16) {
		t.Error("two generated strings must differ")
	}
}
