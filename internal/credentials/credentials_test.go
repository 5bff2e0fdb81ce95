package credentials

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// buildToken assembles an unsigned JWT with the given claims for tests
func buildToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("failed to marshal claims: %v", err)
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	sig := base64.RawURLEncoding.EncodeToString([]byte("sig"))
	return header + "." + body + "." + sig
}

func TestPeekClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	token := buildToken(t, map[string]interface{}{
		"sub":  "user-42",
		"role": "therapist",
		"exp":  exp,
	})

	cred := NewStatic(token)
	claims, err := cred.PeekClaims()
	if err != nil {
		t.Fatalf("PeekClaims() error = %v", err)
	}

	if claims.Subject != "user-42" {
		t.Errorf("Subject = %q, want user-42", claims.Subject)
	}
	if claims.Role != RoleTherapist {
		t.Errorf("Role = %q, want therapist", claims.Role)
	}
	if claims.ExpiresAt.Unix() != exp {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt.Unix(), exp)
	}
}

func TestCheckFresh(t *testing.T) {
	tests := []struct {
		name    string
		exp     time.Time
		now     time.Time
		wantErr error
	}{
		{
			name: "fresh token",
			exp:  time.Now().Add(time.Hour),
			now:  time.Now(),
		},
		{
			name:    "expired token",
			exp:     time.Now().Add(-time.Hour),
			now:     time.Now(),
			wantErr: ErrTokenExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := buildToken(t, map[string]interface{}{
				"sub": "u",
				"exp": tt.exp.Unix(),
			})
			err := NewStatic(token).CheckFresh(tt.now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckFresh() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEmptyCredential(t *testing.T) {
	var cred *Credential
	if _, err := cred.Token(); !errors.Is(err, ErrNoToken) {
		t.Errorf("Token() error = %v, want ErrNoToken", err)
	}
}

func TestSealOpenToken(t *testing.T) {
	sealed, err := SealToken("bearer-abc123", "hunter2")
	if err != nil {
		t.Fatalf("SealToken() error = %v", err)
	}

	token, err := OpenToken(sealed, "hunter2")
	if err != nil {
		t.Fatalf("OpenToken() error = %v", err)
	}
	if token != "bearer-abc123" {
		t.Errorf("OpenToken() = %q, want bearer-abc123", token)
	}

	if _, err := OpenToken(sealed, "wrong"); !errors.Is(err, ErrSealedTokenInvalid) {
		t.Errorf("OpenToken() with wrong passphrase error = %v, want ErrSealedTokenInvalid", err)
	}

	if _, err := OpenToken([]byte("short"), "hunter2"); !errors.Is(err, ErrSealedTokenInvalid) {
		t.Errorf("OpenToken() with truncated input error = %v, want ErrSealedTokenInvalid", err)
	}
}
