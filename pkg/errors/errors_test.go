package errors

import (
	"errors"
	"testing"
)

func TestWrapWithCode(t *testing.T) {
	base := errors.New("unexpected end of JSON input")
	err := WrapWithCode(base, CodeStoreCorrupt, "decode data/acme_tweets.json")

	if GetCode(err) != CodeStoreCorrupt {
		t.Errorf("GetCode() = %q, want %q", GetCode(err), CodeStoreCorrupt)
	}
	if !IsStoreCorrupt(err) {
		t.Error("IsStoreCorrupt() = false, want true")
	}
	if !Is(err, base) {
		t.Error("wrapped error should match its cause")
	}
	if got := err.Error(); got != "decode data/acme_tweets.json: unexpected end of JSON input" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "msg") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if WrapWithCode(nil, CodeStoreWrite, "msg") != nil {
		t.Error("WrapWithCode(nil) should be nil")
	}
	if GetCode(nil) != "" {
		t.Error("GetCode(nil) should be empty")
	}
}

func TestGetCodeThroughFmtWrap(t *testing.T) {
	inner := WrapWithCode(ErrServiceUnavailable, CodeStoreUnreadable, "read")
	outer := Wrap(inner, "load")

	if GetCode(outer) != "" {
		t.Errorf("outer error has no code of its own, got %q", GetCode(outer))
	}
	if !IsServiceUnavailable(outer) {
		t.Error("sentinel should be reachable through the chain")
	}
}

func TestSentinelHelpers(t *testing.T) {
	userMissing := Wrap(ErrNotFound, "twitter user")
	rejected := Wrap(ErrUnauthorized, "twitter credentials rejected")

	if !IsNotFound(Wrap(userMissing, "lookup acme")) {
		t.Error("IsNotFound() should see through nested wraps")
	}
	if IsNotFound(rejected) || !IsUnauthorized(rejected) {
		t.Error("sentinels must not match each other")
	}
	if got := userMissing.Error(); got != "twitter user: not found" {
		t.Errorf("Error() = %q", got)
	}
	if err := New("plain"); GetCode(err) != "" || err.Error() != "plain" {
		t.Errorf("New() = %v", err)
	}
	if joined := Join(userMissing, nil, rejected); !IsNotFound(joined) || !IsUnauthorized(joined) {
		t.Error("Join() should keep every error reachable")
	}
}
