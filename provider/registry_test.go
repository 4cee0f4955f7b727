package provider

import (
	"context"
	"errors"
	"testing"
)

type stubClient struct{ name string }

func (s *stubClient) Complete(ctx context.Context, req Request) (*Response, error) {
	return &Response{Text: "ok"}, nil
}
func (s *stubClient) Provider() string { return s.name }
func (s *stubClient) Close() error     { return nil }

func TestRegisterAndNew(t *testing.T) {
	Register("testprov", func(cfg Config) (Client, error) {
		return &stubClient{name: "testprov"}, nil
	})
	defer Unregister("testprov")

	if !IsRegistered("testprov") {
		t.Fatal("expected testprov to be registered")
	}

	c, err := New("testprov", Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Provider() != "testprov" {
		t.Errorf("Provider() = %q", c.Provider())
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("does-not-exist", Config{})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("err = %v, want ErrUnknownProvider", err)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("dup", func(cfg Config) (Client, error) { return nil, nil })
	defer Unregister("dup")

	defer func() {
		if recover() == nil {
			t.Error("expected duplicate registration to panic")
		}
	}()
	Register("dup", func(cfg Config) (Client, error) { return nil, nil })
}

func TestAvailableSorted(t *testing.T) {
	Register("zzz-test", func(cfg Config) (Client, error) { return nil, nil })
	Register("aaa-test", func(cfg Config) (Client, error) { return nil, nil })
	defer Unregister("zzz-test")
	defer Unregister("aaa-test")

	names := Available()
	var aIdx, zIdx int
	for i, n := range names {
		switch n {
		case "aaa-test":
			aIdx = i
		case "zzz-test":
			zIdx = i
		}
	}
	if aIdx >= zIdx {
		t.Errorf("Available() not sorted: %v", names)
	}
}
