package result

import (
	"errors"
	"net/http"
	"testing"
)

func TestNewDefaultsToInternalError(t *testing.T) {
	res := New[string](0, nil, "")
	if res.Code() != http.StatusInternalServerError {
		t.Fatalf("expected %d for non-positive code, got %d", http.StatusInternalServerError, res.Code())
	}
	if _, ok := res.Data(); ok {
		t.Fatalf("expected no data in default envelope")
	}
	if res.Err() != "" {
		t.Fatalf("expected empty error, got %q", res.Err())
	}
}

func TestOKCarriesData(t *testing.T) {
	res := OK("payload")
	if !res.OK() {
		t.Fatalf("expected OK envelope, got code=%d err=%q", res.Code(), res.Err())
	}
	data, ok := res.Data()
	if !ok || data != "payload" {
		t.Fatalf("unexpected data: %q present=%v", data, ok)
	}
}

func TestCreatedIsNotOK(t *testing.T) {
	res := Created(42)
	if res.Code() != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.Code())
	}
	if res.OK() {
		t.Fatalf("201 envelope must not report OK")
	}
}

func TestSetReplacesAllFields(t *testing.T) {
	res := OK("first")
	res.Set(http.StatusConflict, nil, DuplicateEntry)
	if res.Code() != http.StatusConflict || res.Err() != DuplicateEntry {
		t.Fatalf("unexpected envelope after Set: code=%d err=%q", res.Code(), res.Err())
	}
	if data, ok := res.Data(); ok || data != "" {
		t.Fatalf("expected data cleared by Set, got %q present=%v", data, ok)
	}
}

func TestNotFoundKeepsMessage(t *testing.T) {
	res := NotFound[string]("User not found")
	if res.Code() != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code())
	}
	if res.Err() != "User not found" {
		t.Fatalf("unexpected message: %q", res.Err())
	}
}

func TestNormalizeError(t *testing.T) {
	res := Normalize[string](errors.New("database on fire"))
	if res.Code() != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code())
	}
	if res.Err() != "database on fire" {
		t.Fatalf("expected message preserved, got %q", res.Err())
	}
}

func TestNormalizeNonError(t *testing.T) {
	for _, v := range []any{nil, "a bare string", 17, struct{}{}} {
		res := Normalize[int](v)
		if res.Code() != http.StatusInternalServerError {
			t.Fatalf("value %v: expected 500, got %d", v, res.Code())
		}
		if res.Err() != UnexpectedError {
			t.Fatalf("value %v: expected sentinel, got %q", v, res.Err())
		}
	}
}

func TestNormalizeNilTypedError(t *testing.T) {
	var err error
	res := Normalize[string](err)
	if res.Err() != UnexpectedError {
		t.Fatalf("nil error must collapse to the sentinel, got %q", res.Err())
	}
}
