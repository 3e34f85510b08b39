package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/choreify/internal/apperr"
	"github.com/dukerupert/choreify/internal/auth"
	"github.com/dukerupert/choreify/internal/notify"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("%w: title is required", apperr.ErrValidation), http.StatusBadRequest, "validation failed: title is required"},
		{fmt.Errorf("chore x: %w", apperr.ErrNotFound), http.StatusNotFound, ""},
		{fmt.Errorf("comment x: %w", apperr.ErrForbidden), http.StatusForbidden, ""},
		{fmt.Errorf("chore x is completed: %w", apperr.ErrConflict), http.StatusConflict, ""},
		{fmt.Errorf("offer x is claimed: %w", apperr.ErrOfferClosed), http.StatusConflict, ""},
		{apperr.ErrUnauthenticated, http.StatusUnauthorized, "authorization required"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "failed to do it"},
	}

	for _, tt := range tests {
		status, msg := errorStatus(tt.err, "failed to do it")
		if status != tt.status {
			t.Errorf("errorStatus(%v) status = %d, want %d", tt.err, status, tt.status)
		}
		if tt.msg != "" && msg != tt.msg {
			t.Errorf("errorStatus(%v) msg = %q, want %q", tt.err, msg, tt.msg)
		}
	}
}

func TestFailNotifiesByStatus(t *testing.T) {
	rec := &notify.Recorder{}
	b := newBase(nil, rec, nil)
	ctx := auth.WithUser(context.Background(), auth.User{ID: "u1", Name: "Alex"})

	r := httptest.NewRequest("POST", "/api/chores", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	b.fail(w, r, fmt.Errorf("chore x: %w", apperr.ErrNotFound), "failed")
	if w.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", w.Code)
	}
	if last := rec.Last(); last.Level != notify.LevelWarning {
		t.Errorf("level = %q, want warning", last.Level)
	}

	w = httptest.NewRecorder()
	b.fail(w, r, errors.New("boom"), "failed to save chore")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, want 500", w.Code)
	}
	if last := rec.Last(); last.Level != notify.LevelError || last.Message != "failed to save chore" {
		t.Errorf("last = %+v", last)
	}

	before := len(rec.Entries())
	b.fail(httptest.NewRecorder(), r, apperr.ErrUnauthenticated, "failed")
	if len(rec.Entries()) != before {
		t.Error("unauthenticated failures should not notify")
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/activities?limit=5", nil)
	if n, err := queryInt(r, "limit", 20); err != nil || n != 5 {
		t.Errorf("queryInt = %d, %v", n, err)
	}
	if n, err := queryInt(r, "missing", 20); err != nil || n != 20 {
		t.Errorf("default = %d, %v", n, err)
	}
	r = httptest.NewRequest("GET", "/api/activities?limit=x", nil)
	if _, err := queryInt(r, "limit", 20); err == nil {
		t.Error("expected parse error")
	}
}
