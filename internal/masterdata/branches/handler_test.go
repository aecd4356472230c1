package branches

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	branches []Branch
	err      error
}

func (s stubRepo) List(context.Context) ([]Branch, error) {
	return s.branches, s.err
}

func (s stubRepo) Get(context.Context, int64) (Branch, error) {
	return Branch{}, nil
}

func (s stubRepo) HQBranchIDs(context.Context) ([]int64, error) {
	return nil, nil
}

func TestListBranches(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), stubRepo{branches: []Branch{
		{ID: 1, Code: "HQ-01", Name: "Head Office", Type: BranchTypeHQ},
		{ID: 7, Code: "BR-07", Name: "Marina", Type: BranchTypeOperating},
	}})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "HQ-01")
	assert.Contains(t, rec.Body.String(), "BR-07")
}

func TestListBranchesRepositoryFailure(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), stubRepo{err: errors.New("pool exhausted")})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
