package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// This file contains unit tests for each book api handler.

func newTestBookAPI(repo BookStorage, ids UIDHandler) *APIHandler {
	bs := NewBookService(zap.NewNop(), &Config{}, ids, repo, nil)
	return NewAPIHandler(zap.NewNop(), &Config{}, &Statistics{started: NewMockClocker().Now()}, NewMockClocker(), ids, bs)
}

func newFormRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func bookForm(title, years, pages string) url.Values {
	return url.Values{"title": {title}, "years": {years}, "pages": {pages}}
}

// readJSONResponse checks the content type and returns the body of the recorded response.
func readJSONResponse(t *testing.T, w *httptest.ResponseRecorder) (int, string) {
	t.Helper()
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(data)
}

func idParam(id string) httprouter.Params {
	return httprouter.Params{{Key: "id", Value: id}}
}

func TestGetAllBooksHandler(t *testing.T) {
	t.Run("should pass: books listed", func(t *testing.T) {
		api := newTestBookAPI(&MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return []Book{testBook()}, nil
			},
		}, NewIDsHandler())
		w := httptest.NewRecorder()
		api.GetAllBooks(w, httptest.NewRequest(http.MethodGet, "/book", nil), nil)
		status, body := readJSONResponse(t, w)
		assert.Equal(t, http.StatusOK, status)
		expected := `{"books":[{"id":"0db0b43e-dddb-47ad-9b4a-e5fe9ec7c2a9","title":"Coco raconte Channel 2","years":1990,"pages":400}]}`
		assert.JSONEq(t, expected, body)
	})

	t.Run("should pass: empty store", func(t *testing.T) {
		api := newTestBookAPI(&MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return []Book{}, nil
			},
		}, NewIDsHandler())
		w := httptest.NewRecorder()
		api.GetAllBooks(w, httptest.NewRequest(http.MethodGet, "/book", nil), nil)
		status, body := readJSONResponse(t, w)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"books":[]}`, body)
	})

	t.Run("should fail: storage failure", func(t *testing.T) {
		api := newTestBookAPI(&MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return nil, &PersistenceError{Op: "decode", Path: "books.json", Err: errors.New("unexpected EOF")}
			},
		}, NewIDsHandler())
		w := httptest.NewRecorder()
		api.GetAllBooks(w, httptest.NewRequest(http.MethodGet, "/book", nil), nil)
		status, body := readJSONResponse(t, w)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"message":"error fetching books"}`, body)
	})
}

func TestGetOneBookHandler(t *testing.T) {
	testCases := []struct {
		name     string
		id       string
		repoErr  error
		status   int
		expected string
	}{
		{
			name:     "should pass: book exists",
			id:       testBookID,
			status:   http.StatusOK,
			expected: `{"message":"book fetched","book":{"id":"0db0b43e-dddb-47ad-9b4a-e5fe9ec7c2a9","title":"Coco raconte Channel 2","years":1990,"pages":400}}`,
		},
		{
			name:     "should fail: book missing",
			id:       testBookID,
			repoErr:  ErrBookNotFound,
			status:   http.StatusBadRequest,
			expected: `{"message":"error fetching the book","details":"book not found"}`,
		},
		{
			name:     "should fail: blank id",
			id:       " ",
			status:   http.StatusBadRequest,
			expected: `{"message":"error fetching the book","details":"book id provided is not valid"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repoErr := tc.repoErr
			api := newTestBookAPI(&MockBookStorage{
				GetOneFunc: func(ctx context.Context, id string) (Book, error) {
					if repoErr != nil {
						return Book{}, repoErr
					}
					return testBook(), nil
				},
			}, NewMockUIDHandler(testBookID, true))
			w := httptest.NewRecorder()
			api.GetOneBook(w, httptest.NewRequest(http.MethodGet, "/book/"+url.PathEscape(tc.id), nil), idParam(tc.id))
			status, body := readJSONResponse(t, w)
			assert.Equal(t, tc.status, status)
			assert.JSONEq(t, tc.expected, body)
		})
	}
}

func TestCreateBookHandler(t *testing.T) {
	var stored []Book
	api := newTestBookAPI(&MockBookStorage{
		AddFunc: func(ctx context.Context, id string, book Book) error {
			stored = append(stored, book)
			return nil
		},
	}, NewMockUIDHandler(testBookID, true))

	t.Run("should pass: form payload", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.CreateBook(w, newFormRequest(http.MethodPost, "/book", bookForm(testBookTitle, "1990", "400")), nil)
		status, body := readJSONResponse(t, w)
		assert.Equal(t, http.StatusOK, status)
		expected := `{"message":"book successfully added","book":{"id":"0db0b43e-dddb-47ad-9b4a-e5fe9ec7c2a9","title":"Coco raconte Channel 2","years":1990,"pages":400}}`
		assert.JSONEq(t, expected, body)
		require.Len(t, stored, 1)
		assert.Equal(t, testBook(), stored[0])
	})

	t.Run("should pass: json payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/book", strings.NewReader(`{"title":"Coco raconte Channel 2","years":1990,"pages":400}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		api.CreateBook(w, req, nil)
		status, _ := readJSONResponse(t, w)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("should fail: invalid payload", func(t *testing.T) {
		testCases := []struct {
			name     string
			form     url.Values
			expected string
		}{
			{
				name:     "empty title",
				form:     bookForm("  ", "1990", "400"),
				expected: `{"message":"error adding the book","details":"title is required"}`,
			},
			{
				name:     "missing years",
				form:     url.Values{"title": {testBookTitle}, "pages": {"400"}},
				expected: `{"message":"error adding the book","details":"years is required"}`,
			},
			{
				name:     "non integer pages",
				form:     bookForm(testBookTitle, "1990", "many"),
				expected: `{"message":"error adding the book","details":"pages must be an integer"}`,
			},
			{
				name:     "negative pages",
				form:     bookForm(testBookTitle, "1990", "-1"),
				expected: `{"message":"error adding the book","details":"pages must not be negative"}`,
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				before := len(stored)
				w := httptest.NewRecorder()
				api.CreateBook(w, newFormRequest(http.MethodPost, "/book", tc.form), nil)
				status, body := readJSONResponse(t, w)
				assert.Equal(t, http.StatusBadRequest, status)
				assert.JSONEq(t, tc.expected, body)
				assert.Len(t, stored, before)
			})
		}
	})

	t.Run("should fail: storage failure", func(t *testing.T) {
		api := newTestBookAPI(&MockBookStorage{
			AddFunc: func(ctx context.Context, id string, book Book) error {
				return &PersistenceError{Op: "rename", Path: "books.json", Err: errors.New("permission denied")}
			},
		}, NewMockUIDHandler(testBookID, true))
		w := httptest.NewRecorder()
		api.CreateBook(w, newFormRequest(http.MethodPost, "/book", bookForm(testBookTitle, "1990", "400")), nil)
		status, body := readJSONResponse(t, w)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"message":"error adding the book"}`, body)
	})
}

func TestUpdateBookHandler(t *testing.T) {
	api := newTestBookAPI(&MockBookStorage{
		UpdateFunc: func(ctx context.Context, id string, book Book) (Book, error) {
			if id != testBookID {
				return Book{}, ErrBookNotFound
			}
			return book, nil
		},
	}, NewIDsHandler())

	t.Run("should pass: book exists", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := newFormRequest(http.MethodPut, "/book/"+testBookID, bookForm("something", "1337", "42"))
		api.UpdateBook(w, req, idParam(testBookID))
		status, body := readJSONResponse(t, w)
		assert.Equal(t, http.StatusOK, status)
		expected := `{"message":"book successfully updated","book":{"id":"0db0b43e-dddb-47ad-9b4a-e5fe9ec7c2a9","title":"something","years":1337,"pages":42}}`
		assert.JSONEq(t, expected, body)
	})

	t.Run("should fail: book missing", func(t *testing.T) {
		missingID := "f4c8d76e-0f83-4a3c-a3f4-7b1f2a6e0b55"
		w := httptest.NewRecorder()
		req := newFormRequest(http.MethodPut, "/book/"+missingID, bookForm("something", "1337", "42"))
		api.UpdateBook(w, req, idParam(missingID))
		status, body := readJSONResponse(t, w)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"message":"error updating the book","details":"book not found"}`, body)
	})

	t.Run("should fail: missing field", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := newFormRequest(http.MethodPut, "/book/"+testBookID, url.Values{"title": {"something"}, "years": {"1337"}})
		api.UpdateBook(w, req, idParam(testBookID))
		status, body := readJSONResponse(t, w)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"message":"error updating the book","details":"pages is required"}`, body)
	})
}

func TestDeleteOneBookHandler(t *testing.T) {
	api := newTestBookAPI(&MockBookStorage{
		DeleteFunc: func(ctx context.Context, id string) error {
			if id != testBookID {
				return ErrBookNotFound
			}
			return nil
		},
	}, NewIDsHandler())

	t.Run("should pass: book exists", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.DeleteOneBook(w, httptest.NewRequest(http.MethodDelete, "/book/"+testBookID, nil), idParam(testBookID))
		status, body := readJSONResponse(t, w)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"message":"book successfully deleted"}`, body)
	})

	t.Run("should fail: book missing", func(t *testing.T) {
		missingID := "f4c8d76e-0f83-4a3c-a3f4-7b1f2a6e0b55"
		w := httptest.NewRecorder()
		api.DeleteOneBook(w, httptest.NewRequest(http.MethodDelete, "/book/"+missingID, nil), idParam(missingID))
		status, body := readJSONResponse(t, w)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"message":"error deleting the book","details":"book not found"}`, body)
	})

	t.Run("should fail: blank id", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.DeleteOneBook(w, httptest.NewRequest(http.MethodDelete, "/book/%20", nil), idParam(" "))
		status, body := readJSONResponse(t, w)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"message":"error deleting the book","details":"book id provided is not valid"}`, body)
	})
}
