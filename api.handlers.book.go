package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Books api response messages.
const (
	MsgBooksFetchFailed = "error fetching books"
	MsgBookFetched      = "book fetched"
	MsgBookFetchFailed  = "error fetching the book"
	MsgBookAdded        = "book successfully added"
	MsgBookAddFailed    = "error adding the book"
	MsgBookUpdated      = "book successfully updated"
	MsgBookUpdateFailed = "error updating the book"
	MsgBookDeleted      = "book successfully deleted"
	MsgBookDeleteFailed = "error deleting the book"
)

// fail logs the error and sends a 400 error response with the given message.
func (api *APIHandler) fail(w http.ResponseWriter, r *http.Request, logger *zap.Logger, message string, err error) {
	logger.Error(message, zap.Error(err))
	if err = WriteErrorResponse(r.Context(), w, http.StatusBadRequest, NewAPIError(message, err)); err != nil {
		logger.Error("failed to send error response", zap.Error(err))
	}
}

func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	books, err := api.bookService.List(r.Context())
	if err != nil {
		api.fail(w, r, logger, MsgBooksFetchFailed, err)
		return
	}
	logger.Info("success to get all books", zap.Int("books.total", len(books)))
	if err = WriteResponse(r.Context(), w, http.StatusOK, &BooksResponse{Books: books}); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", id))
	book, err := api.bookService.Get(r.Context(), id)
	if err != nil {
		api.fail(w, r, logger, MsgBookFetchFailed, err)
		return
	}
	logger.Info("success to get book")
	if err = WriteResponse(r.Context(), w, http.StatusOK, &BookResponse{Message: MsgBookFetched, Book: &book}); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	input, err := DecodeBookRequestBody(r)
	if err != nil {
		api.fail(w, r, logger, MsgBookAddFailed, err)
		return
	}

	book, err := api.bookService.Create(r.Context(), input)
	if err != nil {
		api.fail(w, r, logger, MsgBookAddFailed, err)
		return
	}
	logger.Info("success to create book", zap.String("book.id", book.ID))
	if err = WriteResponse(r.Context(), w, http.StatusOK, &BookResponse{Message: MsgBookAdded, Book: &book}); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", id))
	input, err := DecodeBookRequestBody(r)
	if err != nil {
		api.fail(w, r, logger, MsgBookUpdateFailed, err)
		return
	}

	book, err := api.bookService.Update(r.Context(), id, input)
	if err != nil {
		api.fail(w, r, logger, MsgBookUpdateFailed, err)
		return
	}
	logger.Info("success to update book")
	if err = WriteResponse(r.Context(), w, http.StatusOK, &BookResponse{Message: MsgBookUpdated, Book: &book}); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", id))
	if err := api.bookService.Delete(r.Context(), id); err != nil {
		api.fail(w, r, logger, MsgBookDeleteFailed, err)
		return
	}
	logger.Info("success to delete book")
	if err := WriteResponse(r.Context(), w, http.StatusOK, &BookResponse{Message: MsgBookDeleted}); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}
