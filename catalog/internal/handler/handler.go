package handler

import (
	"net/http"
	"strconv"
	"time"

	md "github.com/bookhive/catalog-service/pkg/middleware"

	"github.com/bookhive/catalog-service/catalog/internal/errs"
	"github.com/bookhive/catalog-service/catalog/internal/model"
	"github.com/bookhive/catalog-service/pkg/validate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Handler struct {
	catalogSvc CatalogService
	log        *zap.Logger
}

func New(catalogSvc CatalogService, log *zap.Logger) *Handler {
	return &Handler{
		catalogSvc: catalogSvc,
		log:        log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.GET("/books", h.GetBooks)
	api.POST("/books", h.CreateBook)
	api.GET("/books/search", h.SearchBooks)
	api.GET("/books/criteria", h.GetBooksByCriteria)
	api.GET("/books/category/:category", h.GetBooksByCategory)
	api.GET("/books/status/:status", h.GetBooksByStatus)
	api.GET("/books/:id", h.GetBook)
	api.PUT("/books/:id", h.UpdateBook)
	api.DELETE("/books/:id", h.DeleteBook)
	api.PATCH("/books/:id/status", h.UpdateBookStatus)
	api.POST("/books/:id/borrow", h.BorrowBook)
	api.POST("/books/:id/return", h.ReturnBook)
	api.GET("/books/:id/reservations", h.GetReservations)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) GetBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	book, err := h.catalogSvc.GetBook(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) GetBooks(c echo.Context) error {
	page, size, err := paging(c)
	if err != nil {
		return err
	}
	books, err := h.catalogSvc.ListBooks(c.Request().Context(), page, size)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) CreateBook(c echo.Context) error {
	var req model.BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	book, err := h.catalogSvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	var req model.BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	book, err := h.catalogSvc.UpdateBook(c.Request().Context(), id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	if err := h.catalogSvc.DeleteBook(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SearchBooks(c echo.Context) error {
	keyword := c.QueryParam("keyword")
	if keyword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "keyword is required")
	}
	page, size, err := paging(c)
	if err != nil {
		return err
	}
	books, err := h.catalogSvc.SearchBooks(c.Request().Context(), keyword, c.QueryParam("searchType"), page, size)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) GetBooksByCategory(c echo.Context) error {
	books, err := h.catalogSvc.BooksByCategory(c.Request().Context(), c.Param("category"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) GetBooksByStatus(c echo.Context) error {
	status := model.BookStatus(c.Param("status"))
	if !status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "status is invalid")
	}
	books, err := h.catalogSvc.BooksByStatus(c.Request().Context(), status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) GetBooksByCriteria(c echo.Context) error {
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		return err
	}
	page, size, err := paging(c)
	if err != nil {
		return err
	}
	books, err := h.catalogSvc.BooksByCriteria(c.Request().Context(), criteria, page, size)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) UpdateBookStatus(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	var req model.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	book, err := h.catalogSvc.UpdateBookStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) BorrowBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	var req model.BorrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	record, err := h.catalogSvc.BorrowBook(c.Request().Context(), id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, record)
}

func (h *Handler) ReturnBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	record, err := h.catalogSvc.ReturnBook(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}

func (h *Handler) GetReservations(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	reservations, err := h.catalogSvc.ReservationsByBook(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, reservations)
}

func bookID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id is invalid")
	}
	return id, nil
}

func paging(c echo.Context) (page, size int, err error) {
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if page, err = strconv.Atoi(pageParam); err != nil || page < 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "page is invalid")
		}
	}
	if sizeParam := c.QueryParam("size"); sizeParam != "" {
		if size, err = strconv.Atoi(sizeParam); err != nil || size < 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "size is invalid")
		}
	}
	return page, size, nil
}

func criteriaFromQuery(c echo.Context) (model.SearchCriteria, error) {
	var criteria model.SearchCriteria

	if category := c.QueryParam("category"); category != "" {
		criteria.Category = &category
	}
	if statusParam := c.QueryParam("status"); statusParam != "" {
		status := model.BookStatus(statusParam)
		if !status.Valid() {
			return model.SearchCriteria{}, echo.NewHTTPError(http.StatusBadRequest, "status is invalid")
		}
		criteria.Status = &status
	}
	if minParam := c.QueryParam("minPrice"); minParam != "" {
		minPrice, err := strconv.ParseFloat(minParam, 64)
		if err != nil {
			return model.SearchCriteria{}, echo.NewHTTPError(http.StatusBadRequest, "minPrice is invalid")
		}
		criteria.MinPrice = &minPrice
	}
	if maxParam := c.QueryParam("maxPrice"); maxParam != "" {
		maxPrice, err := strconv.ParseFloat(maxParam, 64)
		if err != nil {
			return model.SearchCriteria{}, echo.NewHTTPError(http.StatusBadRequest, "maxPrice is invalid")
		}
		criteria.MaxPrice = &maxPrice
	}
	if startParam := c.QueryParam("startDate"); startParam != "" {
		startDate, err := time.Parse(time.DateOnly, startParam)
		if err != nil {
			return model.SearchCriteria{}, echo.NewHTTPError(http.StatusBadRequest, "startDate is invalid")
		}
		criteria.StartDate = &startDate
	}
	if endParam := c.QueryParam("endDate"); endParam != "" {
		endDate, err := time.Parse(time.DateOnly, endParam)
		if err != nil {
			return model.SearchCriteria{}, echo.NewHTTPError(http.StatusBadRequest, "endDate is invalid")
		}
		criteria.EndDate = &endDate
	}

	return criteria, nil
}

func httpError(err error) *echo.HTTPError {
	var (
		notFound    *errs.NotFoundError
		unsupported *errs.UnsupportedSearchTypeError
	)
	switch {
	case errors.As(err, &notFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &unsupported),
		errors.Is(err, errs.ErrAlreadyBorrowed),
		errors.Is(err, errs.ErrNoOpenBorrow):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrDuplicateISBN):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
