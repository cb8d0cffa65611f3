package in

import (
	"net/http"

	"github.com/labstack/echo/v4"

	contactdto "saferun/internal/modules/contact/dto"
	contactin "saferun/internal/modules/contact/port/in"
)

type HTTPHandler struct {
	usecase contactin.Usecase
}

func NewHTTPHandler(usecase contactin.Usecase) *HTTPHandler {
	return &HTTPHandler{usecase: usecase}
}

func (h *HTTPHandler) RegisterRoutes(g *echo.Group) {
	g.PUT("/contacts/:owner_id", h.set)
	g.GET("/contacts/:owner_id", h.get)
}

func (h *HTTPHandler) set(c echo.Context) error {
	var req contactdto.SetInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.OwnerID = c.Param("owner_id")
	out, err := h.usecase.Set(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) get(c echo.Context) error {
	out, err := h.usecase.Get(c.Request().Context(), c.Param("owner_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
