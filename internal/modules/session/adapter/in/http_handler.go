package in

import (
	"net/http"

	"github.com/labstack/echo/v4"

	sessiondto "saferun/internal/modules/session/dto"
	sessionin "saferun/internal/modules/session/port/in"
)

type HTTPHandler struct {
	usecase sessionin.Usecase
}

func NewHTTPHandler(usecase sessionin.Usecase) *HTTPHandler {
	return &HTTPHandler{usecase: usecase}
}

func (h *HTTPHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/sessions", h.startTimer)
	g.POST("/route-sessions", h.startRoute)
	g.GET("/sessions/:id", h.get)
	g.GET("/owners/:owner_id/sessions", h.list)
	g.PATCH("/sessions/:id/checkin", h.checkIn)
	g.PATCH("/sessions/:id/extend", h.extend)
	g.POST("/sessions/:id/panic", h.triggerPanic)
	g.PATCH("/sessions/:id/end", h.end)
	g.PATCH("/sessions/:id/position", h.position)
}

func (h *HTTPHandler) startTimer(c echo.Context) error {
	var req sessiondto.StartTimerInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	out, err := h.usecase.StartTimer(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *HTTPHandler) startRoute(c echo.Context) error {
	var req sessiondto.StartRouteInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	out, err := h.usecase.StartRoute(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *HTTPHandler) get(c echo.Context) error {
	out, err := h.usecase.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) list(c echo.Context) error {
	out, err := h.usecase.ListByOwner(c.Request().Context(), c.Param("owner_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"sessions": out})
}

func (h *HTTPHandler) checkIn(c echo.Context) error {
	var req sessiondto.CheckInInput
	if err := bindOptional(c, &req); err != nil {
		return err
	}
	req.SessionID = c.Param("id")
	out, err := h.usecase.CheckIn(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) extend(c echo.Context) error {
	var req sessiondto.ExtendInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.SessionID = c.Param("id")
	out, err := h.usecase.Extend(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) triggerPanic(c echo.Context) error {
	out, err := h.usecase.Panic(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) end(c echo.Context) error {
	out, err := h.usecase.End(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) position(c echo.Context) error {
	var req sessiondto.PositionInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.SessionID = c.Param("id")
	out, err := h.usecase.UpdatePosition(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// bindOptional accepts an empty body so a bare PATCH counts as a safe check-in.
func bindOptional(c echo.Context, dst any) error {
	if c.Request().ContentLength == 0 {
		return nil
	}
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}
