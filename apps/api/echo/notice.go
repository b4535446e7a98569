package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core/notice"
)

type noticeApi struct {
	svc      notice.Service
	validate *validator.Validate
	now      func() time.Time
}

func registerNoticeAPI(g *echo.Group, jwt, admin echo.MiddlewareFunc, deps *Deps) {
	api := noticeApi{
		svc:      deps.NoticeSvc,
		validate: deps.Validate,
		now:      deps.Now,
	}

	ng := g.Group("/notices")

	// un-authed: the public notice board
	ng.GET("/public", api.public)

	ag := ng.Group("", jwt, admin)
	ag.GET("", api.list)
	ag.POST("", api.create)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
	ag.POST("/:id/toggle-publish", api.togglePublish)
}

func (api *noticeApi) public(ctx echo.Context) error {
	notices, err := api.svc.Public(api.now())
	if err != nil {
		return errors.Wrap(err, "listing public notices")
	}
	if notices == nil {
		notices = []notice.Notice{}
	}
	return ctx.JSON(http.StatusOK, notices)
}

func (api *noticeApi) list(ctx echo.Context) error {
	notices, err := api.svc.List()
	if err != nil {
		return errors.Wrap(err, "listing notices")
	}
	if notices == nil {
		notices = []notice.Notice{}
	}
	return ctx.JSON(http.StatusOK, notices)
}

func (api *noticeApi) create(ctx echo.Context) error {
	var data notice.NewNotice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotice")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating notice")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *noticeApi) retrieve(ctx echo.Context) error {
	n, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding notice by ID")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *noticeApi) update(ctx echo.Context) error {
	n, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding notice by ID")
	}

	var data notice.UpdateNotice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateNotice")
	}
	if err := data.Validate(n, api.validate); err != nil {
		return err
	}

	n, err = api.svc.Update(n, data)
	if err != nil {
		return errors.Wrap(err, "updating notice")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *noticeApi) togglePublish(ctx echo.Context) error {
	n, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding notice by ID")
	}

	n, err = api.svc.TogglePublish(n)
	if err != nil {
		return errors.Wrap(err, "toggling notice")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *noticeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting notice")
	}
	return ctx.NoContent(http.StatusNoContent)
}
