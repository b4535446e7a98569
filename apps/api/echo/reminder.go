package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core/reminder"
)

const defaultRemindersLimit = 50

type reminderApi struct {
	svc      reminder.Service
	validate *validator.Validate
	now      func() time.Time
}

func registerReminderAPI(g *echo.Group, deps *Deps) {
	api := reminderApi{
		svc:      deps.ReminderSvc,
		validate: deps.Validate,
		now:      deps.Now,
	}

	g.GET("", api.recent)
	g.POST("/send", api.send)
	g.GET("/settings", api.settings)
	g.PUT("/settings", api.saveSettings)
}

func (api *reminderApi) recent(ctx echo.Context) error {
	limit, err := queryInt(ctx, "limit", defaultRemindersLimit)
	if err != nil {
		return err
	}

	reminders, err := api.svc.Recent(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "listing reminders")
	}
	if reminders == nil {
		reminders = []reminder.Reminder{}
	}
	return ctx.JSON(http.StatusOK, reminders)
}

func (api *reminderApi) send(ctx echo.Context) error {
	var data reminder.SendRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Send(ctx.Request().Context(), data, api.now())
	if err != nil {
		return errors.Wrap(err, "sending reminders")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *reminderApi) settings(ctx echo.Context) error {
	s, err := api.svc.Settings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading reminder settings")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *reminderApi) saveSettings(ctx echo.Context) error {
	var data reminder.UpdateSettings
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSettings")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.SaveSettings(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving reminder settings")
	}
	return ctx.JSON(http.StatusOK, s)
}
