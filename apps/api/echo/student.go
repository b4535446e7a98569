package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core/fee"
	"github.com/trezcool/madrasa/core/student"
)

type studentApi struct {
	svc      student.Service
	feeSvc   fee.Service
	validate *validator.Validate
	now      func() time.Time
}

func registerStudentAPI(g *echo.Group, deps *Deps) {
	api := studentApi{
		svc:      deps.StudentSvc,
		feeSvc:   deps.FeeSvc,
		validate: deps.Validate,
		now:      deps.Now,
	}

	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/statuses", api.statuses)

	dg := g.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/fees", api.fees)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) statuses(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, student.Statuses)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	s, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(s, api.validate, api.svc); err != nil {
		return err
	}

	s, err = api.svc.Update(s, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// fees returns the month-by-month fee view of a student for `?year=` (current year by default).
func (api *studentApi) fees(ctx echo.Context) error {
	year, err := queryInt(ctx, "year", api.now().Year())
	if err != nil {
		return err
	}

	sy, err := api.feeSvc.StudentYear(ctx.Request().Context(), ctx.Param("id"), year)
	if err != nil {
		return errors.Wrap(err, "building student fee year")
	}
	return ctx.JSON(http.StatusOK, sy)
}
