package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core/academic"
)

type academicApi struct {
	svc      academic.Service
	validate *validator.Validate
}

func registerAcademicAPI(g *echo.Group, jwt, admin echo.MiddlewareFunc, deps *Deps) {
	api := academicApi{svc: deps.AcademicSvc, validate: deps.Validate}

	cg := g.Group("/class-levels", jwt, admin)
	cg.GET("", api.classes)
	cg.POST("", api.createClass)
	cg.PUT("/:id", api.updateClass)
	cg.DELETE("/:id", api.deleteClass)

	yg := g.Group("/academic-years", jwt, admin)
	yg.GET("", api.years)
	yg.POST("", api.createYear)
	yg.DELETE("/:id", api.deleteYear)
	yg.POST("/:id/set-current", api.setCurrent)
}

// Class levels

func (api *academicApi) classes(ctx echo.Context) error {
	classes, err := api.svc.Classes()
	if err != nil {
		return errors.Wrap(err, "listing class levels")
	}
	if classes == nil {
		classes = []academic.ClassLevel{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *academicApi) createClass(ctx echo.Context) error {
	var data academic.NewClassLevel
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassLevel")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	cl, err := api.svc.CreateClass(data)
	if err != nil {
		return errors.Wrap(err, "creating class level")
	}
	return ctx.JSON(http.StatusCreated, cl)
}

func (api *academicApi) updateClass(ctx echo.Context) error {
	cl, err := api.svc.GetClass(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding class level by ID")
	}

	var data academic.UpdateClassLevel
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClassLevel")
	}
	if err := data.Validate(cl, api.validate, api.svc); err != nil {
		return err
	}

	cl, err = api.svc.UpdateClass(cl, data)
	if err != nil {
		return errors.Wrap(err, "updating class level")
	}
	return ctx.JSON(http.StatusOK, cl)
}

func (api *academicApi) deleteClass(ctx echo.Context) error {
	if err := api.svc.DeleteClass(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class level")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Academic years

func (api *academicApi) years(ctx echo.Context) error {
	years, err := api.svc.Years()
	if err != nil {
		return errors.Wrap(err, "listing academic years")
	}
	if years == nil {
		years = []academic.AcademicYear{}
	}
	return ctx.JSON(http.StatusOK, years)
}

func (api *academicApi) createYear(ctx echo.Context) error {
	var data academic.NewAcademicYear
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAcademicYear")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	ay, err := api.svc.CreateYear(data)
	if err != nil {
		return errors.Wrap(err, "creating academic year")
	}
	return ctx.JSON(http.StatusCreated, ay)
}

func (api *academicApi) deleteYear(ctx echo.Context) error {
	if err := api.svc.DeleteYear(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting academic year")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *academicApi) setCurrent(ctx echo.Context) error {
	ay, err := api.svc.SetCurrent(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "setting current academic year")
	}
	return ctx.JSON(http.StatusOK, ay)
}
