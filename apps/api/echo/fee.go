package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/fee"
)

const (
	exportCSV  = "csv"
	exportXLSX = "xlsx"

	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type feeApi struct {
	svc      fee.Service
	validate *validator.Validate
	now      func() time.Time
}

func registerFeeAPI(g *echo.Group, jwt, admin echo.MiddlewareFunc, deps *Deps) {
	api := feeApi{
		svc:      deps.FeeSvc,
		validate: deps.Validate,
		now:      deps.Now,
	}

	g.GET("/dashboard", api.dashboard, jwt, admin)

	fg := g.Group("/fees", jwt, admin)
	fg.GET("/register", api.register)
	fg.GET("/register/export", api.exportRegister)
	fg.GET("/pending-dues", api.pendingDues)

	pg := fg.Group("/payments")
	pg.POST("", api.record)
	pg.GET("/:id", api.retrieve)
	pg.PUT("/:id", api.update)
	pg.DELETE("/:id", api.destroy)
}

// scope reads `?month=&year=`, defaulting to the current month.
func (api *feeApi) scope(ctx echo.Context) (fee.Scope, error) {
	now := api.now()
	sc := fee.Scope{Month: core.MonthName(now.Month())}

	if val := ctx.QueryParam("month"); strings.TrimSpace(val) != "" {
		month, ok := core.NormalizeMonth(val)
		if !ok {
			return sc, core.NewValidationError(nil, core.FieldError{Field: "month", Error: "must be a valid month name"})
		}
		sc.Month = month
	}

	year, err := queryInt(ctx, "year", now.Year())
	if err != nil {
		return sc, err
	}
	sc.Year = year
	return sc, nil
}

func (api *feeApi) record(ctx echo.Context) error {
	var data fee.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Record(data)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *feeApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding payment by ID")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *feeApi) update(ctx echo.Context) error {
	p, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding payment by ID")
	}

	var data fee.UpdatePayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err = api.svc.Update(p, data)
	if err != nil {
		return errors.Wrap(err, "updating payment")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *feeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting payment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *feeApi) loadRegister(ctx echo.Context) (*fee.Register, error) {
	sc, err := api.scope(ctx)
	if err != nil {
		return nil, err
	}
	filter := fee.RegisterFilter{
		ClassLevel: ctx.QueryParam("class"),
		Status:     ctx.QueryParam("status"),
		Search:     ctx.QueryParam("search"),
	}
	filter.Clean()
	return api.svc.Register(ctx.Request().Context(), sc, filter)
}

func (api *feeApi) register(ctx echo.Context) error {
	reg, err := api.loadRegister(ctx)
	if err != nil {
		return errors.Wrap(err, "loading register")
	}
	return ctx.JSON(http.StatusOK, reg)
}

// exportRegister downloads the (filtered) register as `?format=csv` (default) or `?format=xlsx`.
func (api *feeApi) exportRegister(ctx echo.Context) error {
	format := core.CleanString(ctx.QueryParam("format"), true /* lower */)
	if format == "" {
		format = exportCSV
	}
	if format != exportCSV && format != exportXLSX {
		return core.NewValidationError(nil, core.FieldError{Field: "format", Error: "must be one of: csv, xlsx"})
	}

	reg, err := api.loadRegister(ctx)
	if err != nil {
		return errors.Wrap(err, "loading register")
	}

	var buf bytes.Buffer
	contentType := "text/csv; charset=utf-8"
	if format == exportXLSX {
		contentType = mimeXLSX
		err = reg.WriteXLSX(&buf)
	} else {
		err = reg.WriteCSV(&buf)
	}
	if err != nil {
		return errors.Wrap(err, "writing register")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", reg.Filename(format)))
	return ctx.Blob(http.StatusOK, contentType, buf.Bytes())
}

// pendingDues reports the students with unpaid rows for `?year=` (0 for all years) & `?class=`.
func (api *feeApi) pendingDues(ctx echo.Context) error {
	year, err := queryInt(ctx, "year", api.now().Year())
	if err != nil {
		return err
	}
	class := core.CleanString(ctx.QueryParam("class"))
	if class == "all" {
		class = ""
	}

	report, err := api.svc.PendingDues(ctx.Request().Context(), year, class)
	if err != nil {
		return errors.Wrap(err, "computing pending dues")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *feeApi) dashboard(ctx echo.Context) error {
	d, err := api.svc.Dashboard(ctx.Request().Context(), api.now())
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, d)
}
