package academic_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/academic"
	inmemdb "github.com/trezcool/madrasa/storage/database/inmem"
	"github.com/trezcool/madrasa/testutil"
)

func setup(t *testing.T) academic.Service {
	t.Helper()
	return academic.NewService(inmemdb.NewAcademicRepository(inmemdb.Open()), testutil.Config())
}

func TestService_Classes(t *testing.T) {
	svc := setup(t)
	validate := testutil.Validator(testutil.Config())

	nc := academic.NewClassLevel{Name: " Hifz ", OrderIndex: 2}
	require.NoError(t, nc.Validate(validate, svc))
	hifz, err := svc.CreateClass(nc)
	require.NoError(t, err)
	assert.Equal(t, "Hifz", hifz.Name)
	assert.True(t, decimal.NewFromInt(1000).Equal(hifz.MonthlyFee), "defaults to the institute fee")

	fee := decimal.NewFromInt(500)
	nazra, err := svc.CreateClass(academic.NewClassLevel{Name: "Nazra", MonthlyFee: &fee, OrderIndex: 1})
	require.NoError(t, err)

	classes, err := svc.Classes()
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, nazra.ID, classes[0].ID)

	t.Run("names are unique ignoring case", func(t *testing.T) {
		nc := academic.NewClassLevel{Name: "HIFZ"}
		err := nc.Validate(validate, svc)
		verr, ok := err.(*core.ValidationError)
		require.True(t, ok, "want *core.ValidationError, got %v", err)
		assert.Equal(t, academic.ErrClassExists, verr.Err)
	})

	t.Run("rename keeps own name", func(t *testing.T) {
		uc := academic.UpdateClassLevel{Name: "Hifz"}
		assert.NoError(t, uc.Validate(hifz, validate, svc))

		uc = academic.UpdateClassLevel{Name: "nazra"}
		assert.Error(t, uc.Validate(hifz, validate, svc))
	})

	t.Run("update and delete", func(t *testing.T) {
		desc := " Memorisation "
		updated, err := svc.UpdateClass(hifz, academic.UpdateClassLevel{Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, "Memorisation", updated.Description.String)

		require.NoError(t, svc.DeleteClass(hifz.ID))
		_, err = svc.GetClass(hifz.ID)
		assert.Equal(t, academic.ErrClassNotFound, err)
	})
}

func TestService_Years(t *testing.T) {
	svc := setup(t)
	validate := testutil.Validator(testutil.Config())

	ny := academic.NewAcademicYear{YearName: "2024-2025"}
	require.NoError(t, ny.Validate(validate, svc))
	y1, err := svc.CreateYear(ny)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), y1.StartDate)
	assert.Equal(t, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), y1.EndDate)
	assert.False(t, y1.IsCurrent)

	y2, err := svc.CreateYear(academic.NewAcademicYear{YearName: "2025-2026", IsCurrent: true})
	require.NoError(t, err)
	assert.True(t, y2.IsCurrent)

	t.Run("duplicate name", func(t *testing.T) {
		ny := academic.NewAcademicYear{YearName: "2024-2025"}
		_, ok := ny.Validate(validate, svc).(*core.ValidationError)
		assert.True(t, ok)
	})

	t.Run("end before start", func(t *testing.T) {
		start := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 0, -1)
		ny := academic.NewAcademicYear{YearName: "2026-2027", StartDate: &start, EndDate: &end}
		verr, ok := ny.Validate(validate, svc).(*core.ValidationError)
		require.True(t, ok)
		assert.Equal(t, "end_date", verr.Fields[0].Field)
	})

	t.Run("only one current year", func(t *testing.T) {
		current, err := svc.SetCurrent(y1.ID)
		require.NoError(t, err)
		assert.True(t, current.IsCurrent)

		years, err := svc.Years()
		require.NoError(t, err)
		require.Len(t, years, 2)
		assert.Equal(t, y2.ID, years[0].ID, "latest first")
		assert.False(t, years[0].IsCurrent)
		assert.True(t, years[1].IsCurrent)

		_, err = svc.SetCurrent("unknown")
		assert.Equal(t, academic.ErrYearNotFound, err)
	})
}
