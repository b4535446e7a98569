package logsvc

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/user"
)

func TestRollbarLogger(t *testing.T) {
	conf := &core.Config{Env: "TEST", Debug: true}
	var out bytes.Buffer
	logger := NewRollbarLogger(NewConsole(&out, "API", conf.Debug), conf)

	logger.Info("payment recorded", map[string]interface{}{"student_id": "s1"}, user.User{Username: "admin"})
	logger.Error("reconciling ledger", errors.New("duplicate ledger key"))
	logger.Debug("debug line")

	got := out.String()
	assert.Contains(t, got, "subsystem=API")
	assert.Contains(t, got, `msg="payment recorded"`)
	assert.Contains(t, got, "student_id=s1")
	assert.Contains(t, got, "user=admin")
	assert.Contains(t, got, `error="duplicate ledger key"`)
	assert.Contains(t, got, `msg="debug line"`)
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := RollbarLogger{}
	err := errors.New("boom")
	args := logger.prepare("msg", []interface{}{err, user.User{ID: "1"}, user.User{ID: "2"}})
	assert.Equal(t, []interface{}{"msg", err}, args)
}
