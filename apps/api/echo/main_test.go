package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/madrasa/apps/api/echo"
	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/academic"
	"github.com/trezcool/madrasa/core/fee"
	"github.com/trezcool/madrasa/core/notice"
	"github.com/trezcool/madrasa/core/reminder"
	"github.com/trezcool/madrasa/core/staff"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/user"
	emailsvc "github.com/trezcool/madrasa/services/email"
	"github.com/trezcool/madrasa/services/notify"
	inmemdb "github.com/trezcool/madrasa/storage/database/inmem"
	"github.com/trezcool/madrasa/testutil"
)

// now is the frozen clock of the API under test: March 2025.
var now = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// rawFeeRepository can store rows the services would reject.
type rawFeeRepository interface {
	fee.Repository
	InsertRaw(p fee.Payment)
}

type fixture struct {
	app    Server
	conf   *core.Config
	logger *testutil.Logger

	usrSvc       *user.ServiceMock
	usrRepo      user.Repository
	studentRepo  student.Repository
	feeRepo      rawFeeRepository
	reminderRepo reminder.Repository
	noticeRepo   notice.Repository
	staffRepo    staff.Repository

	admin      user.User
	adminToken string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	emailsvc.ClearSentMessages()
	t.Cleanup(emailsvc.ClearSentMessages)

	// set up DB & repos
	db := inmemdb.Open()
	conf := testutil.Config()
	logger := &testutil.Logger{}
	f := &fixture{
		conf:         conf,
		logger:       logger,
		usrRepo:      inmemdb.NewUserRepository(db),
		studentRepo:  inmemdb.NewStudentRepository(db),
		feeRepo:      inmemdb.NewFeeRepository(db),
		reminderRepo: inmemdb.NewReminderRepository(db),
		noticeRepo:   inmemdb.NewNoticeRepository(db),
		staffRepo:    inmemdb.NewStaffRepository(db),
	}

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	f.usrSvc = user.NewServiceMock(f.usrRepo, mailSvc, conf)
	studentSvc := student.NewService(f.studentRepo, f.feeRepo, conf)
	feeSvc := fee.NewService(f.feeRepo, studentSvc)
	reminderSvc := reminder.NewService(f.reminderRepo, feeSvc, notify.Channels(mailSvc, logger, conf), conf, logger)
	validate, translator := testutil.ValidatorWithTranslator(conf)

	// set up server
	f.app = NewServer(
		"",  /* addr */
		nil, /* shutdown */
		&Deps{
			Conf:           conf,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
			Now:            func() time.Time { return now },
			UserSvc:        f.usrSvc,
			StudentSvc:     studentSvc,
			FeeSvc:         feeSvc,
			ReminderSvc:    reminderSvc,
			NoticeSvc:      notice.NewService(f.noticeRepo),
			StaffSvc:       staff.NewService(f.staffRepo),
			AcademicSvc:    academic.NewService(inmemdb.NewAcademicRepository(db), conf),
		},
	)

	f.admin = testutil.CreateUser(t, f.usrRepo, "Admin", "admin", "admin@madrasa.test", "Pwd-123-Secure!", true)
	f.adminToken = getToken(t, f.admin, conf)
	return f
}

// do serves a request and returns the recorder.
func (f *fixture) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	f.app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User, conf *core.Config) string {
	claims := GetUserClaims(usr, conf)
	token, err := GenerateToken(claims, conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	if _, ok := j2.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app Server, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
