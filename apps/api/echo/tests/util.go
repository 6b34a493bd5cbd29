package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/solarsys/apps/api/echo"
	"github.com/trezcool/solarsys/core"
	"github.com/trezcool/solarsys/core/material"
	"github.com/trezcool/solarsys/core/planet"
	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/question"
	"github.com/trezcool/solarsys/core/quiz"
	"github.com/trezcool/solarsys/core/report"
	"github.com/trezcool/solarsys/core/user"
	appfs "github.com/trezcool/solarsys/fs"
	emailsvc "github.com/trezcool/solarsys/services/email"
	logsvc "github.com/trezcool/solarsys/services/logger"
	inmemdb "github.com/trezcool/solarsys/storage/database/inmem"
	testutil "github.com/trezcool/solarsys/tests"
)

const testPassword = "Sup3r-Nova!"

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

// testApp is an API server over a fresh in-memory store seeded with the planets.
type testApp struct {
	*echoapi.Server
	conf      *core.Config
	users     user.Repository
	materials material.Repository
	questions question.Repository
	attempts  quiz.Repository
	progress  progress.Repository
	mail      *emailsvc.ConsoleService
}

func setup(t *testing.T) testApp {
	t.Helper()
	conf := testutil.NewConfig()
	require.NoError(t, core.ParseEmailTemplates(appfs.FS, conf))

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	planetRepo := inmemdb.NewPlanetRepository(db)
	materialRepo := inmemdb.NewMaterialRepository(db)
	questionRepo := inmemdb.NewQuestionRepository(db)
	attemptRepo := inmemdb.NewAttemptRepository(db)
	progressRepo := inmemdb.NewProgressRepository(db)
	testutil.SeedPlanets(t, planetRepo)

	// set up services
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	usrSvc := user.NewService(usrRepo, mailSvc)
	planetSvc := planet.NewService(planetRepo)
	questionSvc := question.NewService(questionRepo, planetSvc)
	ledger := progress.NewLedger(progressRepo, planetSvc, conf.Points)
	quizSvc := quiz.NewService(attemptRepo, questionSvc, planetSvc, ledger)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	question.InitValidators(validate, translator)

	// set up server
	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		PlanetSvc:      planetSvc,
		MaterialSvc:    material.NewService(materialRepo, planetSvc),
		QuestionSvc:    questionSvc,
		QuizSvc:        quizSvc,
		Ledger:         ledger,
		ReportSvc:      report.NewService(usrSvc, ledger, progressRepo, quizSvc, planetSvc),
		Validate:       validate,
		Translator:     translator,
	})

	return testApp{
		Server:    server,
		conf:      conf,
		users:     usrRepo,
		materials: materialRepo,
		questions: questionRepo,
		attempts:  attemptRepo,
		progress:  progressRepo,
		mail:      mailSvc,
	}
}

func (app testApp) createUser(t *testing.T, name, email, role string) user.User {
	return testutil.CreateUser(t, app.users, name, email, testPassword, role)
}

func (app testApp) token(t *testing.T, usr user.User) string {
	token, err := app.JWT().UserToken(usr)
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

func (app testApp) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
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

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decodeBody() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}
