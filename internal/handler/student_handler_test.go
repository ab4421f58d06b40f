package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/yellowcard-api/internal/models"
	"github.com/noah-isme/yellowcard-api/internal/service"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
)

type studentServiceMock struct {
	students  []models.Student
	created   service.CreateStudentRequest
	lastGrade int
	err       error
}

func (m *studentServiceMock) List(ctx context.Context, grade int) ([]models.Student, error) {
	m.lastGrade = grade
	if m.err != nil {
		return nil, m.err
	}
	return m.students, nil
}

func (m *studentServiceMock) Get(ctx context.Context, id int64) (*models.Student, error) {
	for _, s := range m.students {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

func (m *studentServiceMock) Create(ctx context.Context, req service.CreateStudentRequest) (*models.Student, error) {
	m.created = req
	return &models.Student{ID: 10, FullName: req.FullName, Grade: req.Grade}, nil
}

func (m *studentServiceMock) Logs(ctx context.Context, id int64) ([]models.StudentLog, error) {
	return []models.StudentLog{{ID: 1, StudentID: id, Description: "+1 YC (Uniform) [Current: 1 YC, 0 D]"}}, nil
}

func (m *studentServiceMock) Delete(ctx context.Context, id int64) error {
	return m.err
}

func TestStudentHandlerList(t *testing.T) {
	svc := &studentServiceMock{students: []models.Student{{ID: 1, FullName: "Ana", Grade: 7}}}
	h := NewStudentHandler(svc)

	c, w := newGinContext(http.MethodGet, "/students?grade=7", nil)
	h.List(c)

	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, 7, svc.lastGrade)
	env := decodeEnvelope(t, w)
	var students []models.Student
	require.NoError(t, json.Unmarshal(env.Data, &students))
	require.Len(t, students, 1)
	assert.Equal(t, "Ana", students[0].FullName)
	assert.Contains(t, string(env.Data), `"fullName":"Ana"`)
	assert.Contains(t, string(env.Data), `"yellowCards":0`)
}

func TestStudentHandlerListBadGrade(t *testing.T) {
	h := NewStudentHandler(&studentServiceMock{})

	c, w := newGinContext(http.MethodGet, "/students?grade=seven", nil)
	h.List(c)

	assertStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
}

func TestStudentHandlerCreate(t *testing.T) {
	svc := &studentServiceMock{}
	h := NewStudentHandler(svc)

	c, w := newGinContext(http.MethodPost, "/students", []byte(`{"fullName":"Ben","grade":8}`))
	h.Create(c)

	assertStatus(t, w, http.StatusCreated)
	assert.Equal(t, "Ben", svc.created.FullName)
	assert.Equal(t, 8, svc.created.Grade)
}

func TestStudentHandlerCreateMalformed(t *testing.T) {
	h := NewStudentHandler(&studentServiceMock{})

	c, w := newGinContext(http.MethodPost, "/students", []byte(`{"fullName":`))
	h.Create(c)

	assertStatus(t, w, http.StatusBadRequest)
}

func TestStudentHandlerGetNotFound(t *testing.T) {
	h := NewStudentHandler(&studentServiceMock{})

	c, w := newGinContext(http.MethodGet, "/students/4", nil)
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	h.Get(c)

	assertStatus(t, w, http.StatusNotFound)
}

func TestStudentHandlerInvalidID(t *testing.T) {
	h := NewStudentHandler(&studentServiceMock{})

	c, w := newGinContext(http.MethodGet, "/students/abc/logs", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Logs(c)

	assertStatus(t, w, http.StatusBadRequest)
}

func TestStudentHandlerLogs(t *testing.T) {
	h := NewStudentHandler(&studentServiceMock{})

	c, w := newGinContext(http.MethodGet, "/students/3/logs", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	h.Logs(c)

	assertStatus(t, w, http.StatusOK)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"studentId":3`)
}

func TestStudentHandlerDelete(t *testing.T) {
	h := NewStudentHandler(&studentServiceMock{})

	c, w := newGinContext(http.MethodDelete, "/students/3", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	h.Delete(c)
	c.Writer.WriteHeaderNow()

	assertStatus(t, w, http.StatusNoContent)
}

func TestStudentHandlerDependencyFailure(t *testing.T) {
	h := NewStudentHandler(&studentServiceMock{err: appErrors.Clone(appErrors.ErrDependency, "failed to list students")})

	c, w := newGinContext(http.MethodGet, "/students?grade=7", nil)
	h.List(c)

	assertStatus(t, w, http.StatusBadGateway)
}
