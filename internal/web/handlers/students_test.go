package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStudentsRegister(t *testing.T) {
	env := newTestEnv(t)
	handler := NewStudentsHandler(env.students, env.files, 0)

	req := multipartRequest(t, "/api/v1/students", map[string]string{
		"student_id":    "S1",
		"name":          "Jana Nováková",
		"email":         "jana@example.com",
		"class_section": "4B",
	}, "face", "jana.jpg", jpegBytes(t, 100, 100))
	recorder := httptest.NewRecorder()

	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)
	var resp studentResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.StudentID != "S1" || resp.Name != "Jana Nováková" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if !strings.HasPrefix(resp.FaceImagePath, "faces/") {
		t.Errorf("face image must land in the faces namespace, got %q", resp.FaceImagePath)
	}
	if _, err := env.files.Read(resp.FaceImagePath); err != nil {
		t.Errorf("face image not stored: %v", err)
	}
}

func TestStudentsRegister_MissingFields(t *testing.T) {
	env := newTestEnv(t)
	handler := NewStudentsHandler(env.students, env.files, 0)

	tests := []struct {
		name    string
		fields  map[string]string
		message string
	}{
		{"missing student id", map[string]string{"name": "A"}, "student_id is required"},
		{"missing name", map[string]string{"student_id": "S1"}, "name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, "/api/v1/students", tt.fields, "face", "f.jpg", jpegBytes(t, 10, 10))
			recorder := httptest.NewRecorder()
			handler.Register(recorder, req)
			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, tt.message)
		})
	}
}

func TestStudentsRegister_EscapingStudentID(t *testing.T) {
	env := newTestEnv(t)
	handler := NewStudentsHandler(env.students, env.files, 0)

	for _, id := range []string{"../../pwned", "a/b", `a\b`, ".."} {
		req := multipartRequest(t, "/api/v1/students",
			map[string]string{"student_id": id, "name": "A"},
			"face", "x.jpg", jpegBytes(t, 10, 10))
		recorder := httptest.NewRecorder()
		handler.Register(recorder, req)

		assertStatusCode(t, recorder, http.StatusBadRequest)
		assertJSONError(t, recorder, "student_id must not contain path separators")
	}
	if n, _ := env.students.Count(context.Background()); n != 0 {
		t.Errorf("students created from rejected ids: %d", n)
	}
}

func TestStudentsRegister_MissingFaceIsAllowed(t *testing.T) {
	env := newTestEnv(t)
	handler := NewStudentsHandler(env.students, env.files, 0)

	req := multipartRequest(t, "/api/v1/students",
		map[string]string{"student_id": "S1", "name": "A"}, "", "", nil)
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)
	var resp studentResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.FaceImagePath != "" {
		t.Errorf("expected no face image path, got %q", resp.FaceImagePath)
	}
}

func TestStudentsRegister_UndecodableImageStoredVerbatim(t *testing.T) {
	env := newTestEnv(t)
	handler := NewStudentsHandler(env.students, env.files, 1600)

	raw := []byte("not an image")
	req := multipartRequest(t, "/api/v1/students",
		map[string]string{"student_id": "S1", "name": "A"},
		"face", "f.jpg", raw)
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)
	var resp studentResponse
	parseJSONResponse(t, recorder, &resp)
	stored, err := env.files.Read(resp.FaceImagePath)
	if err != nil {
		t.Fatalf("face image not stored: %v", err)
	}
	if string(stored) != string(raw) {
		t.Error("undecodable face image was not stored verbatim")
	}
}

func TestStudentsRegister_ClassSectionAliases(t *testing.T) {
	env := newTestEnv(t)
	handler := NewStudentsHandler(env.students, env.files, 0)

	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{"class alias", map[string]string{"student_id": "S1", "name": "A", "class": "4B"}, "4B"},
		{"course alias", map[string]string{"student_id": "S2", "name": "B", "course": "CS101"}, "CS101"},
		{"canonical wins", map[string]string{"student_id": "S3", "name": "C", "class_section": "5A", "class": "4B"}, "5A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, "/api/v1/students", tt.fields, "", "", nil)
			recorder := httptest.NewRecorder()
			handler.Register(recorder, req)

			assertStatusCode(t, recorder, http.StatusCreated)
			var resp studentResponse
			parseJSONResponse(t, recorder, &resp)
			if resp.ClassSection != tt.want {
				t.Errorf("class section = %q, want %q", resp.ClassSection, tt.want)
			}
		})
	}
}

func TestStudentsRegister_DuplicateCleansUpFace(t *testing.T) {
	env := newTestEnv(t)
	env.registerStudent(t, "S1", "First", 100)
	handler := NewStudentsHandler(env.students, env.files, 0)

	req := multipartRequest(t, "/api/v1/students",
		map[string]string{"student_id": "S1", "name": "Second"},
		"face", "other.jpg", jpegBytes(t, 50, 50))
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusConflict)
	// The collision-suffixed face file from the failed attempt must be gone.
	if _, err := env.files.Read("faces/S1_1.jpg"); err == nil {
		t.Error("orphaned face image from failed registration was not removed")
	}
}

func TestStudentsList_SortsByNormalizedName(t *testing.T) {
	env := newTestEnv(t)
	env.registerStudent(t, "S1", "Žofie", 10)
	env.registerStudent(t, "S2", "adam", 10)
	env.registerStudent(t, "S3", "Éva", 10)
	handler := NewStudentsHandler(env.students, env.files, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
	recorder := httptest.NewRecorder()
	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var resp struct {
		Count    int               `json:"count"`
		Students []studentResponse `json:"students"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Count != 3 {
		t.Fatalf("count = %d, want 3", resp.Count)
	}
	got := []string{resp.Students[0].Name, resp.Students[1].Name, resp.Students[2].Name}
	want := []string{"adam", "Éva", "Žofie"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestStudentsGet(t *testing.T) {
	env := newTestEnv(t)
	env.registerStudent(t, "S1", "Jana", 10)
	handler := NewStudentsHandler(env.students, env.files, 0)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/v1/students/S1", nil),
		map[string]string{"studentId": "S1"})
	recorder := httptest.NewRecorder()
	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	req = requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/v1/students/NOPE", nil),
		map[string]string{"studentId": "NOPE"})
	recorder = httptest.NewRecorder()
	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestStudentsDelete_RemovesFaceImage(t *testing.T) {
	env := newTestEnv(t)
	student := env.registerStudent(t, "S1", "Jana", 10)
	handler := NewStudentsHandler(env.students, env.files, 0)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodDelete, "/api/v1/students/S1", nil),
		map[string]string{"studentId": "S1"})
	recorder := httptest.NewRecorder()
	handler.Delete(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	if _, err := env.students.GetByStudentID(context.Background(), "S1"); err == nil {
		t.Error("student still present after delete")
	}
	if _, err := env.files.Read(student.FaceImagePath); err == nil {
		t.Error("face image still present after delete")
	}
}

func TestStudentsDelete_Unknown(t *testing.T) {
	env := newTestEnv(t)
	handler := NewStudentsHandler(env.students, env.files, 0)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodDelete, "/api/v1/students/NOPE", nil),
		map[string]string{"studentId": "NOPE"})
	recorder := httptest.NewRecorder()
	handler.Delete(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
}
