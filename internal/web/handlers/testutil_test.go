package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mkrejcir/face-attendance/internal/database"
	"github.com/mkrejcir/face-attendance/internal/database/mock"
	"github.com/mkrejcir/face-attendance/internal/facematch"
	"github.com/mkrejcir/face-attendance/internal/filestore"
	"github.com/mkrejcir/face-attendance/internal/ingest"
)

// testEnv bundles the mock stores and a real file store in a temp dir.
type testEnv struct {
	students *mock.StudentStore
	ledger   *mock.Ledger
	files    *filestore.Store
	pipeline *ingest.Pipeline
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	files, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	students := mock.NewStudentStore()
	ledger := mock.NewLedger()
	selector := facematch.NewSelector(facematch.NewSizeRatioComparator(files), 0.5)
	return &testEnv{
		students: students,
		ledger:   ledger,
		files:    files,
		pipeline: ingest.New(students, ledger, files, selector),
	}
}

// registerStudent stores a face of the given size and creates the student.
func (env *testEnv) registerStudent(t *testing.T, studentID, name string, faceSize int) database.Student {
	t.Helper()
	facePath, err := env.files.Save(filestore.NamespaceFaces, studentID, studentID+".jpg", make([]byte, faceSize))
	if err != nil {
		t.Fatalf("failed to store face: %v", err)
	}
	student, err := env.students.Create(context.Background(), database.Student{
		StudentID: studentID, Name: name, FaceImagePath: facePath,
	})
	if err != nil {
		t.Fatalf("failed to create student: %v", err)
	}
	return student
}

// multipartRequest builds a multipart POST with form fields and one file.
func multipartRequest(t *testing.T, path string, fields map[string]string, fileField, fileName string, fileData []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(fileData); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}

// jpegBytes encodes a solid test image of the given dimensions.
func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}
