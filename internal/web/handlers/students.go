package handlers

import (
	"errors"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mkrejcir/face-attendance/internal/database"
	"github.com/mkrejcir/face-attendance/internal/facematch"
	"github.com/mkrejcir/face-attendance/internal/filestore"
)

// FileStore is the slice of the file store the handlers need.
type FileStore interface {
	Save(namespace, prefix, originalName string, data []byte) (string, error)
	Read(rel string) ([]byte, error)
	Delete(rel string) error
}

// StudentsHandler handles student registration and management endpoints.
type StudentsHandler struct {
	students    database.StudentStore
	files       FileStore
	maxImageDim int
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(students database.StudentStore, files FileStore, maxImageDim int) *StudentsHandler {
	return &StudentsHandler{
		students:    students,
		files:       files,
		maxImageDim: maxImageDim,
	}
}

type studentResponse struct {
	ID            int64  `json:"id"`
	StudentID     string `json:"studentId"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	ClassSection  string `json:"classSection,omitempty"`
	FaceImagePath string `json:"faceImagePath,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

func toStudentResponse(s database.Student) studentResponse {
	resp := studentResponse{
		ID:            s.ID,
		StudentID:     s.StudentID,
		Name:          s.Name,
		Email:         s.Email,
		ClassSection:  s.ClassSection,
		FaceImagePath: s.FaceImagePath,
	}
	if !s.CreatedAt.IsZero() {
		resp.CreatedAt = s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// ValidStudentID reports whether an external student identifier is safe
// to use as a filename prefix. Identifiers with path separators or dot
// segments would escape the upload root.
func ValidStudentID(id string) bool {
	if id == "" {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..")
}

// Register handles student registration. Expects a multipart form with
// student_id and name, optional email and class_section (class and course
// are accepted as aliases), and an optional face image under "face". A
// face that cannot be decoded is stored verbatim.
func (h *StudentsHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	studentID := strings.TrimSpace(r.FormValue("student_id"))
	name := strings.TrimSpace(r.FormValue("name"))
	if studentID == "" {
		respondError(w, http.StatusBadRequest, "student_id is required")
		return
	}
	if !ValidStudentID(studentID) {
		respondError(w, http.StatusBadRequest, "student_id must not contain path separators")
		return
	}
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	var facePath string
	data, filename, err := readFormFile(r, "face")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		respondError(w, http.StatusBadRequest, "failed to read face image")
		return
	}
	if err == nil {
		normalized, normErr := filestore.NormalizeImage(data, h.maxImageDim)
		if normErr != nil {
			// Not a decodable image. Keep the original bytes; the matcher
			// scores unreadable references as zero rather than failing.
			log.Printf("storing face image for %s verbatim: %v", sanitizeForLog(studentID), normErr)
			normalized = data
		}
		facePath, err = h.files.Save(filestore.NamespaceFaces, studentID, filename, normalized)
		if err != nil {
			log.Printf("failed to store face image for %s: %v", sanitizeForLog(studentID), err)
			respondError(w, http.StatusInternalServerError, "failed to store face image")
			return
		}
	}

	student, err := h.students.Create(r.Context(), database.Student{
		StudentID:     studentID,
		Name:          name,
		Email:         strings.TrimSpace(r.FormValue("email")),
		ClassSection:  classSection(r),
		FaceImagePath: facePath,
	})
	if err != nil {
		// The face file is orphaned once registration fails.
		if facePath != "" {
			if cleanupErr := h.files.Delete(facePath); cleanupErr != nil {
				log.Printf("failed to clean up face image %s: %v", facePath, cleanupErr)
			}
		}
		respondStoreError(w, err)
		return
	}

	log.Printf("registered student %s", sanitizeForLog(studentID))
	respondJSON(w, http.StatusCreated, toStudentResponse(student))
}

// classSection reads the class section field, accepting the aliases the
// older clients still send.
func classSection(r *http.Request) string {
	for _, field := range []string{"class_section", "class", "course"} {
		if v := strings.TrimSpace(r.FormValue(field)); v != "" {
			return v
		}
	}
	return ""
}

// List returns all registered students ordered by normalized name, so
// accented and differently-cased names sort together.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.List(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	sort.SliceStable(students, func(i, j int) bool {
		return facematch.NormalizeName(students[i].Name) < facematch.NormalizeName(students[j].Name)
	})

	resp := make([]studentResponse, 0, len(students))
	for _, s := range students {
		resp = append(resp, toStudentResponse(s))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(resp),
		"students": resp,
	})
}

// Get returns a single student by external identifier.
func (h *StudentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")

	student, err := h.students.GetByStudentID(r.Context(), studentID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toStudentResponse(student))
}

// Delete removes a student together with their attendance history. The
// stored face image is removed best-effort; evidence files stay for audit.
func (h *StudentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")

	student, err := h.students.GetByStudentID(r.Context(), studentID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	if err := h.students.Delete(r.Context(), studentID); err != nil {
		respondStoreError(w, err)
		return
	}

	if student.FaceImagePath != "" {
		if err := h.files.Delete(student.FaceImagePath); err != nil {
			log.Printf("failed to remove face image %s: %v", student.FaceImagePath, err)
		}
	}

	log.Printf("deleted student %s", sanitizeForLog(studentID))
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "student deleted",
	})
}
