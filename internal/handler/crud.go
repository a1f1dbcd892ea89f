package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sekolahdigital/adminpanel/internal/i18n"
	"github.com/sekolahdigital/adminpanel/internal/model"
)

// --- Students ---

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.ListStudents(r.Context())
	if err != nil {
		slog.Error("list students", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, students)
}

func (h *Handler) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var st model.Student
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if st.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := h.store.InsertStudent(r.Context(), st)
	if err != nil {
		slog.Error("create student", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.GetStudent(r.Context(), urlParam(r, "id"))
	if err != nil {
		slog.Error("get student", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if st == nil {
		respondError(w, http.StatusNotFound, i18n.T(r.Context(), "NotFound"))
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (h *Handler) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var st model.Student
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st.ID = urlParam(r, "id")

	if err := h.store.UpdateStudent(r.Context(), st); err != nil {
		slog.Error("update student", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": st.ID})
}

func (h *Handler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteStudent(r.Context(), urlParam(r, "id")); err != nil {
		slog.Error("delete student", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Exams ---

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	var (
		exams []model.Exam
		err   error
	)
	if r.URL.Query().Get("active") == "true" {
		exams, err = h.store.ListActiveExams(r.Context())
	} else {
		exams, err = h.store.ListExams(r.Context())
	}
	if err != nil {
		slog.Error("list exams", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, exams)
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	var e model.Exam
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if e.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	if user := model.UserFromContext(r.Context()); user != nil && e.CreatedBy == "" {
		e.CreatedBy = user.Username
	}

	id, err := h.store.InsertExam(r.Context(), e)
	if err != nil {
		slog.Error("create exam", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	e, err := h.store.GetExam(r.Context(), urlParam(r, "id"))
	if err != nil {
		slog.Error("get exam", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if e == nil {
		respondError(w, http.StatusNotFound, i18n.T(r.Context(), "NotFound"))
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (h *Handler) handleUpdateExam(w http.ResponseWriter, r *http.Request) {
	var e model.Exam
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e.ID = urlParam(r, "id")

	if err := h.store.UpdateExam(r.Context(), e); err != nil {
		slog.Error("update exam", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": e.ID})
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteExam(r.Context(), urlParam(r, "id")); err != nil {
		slog.Error("delete exam", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Questions ---

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.store.ListQuestionsByExam(r.Context(), urlParam(r, "id"))
	if err != nil {
		slog.Error("list questions", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var q model.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q.ExamID = urlParam(r, "id")
	if q.Text == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	id, err := h.store.InsertQuestion(r.Context(), q)
	if err != nil {
		slog.Error("create question", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteQuestion(r.Context(), urlParam(r, "id")); err != nil {
		slog.Error("delete question", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Results ---

const defaultResultsPageSize = 50

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultResultsPageSize
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	var (
		attempts []model.ExamAttempt
		err      error
	)
	switch {
	case q.Get("class") != "":
		attempts, err = h.store.AttemptsByClass(r.Context(), q.Get("class"), limit)
	case q.Get("exam") != "":
		attempts, err = h.store.AttemptsByExam(r.Context(), q.Get("exam"), limit)
	default:
		attempts, err = h.store.RecentAttempts(r.Context(), limit)
	}
	if err != nil {
		slog.Error("list results", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, attempts)
}

func (h *Handler) handleCreateResult(w http.ResponseWriter, r *http.Request) {
	var a model.ExamAttempt
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if a.StudentName == "" || a.ExamTitle == "" {
		respondError(w, http.StatusBadRequest, "student_name and exam_title are required")
		return
	}

	id, err := h.store.InsertAttempt(r.Context(), a)
	if err != nil {
		slog.Error("create result", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}
