// Package course реализует HTTP-обработчики каталога курсов и лекций.
//
// Создание курса и добавление лекции принимают multipart-форму с полем file
// (постер или видео).
package course

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/http/form"
	"github.com/magabrotheeeer/course-seller/internal/http/response"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
	"github.com/magabrotheeeer/course-seller/internal/media"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/services/courses"
)

// Service описывает бизнес-логику каталога.
type Service interface {
	List(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error)
	Create(ctx context.Context, in courses.CreateInput, poster *media.File) (*models.Course, error)
	Lectures(ctx context.Context, courseID string) ([]models.Lecture, error)
	AddLecture(ctx context.Context, courseID, title, description string, video *media.File) (*models.Lecture, error)
	DeleteLecture(ctx context.Context, courseID, lectureID string) error
	DeleteCourse(ctx context.Context, id string) error
}

// Handler обрабатывает запросы к каталогу.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// parseWithFile разбирает форму и достаёт файл. При ошибке ответ уже записан.
func parseWithFile(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*media.File, func(), bool) {
	if err := form.Parse(r); err != nil {
		response.WriteError(w, r, err)
		return nil, nil, false
	}
	f, closeFile, err := form.File(r)
	if err != nil {
		log.Error("failed to read file", sl.Err(err))
		response.WriteError(w, r, apperr.Validation("invalid file"))
		return nil, nil, false
	}
	return f, closeFile, true
}

// List godoc
// @Summary Список курсов без лекций
// @Tags Course
// @Produce json
// @Param keyword query string false "Поиск по названию"
// @Param category query string false "Категория"
// @Success 200 {object} map[string]any
// @Router /courses [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.List"
	log := h.logger(r, op)

	filter := models.CourseFilter{
		Keyword:  r.URL.Query().Get("keyword"),
		Category: r.URL.Query().Get("category"),
	}
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error("failed to list courses", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData("", map[string]any{"courses": list}))
}

// Create создаёт курс с постером.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.Create"
	log := h.logger(r, op)

	poster, closeFile, ok := parseWithFile(w, r, log)
	if !ok {
		return
	}
	defer closeFile()

	in := courses.CreateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		CreatedBy:   r.FormValue("createdBy"),
	}
	c, err := h.service.Create(r.Context(), in, poster)
	if err != nil {
		log.Info("failed to create course", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("course created", slog.String("course_id", c.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData("Course Created Successfully. You can add lectures now.", map[string]any{"course": c}))
}

// Lectures возвращает лекции курса и увеличивает счётчик просмотров.
func (h *Handler) Lectures(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.Lectures"
	log := h.logger(r, op)

	lectures, err := h.service.Lectures(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		log.Info("failed to get lectures", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData("", map[string]any{"lectures": lectures}))
}

// AddLecture добавляет лекцию с видео.
func (h *Handler) AddLecture(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.AddLecture"
	log := h.logger(r, op)

	video, closeFile, ok := parseWithFile(w, r, log)
	if !ok {
		return
	}
	defer closeFile()

	id := chi.URLParam(r, "id")
	l, err := h.service.AddLecture(r.Context(), id, r.FormValue("title"), r.FormValue("description"), video)
	if err != nil {
		log.Info("failed to add lecture", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("lecture added", slog.String("course_id", id), slog.String("lecture_id", l.ID))
	render.JSON(w, r, response.OKWithData("Lecture Added in Course", map[string]any{"lecture": l}))
}

// DeleteCourse удаляет курс вместе с файлами.
func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.DeleteCourse"
	log := h.logger(r, op)

	id := chi.URLParam(r, "id")
	if err := h.service.DeleteCourse(r.Context(), id); err != nil {
		log.Info("failed to delete course", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("course deleted", slog.String("course_id", id))
	render.JSON(w, r, response.OK("Course Deleted Successfully"))
}

// DeleteLecture удаляет лекцию ?courseId=&lectureId=.
func (h *Handler) DeleteLecture(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.DeleteLecture"
	log := h.logger(r, op)

	q := r.URL.Query()
	if err := h.service.DeleteLecture(r.Context(), q.Get("courseId"), q.Get("lectureId")); err != nil {
		log.Info("failed to delete lecture", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("Lecture Deleted Successfully"))
}
