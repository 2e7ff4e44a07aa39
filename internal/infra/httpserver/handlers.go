package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	appsurveys "github.com/bryanwahyu/wifi-survey/internal/application/surveys"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
	"github.com/bryanwahyu/wifi-survey/internal/domain/uploads"
	"github.com/bryanwahyu/wifi-survey/internal/domain/users"
	"github.com/bryanwahyu/wifi-survey/internal/infra/report"
	"github.com/bryanwahyu/wifi-survey/internal/middleware"
)

// POST /v1/register
func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) error {
	var body middleware.RegisterRequest
	if err := r.decode(req, &body); err != nil {
		return err
	}
	u, err := r.users.Register(req.Context(), strings.TrimSpace(body.Username), body.Password)
	if err != nil {
		return err
	}
	msg := "Registration successful! Please wait for an administrator to approve your account."
	if u.IsAdmin {
		msg = "Registration successful! You are the first user and have been made an administrator."
	}
	return writeJSON(w, http.StatusCreated, map[string]any{"user": u, "message": msg})
}

// GET /v1/environments
func (r *Router) handleListEnvironments(w http.ResponseWriter, req *http.Request) error {
	list, err := r.environments.List(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/environments
func (r *Router) handleCreateEnvironment(w http.ResponseWriter, req *http.Request) error {
	var body middleware.CreateEnvironmentRequest
	if err := r.decode(req, &body); err != nil {
		return err
	}
	env, err := r.environments.Create(req.Context(), middleware.UserFromContext(req.Context()), body.Name)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, env)
}

// GET /v1/environments/{id}
func (r *Router) handleGetEnvironment(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	detail, err := r.environments.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, detail)
}

// DELETE /v1/environments/{id}
func (r *Router) handleDeleteEnvironment(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	res, err := r.environments.Delete(req.Context(), middleware.UserFromContext(req.Context()), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/environments/{id}/uploads?limit=
func (r *Router) handleListUploads(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.surveys.Uploads(req.Context(), id, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/environments/{id}/scans?page=&page_size=&rogue=&q=
func (r *Router) handleListScans(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	rogue, _ := strconv.ParseBool(q.Get("rogue"))

	res, err := r.surveys.List(req.Context(), id, surveys.ListFilter{
		Page:      page,
		PageSize:  size,
		RogueOnly: rogue,
		Search:    strings.TrimSpace(q.Get("q")),
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/environments/{id}/export?format=html|csv
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(req.URL.Query().Get("format"))
	if err != nil {
		return errBadRequest("%v", err)
	}
	out, err := r.surveys.Export(req.Context(), id, format)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+out.FileName+`"`)
	if out.ArchiveURL != "" {
		w.Header().Set("X-Archive-URL", out.ArchiveURL)
	}
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(out.Body)
	return err
}

// POST /v1/environments/{id}/advice
func (r *Router) handleAdvice(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	advice, err := r.advisor.Advise(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, advice)
}

// PUT /v1/scans/{id}/remarks
func (r *Router) handleUpdateRemarks(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	var body middleware.RemarksRequest
	if err := r.decode(req, &body); err != nil {
		return err
	}
	rec, err := r.surveys.UpdateRemarks(req.Context(), surveys.ScanID(id), body.Remarks)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// PUT /v1/scans/{id}/rogue
func (r *Router) handleSetRogue(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	var body middleware.RogueRequest
	if err := r.decode(req, &body); err != nil {
		return err
	}
	if err := r.surveys.SetRogue(req.Context(), surveys.ScanID(id), body.RogueAPPotential); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"id": id, "rogue_ap_potential": body.RogueAPPotential})
}

// POST /v1/scans/rogue
func (r *Router) handleBulkRogue(w http.ResponseWriter, req *http.Request) error {
	var body middleware.BulkRogueRequest
	if err := r.decode(req, &body); err != nil {
		return err
	}
	ids := make([]surveys.ScanID, len(body.IDs))
	for i, id := range body.IDs {
		ids[i] = surveys.ScanID(id)
	}
	n, err := r.surveys.BulkSetRogue(req.Context(), ids, body.RogueAPPotential)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"updated": n})
}

// GET /v1/admin/dashboard
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	d, err := r.users.Dashboard(req.Context(), middleware.UserFromContext(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, d)
}

// GET /v1/admin/users
func (r *Router) handleListUsers(w http.ResponseWriter, req *http.Request) error {
	list, err := r.users.List(req.Context(), middleware.UserFromContext(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/admin/users/{id}/approve
func (r *Router) handleApproveUser(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	u, err := r.users.Approve(req.Context(), middleware.UserFromContext(req.Context()), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, u)
}

// DELETE /v1/admin/users/{id}
func (r *Router) handleRejectUser(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	u, err := r.users.Reject(req.Context(), middleware.UserFromContext(req.Context()), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"rejected": u.Username})
}

// PUT /v1/admin/users/{id}/role
func (r *Router) handleAssignRole(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	var body middleware.RoleRequest
	if err := r.decode(req, &body); err != nil {
		return err
	}
	u, err := r.users.AssignRole(req.Context(), middleware.UserFromContext(req.Context()), id, users.Role(body.Role))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, u)
}

// uploadStatusCode maps the outcome of an upload to the response status
func uploadStatusCode(res *appsurveys.UploadResult) int {
	switch res.Status {
	case uploads.StatusAccepted:
		return http.StatusCreated
	case uploads.StatusRejected, uploads.StatusFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusOK
	}
}
