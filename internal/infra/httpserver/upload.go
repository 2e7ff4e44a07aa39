package httpserver

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	appsurveys "github.com/bryanwahyu/wifi-survey/internal/application/surveys"
	"github.com/bryanwahyu/wifi-survey/internal/middleware"
)

const uploadField = "csv_file"

// POST /v1/environments/{id}/uploads
// Body: multipart form with a csv_file part, or the raw CSV text
// (file name from ?filename=).
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	id, err := idParam(req)
	if err != nil {
		return err
	}
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUploadBytes)

	name, content, err := readUpload(req)
	if err != nil {
		return err
	}

	res, err := r.surveys.Upload(req.Context(), appsurveys.UploadCommand{
		EnvironmentID: id,
		UploaderID:    middleware.UserFromContext(req.Context()).ID,
		FileName:      name,
		Content:       content,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, uploadStatusCode(res), res)
}

func readUpload(req *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		content, err := io.ReadAll(req.Body)
		if err != nil {
			return "", nil, err
		}
		if len(content) == 0 {
			return "", nil, errBadRequest("No file selected.")
		}
		name := req.URL.Query().Get("filename")
		if name == "" {
			name = "upload.csv"
		}
		return filepath.Base(name), content, nil
	}

	file, header, err := req.FormFile(uploadField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", nil, err
		}
		return "", nil, errBadRequest("No file selected.")
	}
	defer file.Close()

	if header.Filename == "" {
		return "", nil, errBadRequest("No file selected.")
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		return "", nil, errBadRequest("Please upload a CSV file.")
	}
	content, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(header.Filename), content, nil
}
