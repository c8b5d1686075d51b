package v1

import (
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/deckhand-io/deckhand/pkg/extract"
	"github.com/deckhand-io/deckhand/pkg/jobs"
)

var validate = validator.New()

// ParseListJobsQuery parses and validates query params for GET /api/v1/jobs.
// Returns a validated query with sane defaults (limit=20, newest first)
// when omitted.
func ParseListJobsQuery(r *http.Request) (*jobs.ListQuery, error) {
	q := r.URL.Query()
	res := jobs.ListQuery{
		OrderBy:   jobs.OrderByCreatedAt,
		Direction: jobs.OrderDesc,
		Limit:     jobs.DefaultListLimit,
	}

	if v := strings.TrimSpace(q.Get("userId")); v != "" {
		res.UserID = v
	}

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		if err := validate.Var(v, "oneof=extract-assets extract-metadata"); err != nil {
			return nil, &ValidationError{Field: "type", Reason: "must be one of: extract-assets,extract-metadata"}
		}
		res.Type = jobs.Type(v)
	}

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		if err := validate.Var(v, "oneof=pending queued processing completed failed cancelled"); err != nil {
			return nil, &ValidationError{Field: "status", Reason: "must be one of: pending,queued,processing,completed,failed,cancelled"}
		}
		res.Status = jobs.Status(v)
	}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ValidationError{Field: "limit", Reason: "must be an integer"}
		}
		if err := validate.Var(n, "min=1,max=100"); err != nil {
			return nil, &ValidationError{Field: "limit", Reason: "must be between 1 and 100"}
		}
		res.Limit = n
	}

	if v := strings.TrimSpace(q.Get("offset")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ValidationError{Field: "offset", Reason: "must be an integer"}
		}
		if n < 0 {
			return nil, &ValidationError{Field: "offset", Reason: "must be >= 0"}
		}
		res.Offset = n
	}

	if v := strings.TrimSpace(q.Get("orderBy")); v != "" {
		if err := validate.Var(v, "oneof=createdAt updatedAt completedAt"); err != nil {
			return nil, &ValidationError{Field: "orderBy", Reason: "must be one of: createdAt,updatedAt,completedAt"}
		}
		res.OrderBy = jobs.OrderField(v)
	}

	if v := strings.TrimSpace(q.Get("orderDirection")); v != "" {
		if err := validate.Var(v, "oneof=asc desc"); err != nil {
			return nil, &ValidationError{Field: "orderDirection", Reason: "must be asc or desc"}
		}
		res.Direction = jobs.OrderDirection(v)
	}

	return &res, nil
}

// ValidationError is a lightweight error used for 400 responses.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return "validation failed"
	}
	if e.Reason == "" {
		return e.Field + ": invalid"
	}
	return e.Field + ": " + e.Reason
}

// ---- Submission form helpers ----

// SubmitCommon holds the form fields shared by both submission endpoints.
type SubmitCommon struct {
	Timeout time.Duration
	UserID  string
}

// ParseSubmitCommon validates timeoutMs and userId form fields.
// A zero Timeout means "use the server default".
func ParseSubmitCommon(form url.Values) (SubmitCommon, error) {
	var res SubmitCommon

	if v := strings.TrimSpace(form.Get("timeoutMs")); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return res, &ValidationError{Field: "timeoutMs", Reason: "must be an integer"}
		}
		if ms < 0 {
			return res, &ValidationError{Field: "timeoutMs", Reason: "must be >= 0"}
		}
		res.Timeout = time.Duration(ms) * time.Millisecond
	}

	res.UserID = strings.TrimSpace(form.Get("userId"))
	return res, nil
}

// ParseAssetOptions validates assetTypes and generateThumbnails form fields.
func ParseAssetOptions(form url.Values) (*extract.AssetOptions, error) {
	opts := &extract.AssetOptions{}

	if v := strings.TrimSpace(form.Get("assetTypes")); v != "" {
		for _, t := range strings.Split(v, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if err := validate.Var(t, "oneof=image video audio"); err != nil {
				return nil, &ValidationError{Field: "assetTypes", Reason: "must be a comma-separated list of: image,video,audio"}
			}
			opts.Types = append(opts.Types, t)
		}
	}

	if v := strings.TrimSpace(form.Get("generateThumbnails")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, &ValidationError{Field: "generateThumbnails", Reason: "must be a boolean"}
		}
		opts.GenerateThumbnails = b
	}

	return opts, nil
}

// ParseMetadataOptions validates the metadata inclusion flags.
// All flags default to true when omitted.
func ParseMetadataOptions(form url.Values) (*extract.MetadataOptions, error) {
	opts := &extract.MetadataOptions{
		IncludeCoreProperties: true,
		IncludeAppProperties:  true,
		IncludeSlideStats:     true,
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"includeCoreProperties", &opts.IncludeCoreProperties},
		{"includeAppProperties", &opts.IncludeAppProperties},
		{"includeSlideStats", &opts.IncludeSlideStats},
	}
	for _, f := range flags {
		v := strings.TrimSpace(form.Get(f.name))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, &ValidationError{Field: f.name, Reason: "must be a boolean"}
		}
		*f.dst = b
	}

	return opts, nil
}

// ValidateUploadName checks the uploaded file name for a supported
// presentation extension.
func ValidateUploadName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "file", Reason: "file name is required"}
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pptx", ".ppt":
		return nil
	}
	return &ValidationError{Field: "file", Reason: "unsupported file type (expected .pptx or .ppt)"}
}
