package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/lots"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/requests"
)

var certificationField = regexp.MustCompile(`^certifications\[(\d+)\]\[([a-z_]+)\]$`)

type certificationForm struct {
	values map[string]string
	photo  *multipart.FileHeader
}

// parseCertifications đọc các trường certifications[i][field] và certifications[i][photo]
// của form multipart, giữ thứ tự theo chỉ số i.
func parseCertifications(form *multipart.Form) ([]lots.Input, error) {
	entries := map[int]*certificationForm{}
	entry := func(key string) (*certificationForm, string, bool) {
		m := certificationField.FindStringSubmatch(key)
		if m == nil {
			return nil, "", false
		}
		i, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, "", false
		}
		e, ok := entries[i]
		if !ok {
			e = &certificationForm{values: map[string]string{}}
			entries[i] = e
		}
		return e, m[2], true
	}

	for key, vals := range form.Value {
		if e, field, ok := entry(key); ok && len(vals) > 0 {
			e.values[field] = strings.TrimSpace(vals[0])
		}
	}
	for key, files := range form.File {
		if e, field, ok := entry(key); ok && field == "photo" && len(files) > 0 {
			e.photo = files[0]
		}
	}
	if len(entries) == 0 {
		return nil, apperror.Validation("certifications_required", "at least one cattle certification is required")
	}

	indexes := make([]int, 0, len(entries))
	for i := range entries {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	inputs := make([]lots.Input, 0, len(indexes))
	for _, i := range indexes {
		e := entries[i]
		cert, err := e.certification()
		if err != nil {
			return nil, apperror.Validation("invalid_certification", "certifications[%d]: %s", i, err.Error())
		}
		in := lots.Input{Certification: cert}
		if e.photo != nil {
			photo, err := readUpload(e.photo)
			if err != nil {
				return nil, err
			}
			in.Photo = photo
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func (e *certificationForm) certification() (models.CattleCertification, error) {
	v := e.values
	c := models.CattleCertification{
		CUIGCode:                 v["cuig_code"],
		AlternativeCode:          v["alternative_code"],
		Gender:                   models.Gender(v["gender"]),
		Category:                 models.CattleCategory(v["category"]),
		DentalChronology:         models.DentalChronology(v["dental_chronology"]),
		PregnancyDiagnosisMethod: models.PregnancyMethod(v["pregnancy_diagnosis_method"]),
		CorporalCondition:        v["corporal_condition"],
		BrucellosisDiagnosis:     v["brucellosis_diagnosis"],
		Comments:                 v["comments"],
	}
	if s := v["estimated_weight"]; s != "" {
		w, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return c, fieldError("estimated_weight", err)
		}
		c.EstimatedWeight = w
	}
	if s := v["pregnant"]; s != "" {
		p, err := strconv.ParseBool(s)
		if err != nil {
			return c, fieldError("pregnant", err)
		}
		c.Pregnant = &p
	}
	start, err := optionalTime(v, "pregnancy_service_range_start")
	if err != nil {
		return c, err
	}
	end, err := optionalTime(v, "pregnancy_service_range_end")
	if err != nil {
		return c, err
	}
	if start != nil && end != nil {
		c.PregnancyServiceRange = &models.TimeRange{Start: *start, End: *end}
	}
	if c.DataTakenAt, err = optionalTime(v, "data_taken_at"); err != nil {
		return c, err
	}
	if s := v["geolocation"]; s != "" {
		if err := json.Unmarshal([]byte(s), &c.Geolocation); err != nil {
			return c, fieldError("geolocation", err)
		}
	}
	return c, nil
}

func optionalTime(v map[string]string, field string) (*time.Time, error) {
	s := v[field]
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fieldError(field, err)
	}
	return &t, nil
}

func fieldError(field string, err error) error {
	return apperror.Validation("invalid_field", "%s: %v", field, err)
}

// readUpload đọc file multipart; file vượt MaxFileSize bị từ chối thay vì cắt bớt.
func readUpload(fh *multipart.FileHeader) (models.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, requests.MaxFileSize+1))
	if err != nil {
		return models.Upload{}, err
	}
	if len(data) > requests.MaxFileSize {
		return models.Upload{}, apperror.ErrInvalidFile.Withf("%s exceeds %d bytes", fh.Filename, requests.MaxFileSize)
	}
	return models.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
