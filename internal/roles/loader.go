package roles

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	apperrors "skillmatch/internal/errors"
)

//go:embed roles.schema.json
var roleSchema string

// File is the on-disk role table format
type File struct {
	Roles []FileRole `json:"roles" validate:"required,min=1,dive"`
}

// FileRole is a single role entry in a role file
type FileRole struct {
	ID       string   `json:"id" validate:"required,max=64"`
	Name     string   `json:"name" validate:"required"`
	Icon     string   `json:"icon"`
	Keywords []string `json:"keywords" validate:"dive,required"`
}

// FieldError represents a single schema violation at a specific field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every schema violation found in a role file
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("role file validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Load reads a role file and merges it over the built-in table. Roles with
// a known id replace the built-in entry; new ids are appended to the catalog.
// An empty path returns the built-in table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewIOError(apperrors.ErrCodeFileNotReadable, "failed to read role file", err).
			WithContext("path", path)
	}

	file, err := Parse(data)
	if err != nil {
		return nil, apperrors.NewConfigError(apperrors.ErrCodeInvalidRolesFile, "invalid role file", err).
			WithContext("path", path)
	}

	return Merge(Default(), file), nil
}

// Parse validates role file content and decodes it
func Parse(data []byte) (*File, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode role file: %w", err)
	}

	if err := validator.New().Struct(&file); err != nil {
		if ves, ok := err.(validator.ValidationErrors); ok && len(ves) > 0 {
			return nil, fmt.Errorf("validation error: %s - %s", ves[0].Namespace(), ves[0].Tag())
		}
		return nil, err
	}

	return &file, nil
}

// Merge returns a new table holding base overlaid with the file's roles.
// base is not modified.
func Merge(base *Table, file *File) *Table {
	out := &Table{
		order: append([]string(nil), base.order...),
		roles: make(map[string]Role, len(base.roles)+len(file.Roles)),
	}
	for id, r := range base.roles {
		out.roles[id] = r
	}
	for _, fr := range file.Roles {
		out.put(Role{
			ID:       fr.ID,
			Name:     fr.Name,
			Icon:     fr.Icon,
			Keywords: fr.Keywords,
		})
	}
	return out
}

func validateSchema(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(roleSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("failed to validate role file: %w", err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
